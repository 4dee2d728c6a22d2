package auth

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/solatis/cpereport/internal/core/db"
	"github.com/solatis/cpereport/internal/types"
)

// newTestQueries opens a migrated throwaway SQLite database.
func newTestQueries(t *testing.T) *db.Queries {
	t.Helper()

	conn, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "auth_test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.MigrateUp(conn); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	queries, err := db.LoadQueries(conn)
	if err != nil {
		t.Fatalf("failed to load queries: %v", err)
	}
	return queries
}

// insertTestKey generates and stores a key, returning the raw key and its ID.
func insertTestKey(t *testing.T, queries *db.Queries, name string) (apiKey, apiKeyID string) {
	t.Helper()

	apiKey, keyHash, err := GenerateAPIKey(testSecretID, testSecret)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	apiKeyID = string(types.NewAPIKeyID())
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = queries.Exec(context.Background(), "insert-api-key", apiKeyID, name, testSecretID, keyHash, now)
	if err != nil {
		t.Fatalf("failed to insert key: %v", err)
	}
	return apiKey, apiKeyID
}

// Test authentication against stored keys
func TestAuthenticate(t *testing.T) {
	queries := newTestQueries(t)
	apiKey, apiKeyID := insertTestKey(t, queries, "acs-lab-1")

	a := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, queries)

	identity, err := a.Authenticate(context.Background(), apiKey)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity.APIKeyID != apiKeyID {
		t.Errorf("identity.APIKeyID = %q, want %q", identity.APIKeyID, apiKeyID)
	}
	if identity.Name != "acs-lab-1" {
		t.Errorf("identity.Name = %q, want %q", identity.Name, "acs-lab-1")
	}

	// First successful use records last_used_at
	var row struct {
		LastUsedAt sql.NullString `db:"last_used_at"`
	}
	err = queries.Get(context.Background(), "get-api-key-by-hash", &row, KeyHash(testSecret, apiKey))
	if err != nil {
		t.Fatalf("failed to reload key: %v", err)
	}
	if !row.LastUsedAt.Valid {
		t.Error("last_used_at not recorded after first use")
	}
}

// Test each authentication failure mode maps to its sentinel error
func TestAuthenticate_Failures(t *testing.T) {
	queries := newTestQueries(t)
	apiKey, apiKeyID := insertTestKey(t, queries, "doomed")

	a := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, queries)
	ctx := context.Background()

	t.Run("malformed key", func(t *testing.T) {
		if _, err := a.Authenticate(ctx, "not-a-key"); err != ErrInvalidKeyFormat {
			t.Errorf("error = %v, want ErrInvalidKeyFormat", err)
		}
	})

	t.Run("unknown secret id", func(t *testing.T) {
		otherID := strings.Repeat("f", 32)
		key := FormatAPIKey(otherID, strings.Repeat("ab", 32))
		if _, err := a.Authenticate(ctx, key); err != ErrUnknownKey {
			t.Errorf("error = %v, want ErrUnknownKey", err)
		}
	})

	t.Run("key not stored", func(t *testing.T) {
		// Well-formed under a known secret, but never inserted
		key := FormatAPIKey(testSecretID, strings.Repeat("cd", 32))
		if _, err := a.Authenticate(ctx, key); err != ErrInvalidKey {
			t.Errorf("error = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("revoked key", func(t *testing.T) {
		now := time.Now().UTC().Format(time.RFC3339)
		if _, err := queries.Exec(ctx, "revoke-api-key", now, apiKeyID); err != nil {
			t.Fatalf("failed to revoke: %v", err)
		}
		if _, err := a.Authenticate(ctx, apiKey); err != ErrKeyRevoked {
			t.Errorf("error = %v, want ErrKeyRevoked", err)
		}
	})
}

// Test the last_used_at refresh throttle
func TestShouldUpdateLastUsed(t *testing.T) {
	cases := []struct {
		name     string
		lastUsed sql.NullString
		want     bool
	}{
		{"never used", sql.NullString{}, true},
		{"used just now", sql.NullString{String: time.Now().UTC().Format(time.RFC3339), Valid: true}, false},
		{"used an hour ago", sql.NullString{String: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339), Valid: true}, true},
		{"unparseable", sql.NullString{String: "garbage", Valid: true}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldUpdateLastUsed(tc.lastUsed); got != tc.want {
				t.Errorf("shouldUpdateLastUsed(%v) = %v, want %v", tc.lastUsed, got, tc.want)
			}
		})
	}
}

// Test HTTP middleware status mapping and identity propagation
func TestMiddleware(t *testing.T) {
	queries := newTestQueries(t)
	apiKey, _ := insertTestKey(t, queries, "probe-1")

	var seen Identity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("open mode without secrets", func(t *testing.T) {
		a := NewAuthenticator(nil, queries)
		rec := httptest.NewRecorder()
		a.Middleware(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/v1/rulesets", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	a := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, queries)
	wrapped := a.Middleware(handler)

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/rulesets", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "X-Api-Key") {
			t.Errorf("body %q does not name the header", rec.Body.String())
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/rulesets", nil)
		req.Header.Set("X-Api-Key", FormatAPIKey(testSecretID, strings.Repeat("ee", 32)))
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/rulesets", nil)
		req.Header.Set("X-Api-Key", apiKey)
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if seen.Name != "probe-1" {
			t.Errorf("handler saw identity %+v, want name probe-1", seen)
		}
	})

	t.Run("revoked key", func(t *testing.T) {
		revokedKey, revokedID := insertTestKey(t, queries, "retired")
		now := time.Now().UTC().Format(time.RFC3339)
		if _, err := queries.Exec(context.Background(), "revoke-api-key", now, revokedID); err != nil {
			t.Fatalf("failed to revoke: %v", err)
		}

		req := httptest.NewRequest("GET", "/v1/rulesets", nil)
		req.Header.Set("X-Api-Key", revokedKey)
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}
