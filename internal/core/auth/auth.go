// Package auth provides HMAC-based API key authentication for the HTTP API.
package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// identityKey is the context key for the authenticated key identity.
const identityKey = contextKey("api_key_identity")

// Queries defines the database operations authentication needs.
// Implemented by *db.Queries.
type Queries interface {
	Get(ctx context.Context, name string, dest interface{}, args ...interface{}) error
	Exec(ctx context.Context, name string, args ...interface{}) (sql.Result, error)
}

// Identity describes the API key a request authenticated with.
type Identity struct {
	APIKeyID string
	Name     string
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds an in-memory secret map for O(1) lookup and queries for key
// verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
}

// NewAuthenticator creates an authenticator with HMAC secrets and a
// query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
	}
}

// Enabled reports whether any HMAC secrets are configured. Without
// secrets the API runs open and the middleware passes all requests
// through.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.secrets) > 0
}

// Authenticate validates an API key and returns its identity on success.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (Identity, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return Identity{}, err
	}

	// O(1) lookup of the HMAC secret using the secret_id from the key
	secret, ok := a.secrets[secretID]
	if !ok {
		return Identity{}, ErrUnknownKey
	}

	keyHash := KeyHash(secret, apiKey)

	// Lookup by key_hash; the unique constraint ensures a single result
	var result struct {
		APIKeyID   string         `db:"api_key_id"`
		Name       string         `db:"name"`
		RevokedAt  sql.NullString `db:"revoked_at"`
		LastUsedAt sql.NullString `db:"last_used_at"`
	}

	err = a.queries.Get(ctx, "get-api-key-by-hash", &result, keyHash)
	if err == sql.ErrNoRows {
		return Identity{}, ErrInvalidKey
	}
	if err != nil {
		return Identity{}, fmt.Errorf("database error: %w", err)
	}

	if result.RevokedAt.Valid {
		return Identity{}, ErrKeyRevoked
	}

	// Refresh last_used_at at most once a minute to limit write
	// amplification from chatty clients
	if shouldUpdateLastUsed(result.LastUsedAt) {
		now := time.Now().UTC().Format(time.RFC3339)
		_, _ = a.queries.Exec(ctx, "update-last-used", now, result.APIKeyID)
	}

	return Identity{APIKeyID: result.APIKeyID, Name: result.Name}, nil
}

// shouldUpdateLastUsed implements the 1-minute refresh throttle.
func shouldUpdateLastUsed(lastUsed sql.NullString) bool {
	if !lastUsed.Valid {
		return true
	}
	t, err := time.Parse(time.RFC3339, lastUsed.String)
	if err != nil {
		return true
	}
	return time.Since(t) > time.Minute
}

// Middleware returns HTTP middleware that authenticates requests via
// the X-Api-Key header. With no secrets configured it is a no-op.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-Api-Key")
		if apiKey == "" {
			writeAuthError(w, http.StatusUnauthorized, ErrMissingKey)
			return
		}

		identity, err := a.Authenticate(r.Context(), apiKey)
		if err != nil {
			switch {
			case errors.Is(err, ErrKeyRevoked):
				writeAuthError(w, http.StatusForbidden, err)
			case errors.Is(err, ErrInvalidKeyFormat),
				errors.Is(err, ErrUnknownKey),
				errors.Is(err, ErrInvalidKey):
				writeAuthError(w, http.StatusUnauthorized, err)
			default:
				// Database failures are a service problem, not a
				// credential problem
				writeAuthError(w, http.StatusServiceUnavailable, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext extracts the authenticated key identity.
// Returns the zero Identity if the request was not authenticated.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id
	}
	return Identity{}
}

func writeAuthError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
