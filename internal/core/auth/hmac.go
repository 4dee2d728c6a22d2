package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseAPIKey extracts secret_id and random_data from the API key.
// Format: cr-v1-<secret_id>-<random_data> (102 chars total).
// Returns ErrInvalidKeyFormat if the format doesn't match.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 {
		return "", "", ErrInvalidKeyFormat
	}

	if parts[0] != "cr" {
		return "", "", ErrInvalidKeyFormat
	}

	if parts[1] != "v1" {
		return "", "", ErrInvalidKeyFormat
	}

	secretID = parts[2]
	randomData = parts[3]

	// secret_id is 32 hex chars (UUID without hyphens)
	if len(secretID) != 32 {
		return "", "", ErrInvalidKeyFormat
	}

	// random_data is 64 hex chars (256 bits)
	if len(randomData) != 64 {
		return "", "", ErrInvalidKeyFormat
	}

	if !isLowerHex(secretID) || !isLowerHex(randomData) {
		return "", "", ErrInvalidKeyFormat
	}

	return secretID, randomData, nil
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// ComputeHMAC computes the HMAC-SHA256 signature of an API key.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// KeyHash returns the hex-encoded HMAC of an API key, the form stored
// in the api_keys.key_hash column.
func KeyHash(secret []byte, apiKey string) string {
	return hex.EncodeToString(ComputeHMAC(secret, apiKey))
}

// FormatAPIKey constructs an API key from its components.
func FormatAPIKey(secretID, randomData string) string {
	return fmt.Sprintf("cr-v1-%s-%s", secretID, randomData)
}

// GenerateAPIKey creates a fresh random key under the given secret and
// returns both the raw key and its stored hash. The raw key is shown
// once at creation and never persisted.
func GenerateAPIKey(secretID string, secret []byte) (apiKey, keyHash string, err error) {
	if len(secretID) != 32 || !isLowerHex(secretID) {
		return "", "", fmt.Errorf("secret ID must be 32 lowercase hex characters, got %q", secretID)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate random key data: %w", err)
	}

	apiKey = FormatAPIKey(secretID, hex.EncodeToString(buf))
	return apiKey, KeyHash(secret, apiKey), nil
}
