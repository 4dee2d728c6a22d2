package auth

import "errors"

// Authentication failures map to distinct HTTP statuses. Unauthorized
// for missing/invalid keys (does not confirm key existence), Forbidden
// for revoked keys (confirms the key exists but is blocked).
var (
	ErrMissingKey       = errors.New("API key required in X-Api-Key header")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")
)
