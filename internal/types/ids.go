package types

import (
	"time"

	"github.com/google/uuid"
)

// RunID represents a UUIDv7 validation/conversion run identifier.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type RunID string

// RuleSetID represents a UUIDv7 stored rule-set identifier.
// String alias enables type safety while maintaining JSON string serialization.
type RuleSetID string

// APIKeyID represents a UUIDv7 API key identifier.
type APIKeyID string

// NewRunID generates a UUIDv7 run identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

// NewRuleSetID generates a UUIDv7 rule-set identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRuleSetID() RuleSetID {
	return RuleSetID(uuid.Must(uuid.NewV7()).String())
}

// NewAPIKeyID generates a UUIDv7 API key identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewAPIKeyID() APIKeyID {
	return APIKeyID(uuid.Must(uuid.NewV7()).String())
}

// ParseRunID validates and converts a string to RunID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseRunID(s string) (RunID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RunID(s), nil
}

// RunIDTime extracts the timestamp embedded in a UUIDv7 run ID.
// Enables time-based queries without database lookup.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func RunIDTime(id RunID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
