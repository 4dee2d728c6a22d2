// Package config provides configuration management for cpereport services.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// ReportAPIConfig holds configuration for the HTTP report API service.
// DBURL and RuleSetsDir are optional; empty disables that source.
type ReportAPIConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	DBURL          string
	DataDir        string
	RuleSetsDir    string
	LogLevel       string
	LogFormat      string
}

// DefaultReportAPIConfig returns configuration with default values.
func DefaultReportAPIConfig() *ReportAPIConfig {
	return &ReportAPIConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		RequestTimeout: 30 * time.Second,
		DataDir:        "./data",
		LogLevel:       "info",
		LogFormat:      "logfmt",
	}
}

// HMACSecrets reads API-key signing secrets from the environment, keyed
// by secret ID. CR_HMAC_SECRET holds a single secret; CR_HMAC_SECRET_1,
// _2, ... hold additional ones so old and new keys stay valid during
// rotation. Secret IDs are UUIDv7 hex, matching the ID embedded in
// issued API keys.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	addSecret := func(envKey, raw string) error {
		secretID, decoded, err := ParseHMACSecretWithID(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", envKey, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check CR_HMAC_SECRET and CR_HMAC_SECRET_* for conflicts)", secretID)
		}
		secrets[secretID] = decoded
		return nil
	}

	// Format: <secret_id>:<base64_secret>
	if val := os.Getenv("CR_HMAC_SECRET"); val != "" {
		if err := addSecret("CR_HMAC_SECRET", val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets stop at the first gap
	for i := 1; ; i++ {
		key := fmt.Sprintf("CR_HMAC_SECRET_%d", i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := addSecret(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecretWithID parses the <secret_id>:<base64_secret> form.
// The ID must be 32 lowercase hex chars (a UUIDv7 without hyphens) and
// the decoded secret at least 32 bytes.
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	id, encoded, found := strings.Cut(strings.TrimSpace(envValue), ":")
	if !found {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	if len(id) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}
	if !isLowerHex(id) {
		return "", nil, fmt.Errorf("secret_id must be hex chars only")
	}

	secret, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(secret) < 32 {
		return "", nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(secret))
	}

	return id, secret, nil
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
