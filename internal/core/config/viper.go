package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*ReportAPIConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultReportAPIConfig
	v.SetDefault("report_api.host", "0.0.0.0")
	v.SetDefault("report_api.port", 8080)
	v.SetDefault("report_api.request_timeout", "30s")
	v.SetDefault("report_api.db_url", "")
	v.SetDefault("report_api.data_dir", "./data")
	v.SetDefault("report_api.rulesets_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "logfmt")

	// Bind environment variables with CR_ prefix
	v.SetEnvPrefix("CR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only; a config file carrying one is a
	// deployment mistake worth failing on.
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ReportAPIConfig{
		Host:           v.GetString("report_api.host"),
		Port:           v.GetInt("report_api.port"),
		RequestTimeout: v.GetDuration("report_api.request_timeout"),
		DBURL:          v.GetString("report_api.db_url"),
		DataDir:        v.GetString("report_api.data_dir"),
		RuleSetsDir:    v.GetString("report_api.rulesets_dir"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive timeout.
func validateConfig(cfg *ReportAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.IsSet("hmac_secret") || v.IsSet("report_api.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use CR_HMAC_SECRET environment variable)")
	}
	return nil
}
