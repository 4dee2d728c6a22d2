package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/solatis/cpereport/internal/catalog"
	"github.com/solatis/cpereport/internal/core/api"
	"github.com/solatis/cpereport/internal/core/auth"
	"github.com/solatis/cpereport/internal/core/config"
	"github.com/solatis/cpereport/internal/core/db"
	"github.com/solatis/cpereport/internal/core/logging"
	"github.com/solatis/cpereport/internal/core/server"
)

const Version = "0.1.0"

var reportAPICmd = &cobra.Command{
	Use:   "report-api",
	Short: "Start the HTTP report API service",
	RunE:  runReportAPI,
}

func init() {
	rootCmd.AddCommand(reportAPICmd)
	reportAPICmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	reportAPICmd.Flags().Int("port", 8080, "HTTP server port")
	reportAPICmd.Flags().String("data-dir", "", "directory for run audit logs")
}

func runReportAPI(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Port = port
	}
	if cmd.Flags().Changed("data-dir") {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		cfg.DataDir = dataDir
	}
	if dbURL != "" {
		cfg.DBURL = dbURL
	}
	if rulesetsDir != "" {
		cfg.RuleSetsDir = rulesetsDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = logFormat
	}

	logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	var queries *db.Queries
	if cfg.DBURL != "" {
		database, err := db.Open(cfg.DBURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		statuses, err := db.MigrateStatus(database)
		if err != nil {
			return fmt.Errorf("failed to check migrations: %w", err)
		}
		for _, s := range statuses {
			if !s.Applied {
				return fmt.Errorf("migration %s not applied - run 'cpereport migrate' first", s.ID)
			}
		}

		queries, err = db.LoadQueries(database)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}

	var authenticator *auth.Authenticator
	switch {
	case len(secrets) > 0 && queries == nil:
		return fmt.Errorf("HMAC secrets configured but no database; API keys need --db-url")
	case len(secrets) > 0:
		authenticator = auth.NewAuthenticator(secrets, queries)
	default:
		level.Warn(logger).Log("msg", "no HMAC secrets configured, API runs open")
	}

	// A nil *db.Queries must not become a non-nil Store interface
	var store catalog.Store
	if queries != nil {
		store = queries
	}
	cat := catalog.New(cfg.RuleSetsDir, store)

	service, err := api.NewService(logger, cat, queries, authenticator, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	httpServer, err := server.NewHTTPServer(cfg, service, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	level.Info(logger).Log("msg", "starting report API", "version", Version, "host", cfg.Host, "port", cfg.Port)
	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		level.Info(logger).Log("msg", "shutting down gracefully")
		return httpServer.Shutdown(ctx)
	}
}
