package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/solatis/cpereport/internal/catalog"
	"github.com/solatis/cpereport/internal/core/db"
	"github.com/solatis/cpereport/internal/core/logging"
)

var (
	configFile  string
	dbURL       string
	rulesetsDir string
	logLevel    string
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "cpereport",
	Short: "CPE telemetry report toolkit",
	Long: `cpereport converts, validates, and mines TR-181/TR-098 JSON telemetry
reports: flat dotted-key documents, nested hierarchies, and the legacy
name/value pair lists CPE fleets emit.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&rulesetsDir, "rulesets-dir", "", "directory of *_rules.yaml files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "logfmt", "log format (logfmt, json)")

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})
}

// Execute runs the root command and maps failures onto exit codes:
// 0 success, 1 operational error, 2 usage error.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var uerr *usageError
		if errors.As(err, &uerr) {
			return 2
		}
		return 1
	}
	return 0
}

// usageError marks errors the caller caused by invoking the tool wrong,
// as opposed to operational failures.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// newLogger builds the process logger from the persistent flags.
func newLogger() (log.Logger, error) {
	return logging.New(os.Stderr, logFormat, logLevel)
}

// readInput loads the document named by -i; "-" reads stdin.
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes to the file named by -o, or stdout when empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// openStore opens the database named by --db-url; without the flag the
// store stays nil and catalog/API-key operations fall back accordingly.
func openStore() (*db.Queries, func(), error) {
	if dbURL == "" {
		return nil, func() {}, nil
	}

	conn, err := db.Open(dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	queries, err := db.LoadQueries(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return queries, func() { conn.Close() }, nil
}

// newCatalog builds the rule-set catalog from the persistent flags.
func newCatalog(queries *db.Queries) *catalog.Catalog {
	// A nil *db.Queries must not become a non-nil Store interface
	var store catalog.Store
	if queries != nil {
		store = queries
	}
	return catalog.New(rulesetsDir, store)
}
