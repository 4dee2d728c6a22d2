package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/cpereport/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [status]",
	Short: "Apply database migrations",
	Long: `Apply pending schema migrations to the database named by --db-url.
With the status argument, show each migration and whether it has been
applied instead of changing anything.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 1 {
			return usageErrorf("expected at most one argument")
		}
		if len(args) == 1 && args[0] != "status" {
			return usageErrorf("unknown argument %q (did you mean 'status'?)", args[0])
		}
		return nil
	},
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if dbURL == "" {
		return usageErrorf("--db-url is required")
	}

	conn, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer conn.Close()

	if len(args) == 1 {
		statuses, err := db.MigrateStatus(conn)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tCHECKSUM\tAPPLIED")
		for _, s := range statuses {
			applied := "pending"
			if s.Applied {
				applied = "applied"
				if s.AppliedAt != nil {
					applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
				}
			}
			fmt.Fprintf(w, "%s\t%.12s\t%s\n", s.ID, s.Checksum, applied)
		}
		return w.Flush()
	}

	if err := db.MigrateUp(conn); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Println("migrations applied")
	return nil
}
