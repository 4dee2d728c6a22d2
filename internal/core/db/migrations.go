package db

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	embeddedmigrations "github.com/solatis/cpereport/migrations"
)

// MigrationStatus represents the state of a single migration.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

// migrationFile is one embedded migration, checksummed for tamper
// detection.
type migrationFile struct {
	ID       string
	Checksum string
	SQL      string
}

// selectMigrations picks the embedded migration set for the connection's
// driver.
func selectMigrations(db *sqlx.DB) (embed.FS, string, error) {
	switch db.DriverName() {
	case "sqlite3":
		return embeddedmigrations.SqliteMigrations, "sqlite", nil
	case "postgres":
		return embeddedmigrations.PostgresMigrations, "postgres", nil
	default:
		return embed.FS{}, "", fmt.Errorf("unsupported database driver: %s", db.DriverName())
	}
}

// MigrateUp applies every pending migration in filename order. Checksums
// of already-applied migrations are validated first, so a modified
// migration file fails loudly instead of silently diverging schemas.
func MigrateUp(db *sqlx.DB) error {
	migrationsFS, migrationsDir, err := selectMigrations(db)
	if err != nil {
		return err
	}

	if err := createMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := loadMigrationFiles(migrationsFS, migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to parse migrations: %w", err)
	}

	applied, err := appliedChecksums(db)
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}

	// Validate the whole recorded set before applying anything.
	byID := make(map[string]string, len(files))
	for _, f := range files {
		byID[f.ID] = f.Checksum
	}
	for id, recorded := range applied {
		expected, ok := byID[id]
		if !ok {
			return fmt.Errorf("migration %s exists in database but not in embedded files", id)
		}
		if recorded != expected {
			return fmt.Errorf("checksum mismatch for migration %s: expected %s, got %s", id, expected, recorded)
		}
	}

	for _, f := range files {
		if _, ok := applied[f.ID]; ok {
			continue
		}
		if err := runMigration(db, f); err != nil {
			return err
		}
	}

	return nil
}

// runMigration executes one migration and records it. Execution and
// recording share a transaction; a failure in either rolls back both.
func runMigration(db *sqlx.DB, f migrationFile) error {
	start := time.Now()

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %s: %w", f.ID, err)
	}

	if err := execStatements(tx, f.SQL); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to apply migration %s: %w", f.ID, err)
	}

	if err := recordMigration(tx, f.ID, f.Checksum, time.Since(start)); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", f.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", f.ID, err)
	}
	return nil
}

// MigrateStatus returns the status of all migrations, applied and pending.
func MigrateStatus(db *sqlx.DB) ([]MigrationStatus, error) {
	migrationsFS, migrationsDir, err := selectMigrations(db)
	if err != nil {
		return nil, err
	}

	if err := createMigrationsTable(db); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := loadMigrationFiles(migrationsFS, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to parse migrations: %w", err)
	}

	rows, err := db.Queryx("SELECT migration_id, checksum, applied_at, execution_ms FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	// applied_at is TEXT on sqlite and TIMESTAMP on postgres; both scan
	// into a string, which parses as RFC 3339 either way.
	type trackedRow struct {
		ID          string `db:"migration_id"`
		Checksum    string `db:"checksum"`
		AppliedAt   string `db:"applied_at"`
		ExecutionMs int64  `db:"execution_ms"`
	}

	applied := make(map[string]MigrationStatus)
	for rows.Next() {
		var row trackedRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		status := MigrationStatus{
			ID:          row.ID,
			Checksum:    row.Checksum,
			Applied:     true,
			ExecutionMs: row.ExecutionMs,
		}
		if t, err := time.Parse(time.RFC3339, row.AppliedAt); err == nil {
			status.AppliedAt = &t
		}
		applied[status.ID] = status
	}

	statuses := make([]MigrationStatus, 0, len(files))
	for _, f := range files {
		if s, ok := applied[f.ID]; ok {
			statuses = append(statuses, s)
		} else {
			statuses = append(statuses, MigrationStatus{ID: f.ID, Checksum: f.Checksum})
		}
	}

	return statuses, nil
}

// loadMigrationFiles reads and checksums the embedded migrations in
// filename order. Numeric prefixes (001_, 002_) give the ordering.
func loadMigrationFiles(fsys embed.FS, dir string) ([]migrationFile, error) {
	names, err := fs.Glob(fsys, dir+"/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	files := make([]migrationFile, 0, len(names))
	for _, name := range names {
		content, err := fsys.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		files = append(files, migrationFile{
			ID:       path.Base(name),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
			SQL:      string(content),
		})
	}
	return files, nil
}

// createMigrationsTable ensures the tracking table exists. sqlite stores
// applied_at as RFC 3339 TEXT, postgres as a real timestamp.
func createMigrationsTable(db *sqlx.DB) error {
	createSQL := `
		CREATE TABLE IF NOT EXISTS migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP WITHOUT TIME ZONE NOT NULL,
			execution_ms INTEGER NOT NULL
		)
	`
	if db.DriverName() == "sqlite3" {
		createSQL = `
		CREATE TABLE IF NOT EXISTS migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL,
			execution_ms INTEGER NOT NULL,
			CHECK (applied_at LIKE '____-__-__T__:__:__Z')
		)
	`
	}

	_, err := db.Exec(createSQL)
	return err
}

// appliedChecksums returns recorded migration IDs with their checksums.
func appliedChecksums(db *sqlx.DB) (map[string]string, error) {
	rows, err := db.Queryx("SELECT migration_id, checksum FROM migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var id, checksum string
		if err := rows.Scan(&id, &checksum); err != nil {
			return nil, err
		}
		applied[id] = checksum
	}
	return applied, nil
}

// execStatements runs a migration's statements one by one. Statements
// split on semicolons; lib/pq rejects multi-statement Exec.
func execStatements(tx *sqlx.Tx, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = stripSQLComments(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
	}
	return nil
}

// stripSQLComments removes line comments so a statement preceded by a
// comment block still executes.
func stripSQLComments(stmt string) string {
	var kept []string
	for _, line := range strings.Split(stmt, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// recordMigration stores migration metadata for the audit trail. sqlite
// gets the timestamp as RFC 3339 text to match its TEXT column.
func recordMigration(tx *sqlx.Tx, id, checksum string, duration time.Duration) error {
	now := time.Now().UTC()

	var appliedAt interface{} = now
	if tx.DriverName() == "sqlite3" {
		appliedAt = now.Format(time.RFC3339)
	}

	_, err := tx.Exec(
		tx.Rebind("INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)"),
		id, checksum, appliedAt, duration.Milliseconds(),
	)
	return err
}
