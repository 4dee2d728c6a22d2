package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Queries provides access to named SQL queries loaded from embedded .sql
// files. Uses dotsql for named query management and sqlx for execution.
// Callers declare row structs with db tags at the call site.
type Queries struct {
	dot *dotsql.DotSql
	db  *sqlx.DB
}

// LoadQueries parses every embedded .sql file into one named-query table.
// Queries are addressed by their "-- name:" label (e.g.
// "get-ruleset-by-name", "list-validation-runs").
func LoadQueries(db *sqlx.DB) (*Queries, error) {
	files, err := fs.Glob(queriesFS, "queries/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list query files: %w", err)
	}

	var combined strings.Builder
	for _, file := range files {
		content, err := queriesFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		combined.Write(content)
		combined.WriteByte('\n')
	}

	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}

	return &Queries{dot: dot, db: db}, nil
}

// resolve looks up a named query and rebinds its ? placeholders to the
// driver's positional form ($1, $2 for PostgreSQL).
func (q *Queries) resolve(name string) (string, error) {
	query, err := q.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return q.db.Rebind(query), nil
}

// Exec executes a named query.
func (q *Queries) Exec(ctx context.Context, name string, args ...interface{}) (sql.Result, error) {
	query, err := q.resolve(name)
	if err != nil {
		return nil, err
	}
	return q.db.ExecContext(ctx, query, args...)
}

// Get retrieves a single row into dest struct using a named query.
func (q *Queries) Get(ctx context.Context, name string, dest interface{}, args ...interface{}) error {
	query, err := q.resolve(name)
	if err != nil {
		return err
	}
	return q.db.GetContext(ctx, dest, query, args...)
}

// Select retrieves multiple rows into dest slice using a named query.
func (q *Queries) Select(ctx context.Context, name string, dest interface{}, args ...interface{}) error {
	query, err := q.resolve(name)
	if err != nil {
		return err
	}
	return q.db.SelectContext(ctx, dest, query, args...)
}

// Ping verifies the connection is alive; the API health check uses it.
func (q *Queries) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}
