// Package db provides database connection management, named queries, and
// migration support for the report API's optional persistence layer.
//
// Supports SQLite (development) and PostgreSQL (production) via sqlx for
// connection pooling and query helpers. Migration execution handled by a
// checksum-validating runner over embedded SQL files (embed.FS).
package db

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Pool limits sized for a handful of report-api instances against
// PostgreSQL's default 100-connection cap.
const (
	poolMaxOpen  = 16
	poolMaxIdle  = 4
	poolIdleTime = 5 * time.Minute
	poolLifetime = 30 * time.Minute
)

// resolveDSN maps a database URL onto a registered driver and its data
// source string. Two schemes are recognized: sqlite:// and postgres://.
func resolveDSN(dbURL string) (driver, dsn string, err error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid database URL: %w", err)
	}

	switch u.Scheme {
	case "sqlite":
		// sqlite://file.db carries the path in host+path (relative),
		// sqlite:///absolute/path in path only (empty host)
		return "sqlite3", u.Host + u.Path, nil
	case "postgres":
		// lib/pq takes the URL whole
		return "postgres", dbURL, nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme: %s (expected sqlite or postgres)", u.Scheme)
	}
}

// Open connects to the database named by a URL, applies the pool limits,
// and verifies the connection with a ping.
func Open(dbURL string) (*sqlx.DB, error) {
	driver, dsn, err := resolveDSN(dbURL)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(poolMaxOpen)
	conn.SetMaxIdleConns(poolMaxIdle)
	conn.SetConnMaxIdleTime(poolIdleTime)
	conn.SetConnMaxLifetime(poolLifetime)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}
