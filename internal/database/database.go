// Package database centralises the sqlx pool used by the SQL session
// backend.  The driver is go-sql-driver/mysql, which also speaks to
// MariaDB and TiDB.
//
// Public entry points:
//
//	Open(ctx, dsn)                       – pool with conservative sizes.
//	OpenWithOptions(ctx, dsn, open, idle) – fine-grained control.
//	EnsureSchema(ctx, db)                – creates session_kv if missing.
//
// Both openers Ping before returning so callers fail fast at bootstrap.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// SessionSchema is the DDL for the session key-value table.
const SessionSchema = `CREATE TABLE IF NOT EXISTS session_kv (
  scope      VARCHAR(255) NOT NULL,
  k          VARCHAR(64)  NOT NULL,
  v          TEXT         NOT NULL,
  updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (scope, k),
  KEY session_kv_updated (updated_at)
)`

// Open returns a pool with 10 open, 4 idle, and a 30-minute lifetime.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, 10, 4)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle.
func OpenWithOptions(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables hemo owns.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, SessionSchema); err != nil {
		return fmt.Errorf("database: session schema: %w", err)
	}
	return nil
}
