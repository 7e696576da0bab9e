// internal/session/sql.go
//
// SQL-backed Store over sqlx.  Schema (MySQL / MariaDB):
//
//	CREATE TABLE session_kv (
//	  scope      VARCHAR(255) NOT NULL,
//	  k          VARCHAR(64)  NOT NULL,
//	  v          TEXT         NOT NULL,
//	  updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	  PRIMARY KEY (scope, k),
//	  KEY session_kv_updated (updated_at)
//	);
//
// Each statement touches one row, which the primary key makes atomic.
// PruneSQL deletes rows not written since a cutoff.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	sqlGet    = `SELECT v FROM session_kv WHERE scope = ? AND k = ?`
	sqlSet    = `INSERT INTO session_kv (scope, k, v) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = CURRENT_TIMESTAMP`
	sqlRemove = `DELETE FROM session_kv WHERE scope = ? AND k = ?`
	sqlPrune  = `DELETE FROM session_kv WHERE updated_at < ?`
)

// SQL stores one scope's keys as rows of session_kv.
type SQL struct {
	db    *sqlx.DB
	scope string
}

func NewSQL(db *sqlx.DB, scope string) *SQL { return &SQL{db: db, scope: scope} }

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.GetContext(ctx, &v, sqlGet, s.scope, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session: sql get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, sqlSet, s.scope, key, value); err != nil {
		return fmt.Errorf("session: sql set %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, sqlRemove, s.scope, key); err != nil {
		return fmt.Errorf("session: sql remove %s: %w", key, err)
	}
	return nil
}

// PruneSQL deletes every row last written before cutoff and reports how
// many went.
func PruneSQL(ctx context.Context, db *sqlx.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, sqlPrune, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: sql prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
