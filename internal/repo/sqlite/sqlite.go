// Package sqlite stores history and alerts in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

const schema = `
CREATE TABLE IF NOT EXISTS probe_history (
	domain TEXT NOT NULL,
	seq INTEGER NOT NULL,
	succeeded INTEGER NOT NULL,
	observed_at TEXT NOT NULL,
	message TEXT NOT NULL,
	PRIMARY KEY (domain, seq)
);

CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	cycle_id TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	threshold INTEGER NOT NULL,
	sites TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL
);
`

// tsLayout is fixed width so TEXT ordering matches time ordering.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("error open db: %w", err)
	}
	// one writer at a time keeps sqlite from returning SQLITE_BUSY under load
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error ping db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Load(ctx context.Context) (domain.HistoryState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain, succeeded, observed_at, message FROM probe_history ORDER BY domain, seq`)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	out := make(domain.HistoryState)
	for rows.Next() {
		var (
			o  domain.Outcome
			at string
		)
		if err := rows.Scan(&o.Domain, &o.Succeeded, &at, &o.Message); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if o.ObservedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse observed_at %q: %w", at, err)
		}
		out[o.Domain] = append(out[o.Domain], o)
	}
	return out, rows.Err()
}

func (s *Store) Save(ctx context.Context, state domain.HistoryState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM probe_history`); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO probe_history (domain, seq, succeeded, observed_at, message) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for d, outcomes := range state {
		for i, o := range outcomes {
			if _, err := stmt.ExecContext(ctx, d, i, o.Succeeded, o.ObservedAt.UTC().Format(tsLayout), o.Message); err != nil {
				return fmt.Errorf("insert history %s: %w", d, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM probe_history; DELETE FROM alerts;`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func (s *Store) Record(ctx context.Context, a *domain.Alert) error {
	sites, err := json.Marshal(a.Sites)
	if err != nil {
		return fmt.Errorf("encode alert sites: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO alerts (id, cycle_id, title, body, threshold, sites, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CycleID, a.Title, a.Body, a.Threshold, string(sites), a.CreatedAt.UTC().Format(tsLayout))
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = repo.DefaultRecentAlerts
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cycle_id, title, body, threshold, sites, created_at
		   FROM alerts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		var (
			a         domain.Alert
			sites, at string
		)
		if err := rows.Scan(&a.ID, &a.CycleID, &a.Title, &a.Body, &a.Threshold, &sites, &at); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if err := json.Unmarshal([]byte(sites), &a.Sites); err != nil {
			return nil, fmt.Errorf("decode alert sites: %w", err)
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", at, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
