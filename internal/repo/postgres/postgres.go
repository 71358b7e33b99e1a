package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

var _ repo.HistoryStore = (*Store)(nil)
var _ repo.AlertLog = (*Store)(nil)

// Schema is applied by Migrate; statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS probe_history (
  domain      TEXT        NOT NULL,
  seq         INTEGER     NOT NULL,
  succeeded   BOOLEAN     NOT NULL,
  observed_at TIMESTAMPTZ NOT NULL,
  message     TEXT        NOT NULL,
  PRIMARY KEY (domain, seq)
);

CREATE TABLE IF NOT EXISTS alerts (
  id         TEXT PRIMARY KEY,
  cycle_id   TEXT        NOT NULL,
  title      TEXT        NOT NULL,
  body       TEXT        NOT NULL,
  threshold  INTEGER     NOT NULL,
  sites      JSONB       NOT NULL DEFAULT '[]',
  created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts (created_at DESC);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ---- HistoryStore ----

func (s *Store) Load(ctx context.Context) (domain.HistoryState, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT domain, succeeded, observed_at, message
		   FROM probe_history
		  ORDER BY domain, seq`)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	out := make(domain.HistoryState)
	for rows.Next() {
		var o domain.Outcome
		if err := rows.Scan(&o.Domain, &o.Succeeded, &o.ObservedAt, &o.Message); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out[o.Domain] = append(out[o.Domain], o)
	}
	return out, rows.Err()
}

// Save replaces the table contents inside one transaction.
func (s *Store) Save(ctx context.Context, state domain.HistoryState) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM probe_history`); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}

	var rows [][]any
	for d, outcomes := range state {
		for i, o := range outcomes {
			rows = append(rows, []any{d, i, o.Succeeded, o.ObservedAt, o.Message})
		}
	}
	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"probe_history"},
			[]string{"domain", "seq", "succeeded", "observed_at", "message"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy history: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	s.log.Debug("history_saved", zap.Int("rows", len(rows)))
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE probe_history, alerts`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}
