package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

func (s *Store) Record(ctx context.Context, a *domain.Alert) error {
	sites, err := json.Marshal(a.Sites)
	if err != nil {
		return fmt.Errorf("encode alert sites: %w", err)
	}
	const q = `
		INSERT INTO alerts (id, cycle_id, title, body, threshold, sites, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, q, a.ID, a.CycleID, a.Title, a.Body, a.Threshold, sites, a.CreatedAt); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = repo.DefaultRecentAlerts
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, cycle_id, title, body, threshold, sites, created_at
		   FROM alerts
		  ORDER BY created_at DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		var (
			a     domain.Alert
			sites []byte
		)
		if err := rows.Scan(&a.ID, &a.CycleID, &a.Title, &a.Body, &a.Threshold, &sites, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if err := json.Unmarshal(sites, &a.Sites); err != nil {
			return nil, fmt.Errorf("decode alert sites: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
