package repo

import (
	"context"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Ports (interfaces); each adapter package implements both.

// HistoryStore persists the probe history between restarts. Save replaces
// the stored state as a whole.
type HistoryStore interface {
	Load(ctx context.Context) (domain.HistoryState, error)
	Save(ctx context.Context, state domain.HistoryState) error
	Clear(ctx context.Context) error
}
