package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// Store keeps everything in process memory; nothing survives a restart.
type Store struct {
	mu     sync.RWMutex
	state  domain.HistoryState
	alerts []domain.Alert
}

func New() *Store {
	return &Store{
		state:  make(domain.HistoryState),
		alerts: make([]domain.Alert, 0, 16),
	}
}

func (m *Store) Load(ctx context.Context) (domain.HistoryState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyState(m.state), nil
}

func (m *Store) Save(ctx context.Context, state domain.HistoryState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = copyState(state)
	return nil
}

func (m *Store) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = make(domain.HistoryState)
	m.alerts = m.alerts[:0]
	return nil
}

func (m *Store) Record(ctx context.Context, a *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	cp.Sites = append([]domain.Site(nil), a.Sites...)
	m.alerts = append(m.alerts, cp)
	return nil
}

func (m *Store) Recent(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = repo.DefaultRecentAlerts
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Alert, 0, min(limit, len(m.alerts)))
	for i := len(m.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.alerts[i])
	}
	return out, nil
}

func copyState(in domain.HistoryState) domain.HistoryState {
	out := make(domain.HistoryState, len(in))
	for d, outcomes := range in {
		out[d] = append([]domain.Outcome(nil), outcomes...)
	}
	return out
}
