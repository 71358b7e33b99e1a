// Package history keeps a bounded rolling window of probe outcomes per site
// and decides which sites have failed often enough to alert.
package history

import (
	"sort"
	"sync"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Store is safe for concurrent use. Append, Reset and Restore are mutually
// exclusive over the whole store.
type Store struct {
	mu    sync.RWMutex
	rings map[string]*ring
}

func NewStore() *Store {
	return &Store{rings: make(map[string]*ring)}
}

// MaxRecords floors a configured window size at 1.
func MaxRecords(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Append adds o to the site's window and drops the oldest entries beyond
// maxRecords. The window is created on first use.
func (s *Store) Append(site string, o domain.Outcome, maxRecords int) {
	maxRecords = MaxRecords(maxRecords)
	if o.Message == "" {
		o.Message = domain.NoMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.rings[site]
	if r == nil {
		r = newRing(maxRecords)
		s.rings[site] = r
	} else if r.capacity() != maxRecords {
		r.resize(maxRecords)
	}
	r.push(o)
}

// Reset discards every site's history.
func (s *Store) Reset() {
	s.mu.Lock()
	s.rings = make(map[string]*ring)
	s.mu.Unlock()
}

// Snapshot returns a copy of the site's outcomes, oldest first. Unknown sites
// yield an empty slice.
func (s *Store) Snapshot(site string) []domain.Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.rings[site]
	if r == nil {
		return []domain.Outcome{}
	}
	return r.items()
}

// Domains returns the sites that have history, sorted.
func (s *Store) Domains() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.rings))
	for d := range s.rings {
		out = append(out, d)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// State copies the whole store into its persisted shape.
func (s *Store) State() domain.HistoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(domain.HistoryState, len(s.rings))
	for d, r := range s.rings {
		out[d] = r.items()
	}
	return out
}

// Restore replaces the store contents with state, truncating each site to the
// newest maxRecords outcomes.
func (s *Store) Restore(state domain.HistoryState, maxRecords int) {
	maxRecords = MaxRecords(maxRecords)
	rings := make(map[string]*ring, len(state))
	for d, outcomes := range state {
		if len(outcomes) == 0 {
			continue
		}
		r := newRing(maxRecords)
		for _, o := range outcomes {
			if o.Message == "" {
				o.Message = domain.NoMessage
			}
			r.push(o)
		}
		rings[d] = r
	}

	s.mu.Lock()
	s.rings = rings
	s.mu.Unlock()
}
