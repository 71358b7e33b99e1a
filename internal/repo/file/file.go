// Package file persists history and alerts as one JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// maxAlerts caps the alert log kept in the document.
const maxAlerts = 500

type document struct {
	History domain.HistoryState `json:"history"`
	Alerts  []domain.Alert      `json:"alerts"`
}

type Store struct {
	mu   sync.Mutex
	path string
	doc  document
}

// New opens the store at path, creating its directory. A missing or empty
// file starts an empty store.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Load(ctx context.Context) (domain.HistoryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(domain.HistoryState, len(s.doc.History))
	for d, outcomes := range s.doc.History {
		out[d] = append([]domain.Outcome(nil), outcomes...)
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, state domain.HistoryState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.History
	s.doc.History = state
	if err := s.persist(); err != nil {
		s.doc.History = prev
		return err
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = document{History: domain.HistoryState{}}
	return s.persist()
}

func (s *Store) Record(ctx context.Context, a *domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Alerts = append(s.doc.Alerts, *a)
	if n := len(s.doc.Alerts); n > maxAlerts {
		s.doc.Alerts = s.doc.Alerts[n-maxAlerts:]
	}
	return s.persist()
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = repo.DefaultRecentAlerts
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Alert
	for i := len(s.doc.Alerts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.doc.Alerts[i])
	}
	return out, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = document{History: domain.HistoryState{}}
			return nil
		}
		return fmt.Errorf("read history: %w", err)
	}

	if len(data) == 0 {
		s.doc = document{History: domain.HistoryState{}}
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}
	if doc.History == nil {
		doc.History = domain.HistoryState{}
	}
	s.doc = doc
	return nil
}

// persist writes through a temp file and rename so readers never see a
// partial document.
func (s *Store) persist() error {
	bytes, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
