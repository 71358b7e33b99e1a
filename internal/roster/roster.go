// Package roster keeps the set of sites the monitor watches. Sites come from
// a registry plus optional user-defined custom sites; a separate id list
// selects which of them are monitored.
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Entry is one selectable site as written in the roster file.
type Entry struct {
	ID     domain.SiteID `yaml:"id"`
	Domain string        `yaml:"domain"`
	Name   string        `yaml:"name,omitempty"`
	Active *bool         `yaml:"active,omitempty"` // nil means active
}

func (e Entry) active() bool { return e.Active == nil || *e.Active }

func (e Entry) site() domain.Site {
	return domain.Site{ID: e.ID, Domain: e.Domain, Name: e.Name}
}

type CustomSites struct {
	Enabled bool    `yaml:"enabled"`
	Sites   []Entry `yaml:"sites"`
}

// File is the on-disk roster document.
type File struct {
	Sites       []Entry         `yaml:"sites"`
	CustomSites CustomSites     `yaml:"custom_sites"`
	Monitored   []domain.SiteID `yaml:"monitored"`
	// Threshold is the last alert threshold set at runtime, kept in its raw
	// form. Empty means none was set.
	Threshold string `yaml:"threshold,omitempty"`
}

type Roster struct {
	mu   sync.RWMutex
	path string
	file File
}

// Load reads the roster at path. A missing file yields an empty roster that
// will be created on the first Save. Monitored ids that no longer name a
// selectable site are dropped.
func Load(path string) (*Roster, error) {
	r := &Roster{path: path}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("read roster: %w", err)
	}
	if err := yaml.Unmarshal(b, &r.file); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	r.prune()
	return r, nil
}

// New builds an in-memory roster. Save is a no-op when path is empty.
func New(path string, f File) *Roster {
	r := &Roster{path: path, file: f}
	r.prune()
	return r
}

func (r *Roster) prune() {
	known := make(map[domain.SiteID]bool)
	for _, s := range r.options() {
		known[s.ID] = true
	}
	kept := make([]domain.SiteID, 0, len(r.file.Monitored))
	seen := make(map[domain.SiteID]bool)
	for _, id := range r.file.Monitored {
		if known[id] && !seen[id] {
			seen[id] = true
			kept = append(kept, id)
		}
	}
	r.file.Monitored = kept
}

// options lists active registry sites followed by custom sites.
func (r *Roster) options() []domain.Site {
	var out []domain.Site
	for _, e := range r.file.Sites {
		if e.active() && e.Domain != "" {
			out = append(out, e.site())
		}
	}
	if r.file.CustomSites.Enabled {
		for _, e := range r.file.CustomSites.Sites {
			if e.Domain != "" {
				out = append(out, e.site())
			}
		}
	}
	return out
}

// Options returns every site that can be selected for monitoring.
func (r *Roster) Options() []domain.Site {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.options()
}

// Monitored returns the selected sites in registry-then-custom order with
// duplicate domains removed.
func (r *Roster) Monitored(ctx context.Context) ([]domain.Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	selected := make(map[domain.SiteID]bool, len(r.file.Monitored))
	for _, id := range r.file.Monitored {
		selected[id] = true
	}
	var out []domain.Site
	seen := make(map[string]bool)
	for _, s := range r.options() {
		if !selected[s.ID] || seen[s.Domain] {
			continue
		}
		seen[s.Domain] = true
		out = append(out, s)
	}
	return out, nil
}

// Enabled reports whether any site is selected.
func (r *Roster) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.file.Monitored) > 0
}

// Remove drops id from the monitored set and persists the roster. It
// reports whether the id was monitored. History kept for the site is left
// alone.
func (r *Roster) Remove(ctx context.Context, id domain.SiteID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]domain.SiteID, 0, len(r.file.Monitored))
	removed := false
	for _, m := range r.file.Monitored {
		if m == id {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	if !removed {
		return false, nil
	}
	prev := r.file.Monitored
	r.file.Monitored = kept
	if err := r.save(); err != nil {
		r.file.Monitored = prev
		return false, err
	}
	return true, nil
}

// Threshold returns the persisted raw threshold, or "" when none was set.
func (r *Roster) Threshold() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.file.Threshold
}

// SetThreshold records raw in the roster file. On a write failure the
// previous value is kept.
func (r *Roster) SetThreshold(raw string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.file.Threshold
	r.file.Threshold = raw
	if err := r.save(); err != nil {
		r.file.Threshold = prev
		return err
	}
	return nil
}

// Save writes the roster back to its file.
func (r *Roster) Save() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.save()
}

func (r *Roster) save() error {
	if r.path == "" {
		return nil
	}
	b, err := yaml.Marshal(&r.file)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("ensure roster dir: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace roster: %w", err)
	}
	return nil
}
