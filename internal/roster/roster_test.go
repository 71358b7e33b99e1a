package roster

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hamed0406/sitewatch/internal/domain"
)

const sample = `
sites:
  - id: "1"
    domain: a.example
    name: Alpha
  - id: "2"
    domain: b.example
    name: Beta
    active: false
  - id: "3"
    domain: c.example
    name: Gamma
custom_sites:
  enabled: true
  sites:
    - id: c1
      domain: custom.example
      name: Custom
    - id: c2
      domain: a.example
      name: Alpha again
monitored: ["c1", "3", "2", "1", "c2", "gone"]
`

func writeRoster(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sites.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func domains(sites []domain.Site) []string {
	out := make([]string, len(sites))
	for i, s := range sites {
		out[i] = s.Domain
	}
	return out
}

func TestLoad_MonitoredOrderAndFiltering(t *testing.T) {
	r, err := Load(writeRoster(t, sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := r.Monitored(context.Background())
	if err != nil {
		t.Fatalf("Monitored: %v", err)
	}
	// inactive "2" and unknown "gone" are dropped; c2 duplicates a.example
	want := []string{"a.example", "c.example", "custom.example"}
	if g := domains(got); len(g) != len(want) || g[0] != want[0] || g[1] != want[1] || g[2] != want[2] {
		t.Fatalf("want %v, got %v", want, g)
	}
	if len(r.Options()) != 4 {
		t.Fatalf("want 4 options, got %d", len(r.Options()))
	}
}

func TestLoad_CustomSitesDisabled(t *testing.T) {
	r := New("", File{
		Sites:       []Entry{{ID: "1", Domain: "a.example"}},
		CustomSites: CustomSites{Enabled: false, Sites: []Entry{{ID: "c1", Domain: "x.example"}}},
		Monitored:   []domain.SiteID{"1", "c1"},
	})
	got, _ := r.Monitored(context.Background())
	if len(got) != 1 || got[0].Domain != "a.example" {
		t.Fatalf("custom sites must be ignored when disabled: %v", got)
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Enabled() {
		t.Fatal("empty roster should be disabled")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeRoster(t, "sites: [::")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRemove_PersistsAndDisablesWhenEmpty(t *testing.T) {
	ctx := context.Background()
	p := writeRoster(t, `
sites:
  - {id: "1", domain: a.example}
  - {id: "2", domain: b.example}
monitored: ["1", "2"]
`)
	r, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ok, err := r.Remove(ctx, "1")
	if err != nil || !ok {
		t.Fatalf("Remove: ok=%v err=%v", ok, err)
	}
	if ok, _ := r.Remove(ctx, "1"); ok {
		t.Fatal("second removal should be a no-op")
	}

	reloaded, err := Load(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, _ := reloaded.Monitored(ctx)
	if len(got) != 1 || got[0].Domain != "b.example" {
		t.Fatalf("removal not persisted: %v", got)
	}

	if _, err := r.Remove(ctx, "2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if r.Enabled() {
		t.Fatal("roster should be disabled once nothing is monitored")
	}
}

func TestNew_LeavesCallerSliceAlone(t *testing.T) {
	in := File{
		Sites:     []Entry{{ID: "1", Domain: "a.example"}, {ID: "2", Domain: "b.example"}},
		Monitored: []domain.SiteID{"gone", "2", "2", "1"},
	}
	r := New("", in)
	want := []domain.SiteID{"gone", "2", "2", "1"}
	for i, id := range want {
		if in.Monitored[i] != id {
			t.Fatalf("caller slice modified: %v", in.Monitored)
		}
	}
	got, _ := r.Monitored(context.Background())
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("pruned view: %v", got)
	}
}

// unwritablePath returns a roster path whose parent is a regular file.
func unwritablePath(t *testing.T) string {
	t.Helper()
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(blocker, "sites.yaml")
}

func TestRemove_SaveFailureKeepsSite(t *testing.T) {
	ctx := context.Background()
	r := New(unwritablePath(t), File{
		Sites:     []Entry{{ID: "1", Domain: "a.example"}, {ID: "2", Domain: "b.example"}},
		Monitored: []domain.SiteID{"1", "2"},
	})

	ok, err := r.Remove(ctx, "1")
	if err == nil || ok {
		t.Fatalf("want save error, got ok=%v err=%v", ok, err)
	}
	got, _ := r.Monitored(ctx)
	if len(got) != 2 || got[0].ID != "1" {
		t.Fatalf("memory diverged from disk after failed save: %v", got)
	}
}

func TestSetThreshold_PersistsAcrossLoad(t *testing.T) {
	p := writeRoster(t, sample)
	r, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Threshold() != "" {
		t.Fatalf("unset threshold should be empty, got %q", r.Threshold())
	}
	if err := r.SetThreshold("4"); err != nil {
		t.Fatalf("SetThreshold: %v", err)
	}
	reloaded, err := Load(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Threshold() != "4" {
		t.Fatalf("threshold not persisted: %q", reloaded.Threshold())
	}
	got, _ := reloaded.Monitored(context.Background())
	if len(got) == 0 {
		t.Fatal("monitored list lost on threshold write")
	}
}

func TestSetThreshold_SaveFailureKeepsPrevious(t *testing.T) {
	r := New(unwritablePath(t), File{Threshold: "2"})
	if err := r.SetThreshold("9"); err == nil {
		t.Fatal("want save error")
	}
	if r.Threshold() != "2" {
		t.Fatalf("threshold changed despite failed save: %q", r.Threshold())
	}
}
