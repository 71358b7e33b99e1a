package scheduler

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/hub"
)

func TestEmitter_NothingFailingSendsNothing(t *testing.T) {
	n := &memNotifier{}
	ev := &memEvents{}
	a, err := NewEmitter(zap.NewNop(), n, nil, ev).Emit(context.Background(), "c1", 3, nil)
	if a != nil || err != nil {
		t.Fatalf("want nil alert, got %+v %v", a, err)
	}
	if n.count() != 0 || len(ev.types()) != 0 {
		t.Fatal("clean cycle must not notify")
	}
}

func TestEmitter_SingleAlertForAllSites(t *testing.T) {
	n := &memNotifier{}
	ev := &memEvents{}
	failing := []domain.Site{
		{ID: "1", Domain: "a.example", Name: "Alpha"},
		{ID: "2", Domain: "b.example"},
	}
	a, err := NewEmitter(zap.NewNop(), n, nil, ev).Emit(context.Background(), "c1", 3, failing)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	want := "Sites with at least 3 failed checks in their recent history:\n- Alpha (a.example)\n- b.example (b.example)"
	if a.Body != want || n.count() != 1 || n.bodies[0] != want {
		t.Fatalf("unexpected body:\n%s", a.Body)
	}
	if a.ID == "" || a.CycleID != "c1" || a.Threshold != 3 || a.Title != domain.AlertTitle {
		t.Fatalf("unexpected alert: %+v", a)
	}
	if ts := ev.types(); len(ts) != 1 || ts[0] != hub.EventAlertRaised {
		t.Fatalf("unexpected events: %v", ts)
	}

	// the alert owns its site slice
	failing[0].Domain = "changed.example"
	if a.Sites[0].Domain != "a.example" {
		t.Fatal("alert should copy the failing set")
	}
}
