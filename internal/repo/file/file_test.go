package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.json")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	at := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	state := domain.HistoryState{
		"a.example": {
			domain.NewOutcome("a.example", false, "503 Service Unavailable", at),
			domain.NewOutcome("a.example", true, "200 OK", at.Add(time.Minute)),
		},
	}
	if err := s.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Record(ctx, &domain.Alert{ID: "x", Title: domain.AlertTitle, CreatedAt: at}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	w := got["a.example"]
	if len(w) != 2 || w[0].Succeeded || !w[1].Succeeded || !w[0].ObservedAt.Equal(at) {
		t.Fatalf("unexpected history after reopen: %+v", w)
	}
	alerts, _ := reopened.Recent(ctx, 10)
	if len(alerts) != 1 || alerts[0].ID != "x" {
		t.Fatalf("unexpected alerts after reopen: %+v", alerts)
	}
}

func TestFileStore_ClearAndEmptyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := New(path)
	if err != nil {
		t.Fatalf("empty file should open: %v", err)
	}
	_ = s.Save(ctx, domain.HistoryState{"a.example": {{Domain: "a.example"}}})
	_ = s.Record(ctx, &domain.Alert{ID: "x"})
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	st, _ := s.Load(ctx)
	al, _ := s.Recent(ctx, 0)
	if len(st) != 0 || len(al) != 0 {
		t.Fatalf("clear left data behind: %v %v", st, al)
	}
}

func TestFileStore_CorruptFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
