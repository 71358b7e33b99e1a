package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/hub"
	"github.com/hamed0406/sitewatch/internal/probe"
)

// ---- shared fakes ----

// scriptChecker answers per target: "ok", "fail", "hang" (waits for ctx),
// "stuck" (ignores ctx), "err" or "panic".
type scriptChecker struct {
	mu       sync.Mutex
	script   map[string][]string
	calls    map[string]int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func newScript(s map[string][]string) *scriptChecker {
	return &scriptChecker{script: s, calls: map[string]int{}}
}

func (f *scriptChecker) next(target string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	steps := f.script[target]
	i := f.calls[target]
	f.calls[target]++
	if len(steps) == 0 {
		return "ok"
	}
	if i >= len(steps) {
		i = len(steps) - 1
	}
	return steps[i]
}

func (f *scriptChecker) Check(ctx context.Context, target string) (probe.CheckResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	switch f.next(target) {
	case "fail":
		return probe.CheckResult{Success: false, Message: "503 Service Unavailable"}, nil
	case "hang":
		<-ctx.Done()
		return probe.CheckResult{}, ctx.Err()
	case "stuck":
		time.Sleep(time.Second)
		return probe.CheckResult{Success: true}, nil
	case "err":
		return probe.CheckResult{}, errors.New("resolver exploded")
	case "panic":
		panic("boom")
	default:
		return probe.CheckResult{Success: true, StatusCode: 200, Message: "200 OK"}, nil
	}
}

type staticSites struct {
	sites []domain.Site
	err   error
}

func (s *staticSites) Monitored(ctx context.Context) ([]domain.Site, error) {
	return s.sites, s.err
}

type fixedThreshold int

func (f fixedThreshold) Current() int { return int(f) }

type memNotifier struct {
	mu     sync.Mutex
	titles []string
	bodies []string
	err    error
}

func (m *memNotifier) Send(ctx context.Context, title, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, title)
	m.bodies = append(m.bodies, text)
	return m.err
}

func (m *memNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.titles)
}

type memEvents struct {
	mu     sync.Mutex
	events []hub.Event
}

func (m *memEvents) Broadcast(evt hub.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *memEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type failingStore struct{ saves int }

func (f *failingStore) Load(ctx context.Context) (domain.HistoryState, error) { return nil, nil }
func (f *failingStore) Save(ctx context.Context, s domain.HistoryState) error {
	f.saves++
	return errors.New("disk full")
}
func (f *failingStore) Clear(ctx context.Context) error { return nil }

func sites(domains ...string) []domain.Site {
	out := make([]domain.Site, len(domains))
	for i, d := range domains {
		out[i] = domain.Site{ID: domain.SiteID(d), Domain: d, Name: d}
	}
	return out
}
