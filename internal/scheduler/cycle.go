package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/history"
	"github.com/hamed0406/sitewatch/internal/hub"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// SiteSource lists the sites to probe this cycle.
type SiteSource interface {
	Monitored(ctx context.Context) ([]domain.Site, error)
}

// ThresholdSource supplies the failure threshold in effect.
type ThresholdSource interface {
	Current() int
}

type CycleOptions struct {
	// RecordErrors stores a probe error as a failed outcome instead of
	// leaving the site's history untouched.
	RecordErrors bool
}

// Cycle runs one probe/record/evaluate/alert pass at a time.
type Cycle struct {
	Logger      *zap.Logger
	Sites       SiteSource
	Thresholds  ThresholdSource
	Coordinator *Coordinator
	History     *history.Store
	Store       repo.HistoryStore // optional
	Alerts      repo.AlertLog     // optional
	Emitter     *Emitter
	Events      Broadcaster  // optional
	PurgeLogs   func() error // optional
	Options     CycleOptions

	mu  sync.Mutex
	now func() time.Time
}

func NewCycle(
	logger *zap.Logger,
	sites SiteSource,
	thresholds ThresholdSource,
	coord *Coordinator,
	hist *history.Store,
	store repo.HistoryStore,
	alerts repo.AlertLog,
	emitter *Emitter,
	opts CycleOptions,
) *Cycle {
	return &Cycle{
		Logger:      logger,
		Sites:       sites,
		Thresholds:  thresholds,
		Coordinator: coord,
		History:     hist,
		Store:       store,
		Alerts:      alerts,
		Emitter:     emitter,
		Options:     opts,
		now:         time.Now,
	}
}

// Restore loads persisted history into the in-memory store.
func (c *Cycle) Restore(ctx context.Context) error {
	if c.Store == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	c.History.Restore(state, c.threshold())
	c.Logger.Info("history_restored", zap.Int("sites", len(state)))
	return nil
}

func (c *Cycle) threshold() int {
	if c.Thresholds == nil {
		return domain.DefaultThreshold
	}
	return history.MaxRecords(c.Thresholds.Current())
}

// RunCycle probes every monitored site, records verdicts, and raises at most
// one alert. Only a failure to list sites aborts the cycle; persistence and
// delivery errors are reported but the cycle completes.
func (c *Cycle) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	threshold := c.threshold()
	rep := domain.CycleReport{
		ID:        uuid.NewString(),
		StartedAt: c.now().UTC(),
		Threshold: threshold,
	}
	log := c.Logger.With(zap.String("cycle_id", rep.ID))

	sites, err := c.Sites.Monitored(ctx)
	if err != nil {
		log.Warn("cycle_sites_error", zap.Error(err))
		return rep, fmt.Errorf("list monitored sites: %w", err)
	}
	log.Info("cycle_started", zap.Int("sites", len(sites)), zap.Int("threshold", threshold))

	domains := make([]string, len(sites))
	for i, s := range sites {
		domains[i] = s.Domain
	}
	results := c.Coordinator.Run(ctx, domains)
	rep.Probed = len(results)

	// input order keeps append order deterministic
	for _, r := range results {
		switch {
		case r.Outcome != nil:
			c.History.Append(r.Domain, *r.Outcome, threshold)
		case r.Err != nil:
			rep.ProbeErrors++
			if c.Options.RecordErrors {
				c.History.Append(r.Domain, domain.NewOutcome(r.Domain, false, r.Err.Error(), c.now()), threshold)
			}
		}
	}

	var errs error
	if c.Store != nil {
		if err := c.Store.Save(ctx, c.History.State()); err != nil {
			rep.StoreErr = err.Error()
			errs = multierr.Append(errs, fmt.Errorf("save history: %w", err))
			log.Warn("history_save_error", zap.Error(err))
		}
	}

	failing := history.FailingSites(c.History, threshold, sites)
	for _, s := range failing {
		rep.Failing = append(rep.Failing, s.Domain)
	}
	if c.Emitter != nil {
		alert, err := c.Emitter.Emit(ctx, rep.ID, threshold, failing)
		rep.Alert = alert
		errs = multierr.Append(errs, err)
	}

	rep.FinishedAt = c.now().UTC()
	if c.Events != nil {
		c.Events.Broadcast(hub.Event{Type: hub.EventCycleFinished, CycleID: rep.ID, Payload: rep})
	}
	log.Info("cycle_finished",
		zap.Int("probed", rep.Probed),
		zap.Int("probe_errors", rep.ProbeErrors),
		zap.Strings("failing", rep.Failing),
		zap.Duration("took", rep.FinishedAt.Sub(rep.StartedAt)),
	)
	return rep, errs
}

// Clean discards all history and alerts, in memory and in storage, and
// starts a fresh log file.
func (c *Cycle) Clean(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.History.Reset()

	var errs error
	if c.Store != nil {
		errs = multierr.Append(errs, c.Store.Clear(ctx))
	}
	// skip when both point at the same store
	if c.Alerts != nil && !sameStore(c.Store, c.Alerts) {
		errs = multierr.Append(errs, c.Alerts.Clear(ctx))
	}
	if c.PurgeLogs != nil {
		errs = multierr.Append(errs, c.PurgeLogs())
	}
	c.Logger.Info("history_cleaned", zap.Error(errs))
	return errs
}

func sameStore(h repo.HistoryStore, a repo.AlertLog) bool {
	if h == nil {
		return false
	}
	ha, ok := h.(repo.AlertLog)
	return ok && ha == a
}
