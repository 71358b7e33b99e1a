package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/hub"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// Broadcaster publishes events to live subscribers.
type Broadcaster interface {
	Broadcast(evt hub.Event)
}

// Emitter turns the failing set of one cycle into a single alert.
type Emitter struct {
	Logger   *zap.Logger
	Notifier notify.Notifier
	Alerts   repo.AlertLog // optional
	Events   Broadcaster   // optional

	now func() time.Time
}

func NewEmitter(logger *zap.Logger, n notify.Notifier, alerts repo.AlertLog, events Broadcaster) *Emitter {
	return &Emitter{Logger: logger, Notifier: n, Alerts: alerts, Events: events, now: time.Now}
}

// Emit sends one alert listing every failing site, or nothing when the set
// is empty. Delivery and logging errors are returned alongside the alert.
func (e *Emitter) Emit(ctx context.Context, cycleID string, threshold int, failing []domain.Site) (*domain.Alert, error) {
	if len(failing) == 0 {
		e.Logger.Info("cycle_clean", zap.String("cycle_id", cycleID))
		return nil, nil
	}

	a := &domain.Alert{
		ID:        uuid.NewString(),
		CycleID:   cycleID,
		Title:     domain.AlertTitle,
		Body:      alertBody(threshold, failing),
		Threshold: threshold,
		Sites:     append([]domain.Site(nil), failing...),
		CreatedAt: e.now().UTC(),
	}

	var errs error
	if e.Notifier != nil {
		if err := e.Notifier.Send(ctx, a.Title, a.Body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("deliver alert: %w", err))
		}
	}
	if e.Alerts != nil {
		if err := e.Alerts.Record(ctx, a); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("record alert: %w", err))
		}
	}
	if e.Events != nil {
		e.Events.Broadcast(hub.Event{Type: hub.EventAlertRaised, CycleID: cycleID, Payload: a})
	}

	e.Logger.Info("alert_emitted",
		zap.String("cycle_id", cycleID),
		zap.String("alert_id", a.ID),
		zap.Int("threshold", threshold),
		zap.Strings("domains", a.Domains()),
		zap.Error(errs),
	)
	return a, errs
}

func alertBody(threshold int, failing []domain.Site) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sites with at least %d failed checks in their recent history:", threshold)
	for _, s := range failing {
		fmt.Fprintf(&b, "\n- %s (%s)", s.DisplayName(), s.Domain)
	}
	return b.String()
}
