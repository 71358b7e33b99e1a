package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/domain"
)

// CycleRunner is the unit of work the Runner schedules.
type CycleRunner interface {
	RunCycle(ctx context.Context) (domain.CycleReport, error)
}

// Gate reports whether scheduled cycles should run at all.
type Gate interface {
	Enabled() bool
}

// Runner fires cycles on a cron schedule.
type Runner struct {
	Logger     *zap.Logger
	Cycle      CycleRunner
	Gate       Gate // optional
	RunOnStart bool

	sched cron.Schedule
	cron  *cron.Cron

	mu    sync.Mutex
	entry cron.EntryID
}

// NewRunner validates the 5-field schedule and returns a *config.ConfigurationError
// when it does not parse.
func NewRunner(logger *zap.Logger, cycle CycleRunner, gate Gate, schedule string, runOnStart bool) (*Runner, error) {
	sched, err := config.ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}
	cl := cronLogger{logger.Sugar()}
	return &Runner{
		Logger:     logger,
		Cycle:      cycle,
		Gate:       gate,
		RunOnStart: runOnStart,
		sched:      sched,
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
	}, nil
}

// Run schedules cycles and blocks until ctx is cancelled, then waits for a
// running cycle to finish.
func (r *Runner) Run(ctx context.Context) {
	r.mu.Lock()
	r.entry = r.cron.Schedule(r.sched, cron.FuncJob(func() { r.tick(ctx) }))
	r.mu.Unlock()

	if r.RunOnStart {
		r.Logger.Info("scheduler_run_on_start")
		r.tick(ctx)
	}

	r.cron.Start()
	r.Logger.Info("scheduler_started", zap.Time("next", r.Next()))

	<-ctx.Done()
	<-r.cron.Stop().Done()
	r.Logger.Info("scheduler_stopped")
}

// Next returns when the next scheduled cycle fires, zero before Run.
func (r *Runner) Next() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry == 0 {
		return time.Time{}
	}
	return r.cron.Entry(r.entry).Next
}

func (r *Runner) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if r.Gate != nil && !r.Gate.Enabled() {
		r.Logger.Info("scheduler_skip_disabled")
		return
	}
	if _, err := r.Cycle.RunCycle(ctx); err != nil {
		r.Logger.Warn("scheduler_cycle_error", zap.Error(err))
	}
}

// cronLogger routes cron's internal logging through zap.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) { l.s.Debugw("cron_"+msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw("cron_"+msg, append(kv, "error", err)...)
}
