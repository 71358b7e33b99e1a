package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/probe"
)

// ErrProbeTimeout is recorded for a site whose probe missed its deadline.
var ErrProbeTimeout = errors.New("probe timed out")

// maxGrace bounds how long a checker may take to report after its deadline.
const maxGrace = 250 * time.Millisecond

// ScanResult holds either a verdict or the error that prevented one.
type ScanResult struct {
	Domain  string
	Outcome *domain.Outcome
	Err     error
}

// Coordinator probes a batch of domains with a bounded worker pool.
type Coordinator struct {
	Logger      *zap.Logger
	Checker     probe.Checker
	Concurrency int
	Timeout     time.Duration

	now func() time.Time
}

func NewCoordinator(logger *zap.Logger, checker probe.Checker, concurrency int, timeout time.Duration) *Coordinator {
	if concurrency < 1 {
		concurrency = config.DefaultConcurrency
	}
	if timeout <= 0 {
		timeout = config.DefaultProbeTimeout
	}
	return &Coordinator{
		Logger:      logger,
		Checker:     checker,
		Concurrency: concurrency,
		Timeout:     timeout,
		now:         time.Now,
	}
}

// Run probes every domain and returns one result per input, in input order.
// It returns once every probe has finished or hit its deadline. A failing
// probe never affects its siblings.
func (c *Coordinator) Run(ctx context.Context, domains []string) []ScanResult {
	results := make([]ScanResult, len(domains))
	if len(domains) == 0 {
		return results
	}

	sem := make(chan struct{}, c.Concurrency)
	var wg sync.WaitGroup

	for i, d := range domains {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = ScanResult{Domain: d, Err: ctx.Err()}
			continue
		}
		wg.Add(1)
		i, d := i, d
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			results[i] = c.probeOne(ctx, d)
		}()
	}

	wg.Wait()
	return results
}

func (c *Coordinator) grace() time.Duration {
	if g := c.Timeout / 4; g < maxGrace {
		return g
	}
	return maxGrace
}

type verdict struct {
	res probe.CheckResult
	err error
}

func (c *Coordinator) probeOne(ctx context.Context, d string) ScanResult {
	pctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	// buffered so a probe that outlives its deadline can still finish
	ch := make(chan verdict, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- verdict{err: fmt.Errorf("probe panic: %v", r)}
			}
		}()
		res, err := c.Checker.Check(pctx, d)
		ch <- verdict{res: res, err: err}
	}()

	var v verdict
	select {
	case v = <-ch:
	case <-pctx.Done():
		// a checker that honours ctx may still hand back a verdict it had
		grace := time.NewTimer(c.grace())
		select {
		case v = <-ch:
		case <-ctx.Done():
			v.err = ctx.Err()
		case <-grace.C:
			v.err = pctx.Err()
		}
		grace.Stop()
	}

	if v.err != nil {
		if errors.Is(v.err, context.DeadlineExceeded) && ctx.Err() == nil {
			v.err = ErrProbeTimeout
		}
		c.Logger.Warn("probe_error", zap.String("domain", d), zap.Error(v.err))
		return ScanResult{Domain: d, Err: v.err}
	}

	o := domain.NewOutcome(d, v.res.Success, v.res.Message, c.now())
	c.Logger.Debug("probe_checked",
		zap.String("domain", d),
		zap.Bool("up", v.res.Success),
		zap.Int("status", v.res.StatusCode),
		zap.Float64("latency_ms", v.res.LatencyMS),
		zap.String("reason", o.Message),
	)
	return ScanResult{Domain: d, Outcome: &o}
}
