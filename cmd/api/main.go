package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/history"
	"github.com/hamed0406/sitewatch/internal/httpapi"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/hub"
	"github.com/hamed0406/sitewatch/internal/logging"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/repo/file"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
	"github.com/hamed0406/sitewatch/internal/repo/postgres"
	"github.com/hamed0406/sitewatch/internal/repo/sqlite"
	"github.com/hamed0406/sitewatch/internal/roster"
	"github.com/hamed0406/sitewatch/internal/scheduler"
)

// store is what every storage driver provides.
type store interface {
	repo.HistoryStore
	repo.AlertLog
}

func main() {
	cfg := config.FromEnv()
	logger, rot, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// invalid settings fall back to defaults below
	if err := cfg.Validate(); err != nil {
		logger.Warn("config_invalid", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_error", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	sites, err := roster.Load(cfg.SitesFile)
	if err != nil {
		logger.Fatal("roster_load_error", zap.String("path", cfg.SitesFile), zap.Error(err))
	}

	// FAILED_THRESHOLD wins over a value saved by an earlier update
	rawThreshold := cfg.Threshold
	if rawThreshold == "" {
		rawThreshold = sites.Threshold()
	}
	thresholds, err := config.NewThresholds(rawThreshold)
	if err != nil {
		logger.Warn("threshold_invalid", zap.Int("using", thresholds.Current()), zap.Error(err))
	}

	events := hub.New(logger, cfg.AllowedOrigins)
	go events.Run(ctx)

	attemptTimeout := cfg.AttemptTimeout(probe.DNSTimeout)
	if attemptTimeout < cfg.HTTPTimeout {
		logger.Warn("http_timeout_capped",
			zap.Duration("configured", cfg.HTTPTimeout),
			zap.Duration("using", attemptTimeout),
			zap.Int("attempts", cfg.RetryAttempts),
			zap.Duration("probe_timeout", cfg.ProbeTimeout))
	}
	checker := probe.NewChain(
		probe.NewDNSChecker(),
		&probe.RetryChecker{
			Inner:    probe.NewHTTPChecker(attemptTimeout),
			Attempts: cfg.RetryAttempts,
			Backoff:  cfg.RetryBackoff,
		},
	)
	notifier := notify.Build(
		notify.NewSlack(cfg.SlackWebhook),
		notify.NewGotify(cfg.GotifyURL, cfg.GotifyToken, cfg.GotifyPriority),
		notify.NewDesktop(cfg.DesktopNotify),
	)

	hist := history.NewStore()
	cycle := scheduler.NewCycle(
		logger,
		sites,
		thresholds,
		scheduler.NewCoordinator(logger, checker, cfg.Concurrency, cfg.ProbeTimeout),
		hist,
		st,
		st,
		scheduler.NewEmitter(logger, notifier, st, events),
		scheduler.CycleOptions{RecordErrors: cfg.RecordErrors},
	)
	cycle.Events = events
	cycle.PurgeLogs = func() error { return logging.Purge(rot) }

	if cfg.CleanOnStart {
		if err := cycle.Clean(ctx); err != nil {
			logger.Warn("clean_on_start_error", zap.Error(err))
		}
	} else if err := cycle.Restore(ctx); err != nil {
		logger.Warn("history_restore_error", zap.Error(err))
	}

	runner, err := scheduler.NewRunner(logger, cycle, sites, cfg.Schedule, cfg.RunOnStart)
	if err != nil {
		logger.Warn("schedule_invalid", zap.String("using", config.DefaultSchedule), zap.Error(err))
		runner, _ = scheduler.NewRunner(logger, cycle, sites, config.DefaultSchedule, cfg.RunOnStart)
	}
	go runner.Run(ctx)

	api := httpapi.NewServer(logger, cycle, hist, sites, st, thresholds)
	api.PersistThreshold = sites.SetThreshold
	api.Stream = events.HandleConnect
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api_shutdown_error", zap.Error(err))
		}
	}()

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.StoreDriver),
		zap.String("schedule", cfg.Schedule),
		zap.Int("threshold", thresholds.Current()),
		zap.Bool("monitoring", sites.Enabled()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_error", zap.Error(err))
	}
	logger.Info("api_stopped")
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return memory.New(), func() {}, nil
	case "file":
		s, err := file.New(cfg.HistoryFile)
		return s, func() {}, err
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
