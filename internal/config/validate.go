package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"

	"github.com/hamed0406/sitewatch/internal/domain"
)

var errNotPositive = errors.New("must be an integer >= 1")

// ConfigurationError reports a setting that cannot be applied.
type ConfigurationError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ParseThreshold turns a raw FAILED_THRESHOLD value into a threshold.
// Empty means domain.DefaultThreshold.
func ParseThreshold(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.DefaultThreshold, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigurationError{Key: "FAILED_THRESHOLD", Value: raw, Err: errNotPositive}
	}
	if n < 1 {
		return 0, &ConfigurationError{Key: "FAILED_THRESHOLD", Value: raw, Err: errNotPositive}
	}
	return n, nil
}

// ParseSchedule validates a standard 5-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, &ConfigurationError{Key: "CHECK_CRON", Value: expr, Err: err}
	}
	return s, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs error
	if _, err := ParseThreshold(c.Threshold); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := ParseSchedule(c.Schedule); err != nil {
		errs = multierr.Append(errs, err)
	}
	switch c.StoreDriver {
	case "memory", "file", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = multierr.Append(errs, &ConfigurationError{Key: "DATABASE_URL", Err: errors.New("required by the postgres driver")})
		}
	default:
		errs = multierr.Append(errs, &ConfigurationError{Key: "STORE_DRIVER", Value: c.StoreDriver, Err: errors.New("unknown driver")})
	}
	return errs
}

// Thresholds holds the live failure threshold. A rejected update keeps the
// last-known-good value.
type Thresholds struct {
	mu  sync.RWMutex
	val int
	raw string
}

// NewThresholds applies raw, falling back to domain.DefaultThreshold when it
// is invalid. The parse error is returned so the caller can report it.
func NewThresholds(raw string) (*Thresholds, error) {
	t := &Thresholds{val: domain.DefaultThreshold}
	err := t.Set(raw)
	return t, err
}

func (t *Thresholds) Set(raw string) error {
	n, err := ParseThreshold(raw)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.val = n
	t.raw = strings.TrimSpace(raw)
	t.mu.Unlock()
	return nil
}

// Current returns the threshold; it doubles as the history window size.
func (t *Thresholds) Current() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.val
}

// Raw returns the last applied raw value ("" when defaulted).
func (t *Thresholds) Raw() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.raw
}
