// Package probe implements single connectivity checks against a site.
package probe

import (
	"context"
	"strings"
)

// CheckResult is the verdict of a single probe.
//
// Fields:
//   - StatusCode: HTTP status code when available; 0 for transport/DNS errors.
//   - Name: label of the checker that produced the verdict ("HTTP", "DNS").
type CheckResult struct {
	Success    bool
	LatencyMS  float64
	Message    string
	StatusCode int
	Name       string
}

// Checker performs a single check for a given site.
//
// A failed verdict (non-2xx/3xx, refused connection, NXDOMAIN) is reported in
// the CheckResult with a nil error. The error is reserved for checks that
// could not produce a verdict at all, such as a cancelled context or an
// unusable target.
type Checker interface {
	Check(ctx context.Context, target string) (CheckResult, error)
}

// TargetURL turns a bare domain into an https URL; full URLs pass through.
func TargetURL(target string) string {
	target = strings.TrimSpace(target)
	if strings.Contains(target, "://") {
		return target
	}
	return "https://" + target
}
