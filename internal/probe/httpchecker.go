package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) (CheckResult, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, TargetURL(target), nil)
	if err != nil {
		return CheckResult{Name: "HTTP"}, fmt.Errorf("build request: %w", err)
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		// the caller gave up on us; that is not a verdict about the site
		if ctx.Err() != nil {
			return CheckResult{Name: "HTTP", LatencyMS: latency}, ctx.Err()
		}
		return CheckResult{Name: "HTTP", Success: false, Message: err.Error(), LatencyMS: latency}, nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	success := resp.StatusCode >= 200 && resp.StatusCode < 400
	return CheckResult{
		Name:       "HTTP",
		Success:    success,
		Message:    resp.Status,
		StatusCode: resp.StatusCode,
		LatencyMS:  latency,
	}, nil
}
