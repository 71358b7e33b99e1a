package probe

import (
	"context"
	"fmt"
	"time"
)

// RetryChecker repeats failed verdicts. Errors are returned at once, except
// when the context runs out after a failed verdict: that verdict is kept.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, target string) (CheckResult, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var (
		last CheckResult
		done int
	)
	for i := 0; i < attempts; i++ {
		out, err := r.Inner.Check(ctx, target)
		if err != nil {
			if done > 0 && ctx.Err() != nil {
				return annotate(last, done), nil
			}
			return out, err
		}
		last, done = out, done+1
		if last.Success {
			return last, nil
		}
		if i < attempts-1 && r.Backoff > 0 {
			select {
			case <-ctx.Done():
				return annotate(last, done), nil
			case <-time.After(r.Backoff):
			}
		}
	}
	return annotate(last, done), nil
}

// annotate marks a verdict that came out of a retry series.
func annotate(res CheckResult, attempts int) CheckResult {
	if attempts > 1 {
		res.Message = fmt.Sprintf("%s (after %d attempts)", res.Message, attempts)
	}
	return res
}
