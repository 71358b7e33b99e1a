package probe

import (
	"context"
	"errors"
)

var errNoCheckers = errors.New("probe: no checkers configured")

// Chain runs checkers in order and stops at the first failed verdict or
// error. A site passes only when every checker passes.
type Chain struct {
	Checkers []Checker
}

func NewChain(checkers ...Checker) *Chain {
	return &Chain{Checkers: checkers}
}

func (c *Chain) Check(ctx context.Context, target string) (CheckResult, error) {
	if len(c.Checkers) == 0 {
		return CheckResult{}, errNoCheckers
	}
	var last CheckResult
	for _, chk := range c.Checkers {
		out, err := chk.Check(ctx, target)
		if err != nil || !out.Success {
			return out, err
		}
		last = out
	}
	return last, nil
}
