// Package notify delivers alert messages to external channels.
package notify

import (
	"context"

	"go.uber.org/multierr"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans a message out to every configured notifier. A failing channel
// does not stop delivery to the rest.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var errs error
	for _, n := range m {
		if n == nil {
			continue
		}
		errs = multierr.Append(errs, n.Send(ctx, title, text))
	}
	return errs
}

// Build collects the enabled notifiers, skipping any constructor that
// returned nil because it had no configuration.
func Build(ns ...Notifier) Multi {
	var out Multi
	for _, n := range ns {
		if isNil(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func isNil(n Notifier) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Slack:
		return v == nil
	case *Gotify:
		return v == nil
	case *Desktop:
		return v == nil
	}
	return false
}
