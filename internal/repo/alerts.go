package repo

import (
	"context"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// DefaultRecentAlerts is used when a caller asks for a non-positive limit.
const DefaultRecentAlerts = 50

// AlertLog keeps the alerts raised by past scan cycles. It is an audit
// trail only; alerting decisions never read it.
type AlertLog interface {
	Record(ctx context.Context, a *domain.Alert) error
	// Recent returns up to limit alerts, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Alert, error)
	Clear(ctx context.Context) error
}
