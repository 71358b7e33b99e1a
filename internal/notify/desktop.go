package notify

import (
	"context"

	"github.com/martinlindhe/notify"
)

// Desktop shows alerts as a local desktop notification.
type Desktop struct {
	AppName string

	// show is swapped in tests.
	show func(appName, title, text, iconPath string)
}

// NewDesktop returns nil when desktop notifications are disabled.
func NewDesktop(enabled bool) *Desktop {
	if !enabled {
		return nil
	}
	return &Desktop{
		AppName: "sitewatch",
		show: func(appName, title, text, iconPath string) {
			notify.Notify(appName, title, text, iconPath)
		},
	}
}

func (d *Desktop) Send(ctx context.Context, title, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.show(d.AppName, title, text, "")
	return nil
}
