// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/history"
	"github.com/hamed0406/sitewatch/internal/roster"
)

func main() {
	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()

	if err := cfg.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			fail(e.Error())
		}
	} else {
		th, _ := config.ParseThreshold(cfg.Threshold)
		ok(fmt.Sprintf("FAILED_THRESHOLD=%d (keeping %d outcomes per site)", th, history.MaxRecords(th)))
		ok("CHECK_CRON=" + cfg.Schedule)
		ok("STORE_DRIVER=" + cfg.StoreDriver)
	}

	sites, err := roster.Load(cfg.SitesFile)
	switch {
	case err != nil:
		fail("SITES_FILE: " + err.Error())
	case !sites.Enabled():
		warn("no site selected in " + cfg.SitesFile + "; scheduled scans will be skipped")
	default:
		ok(fmt.Sprintf("%d selectable site(s) in %s", len(sites.Options()), cfg.SitesFile))
	}

	if len(cfg.AdminAPIKeys) == 0 {
		warn("ADMIN_API_KEYS is empty (admin routes are open).")
	}
	if len(cfg.PublicAPIKeys) == 0 {
		warn("PUBLIC_API_KEYS is empty (read routes are open).")
	}
	for name, v := range map[string]string{"ADMIN_API_KEYS": os.Getenv("ADMIN_API_KEYS"), "PUBLIC_API_KEYS": os.Getenv("PUBLIC_API_KEYS")} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if cfg.SlackWebhook == "" && (cfg.GotifyURL == "" || cfg.GotifyToken == "") && !cfg.DesktopNotify {
		warn("no notifier configured; alerts are only logged and stored")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}
