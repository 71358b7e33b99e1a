package probe

import (
	"context"
	"net/url"
)

// DNSChecker passes when the site's host has A or AAAA records.
type DNSChecker struct{}

func NewDNSChecker() *DNSChecker {
	return &DNSChecker{}
}

func (d *DNSChecker) Check(ctx context.Context, target string) (CheckResult, error) {
	host := extractHost(TargetURL(target))
	dns := CheckDNS(ctx, host)
	if dns.Class == DNSServfail && ctx.Err() != nil {
		return CheckResult{Name: "DNS"}, ctx.Err()
	}

	return CheckResult{
		Name:    "DNS",
		Success: dns.Class == DNSResolves,
		Message: "dns=" + dns.Class,
	}, nil
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
