package history

import "github.com/hamed0406/sitewatch/internal/domain"

// Failures counts the failed outcomes in a window.
func Failures(outcomes []domain.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Succeeded {
			n++
		}
	}
	return n
}

// FailingSites returns the monitored sites whose stored history holds at least
// threshold failures, in monitored order and without duplicate domains.
// History of sites outside monitored is ignored.
func FailingSites(s *Store, threshold int, monitored []domain.Site) []domain.Site {
	threshold = MaxRecords(threshold)
	seen := make(map[string]bool, len(monitored))
	var out []domain.Site
	for _, site := range monitored {
		if seen[site.Domain] {
			continue
		}
		seen[site.Domain] = true
		if Failures(s.Snapshot(site.Domain)) >= threshold {
			out = append(out, site)
		}
	}
	return out
}
