package domain

import "time"

// NoMessage replaces an empty probe diagnostic so stored outcomes always carry text.
const NoMessage = "no message returned"

// AlertTitle is the fixed title of every threshold alert.
const AlertTitle = "Site access alert"

// DefaultThreshold applies when no failure threshold is configured.
const DefaultThreshold = 5

type SiteID string

// Site is one monitored endpoint. Domain is the history key.
type Site struct {
	ID     SiteID `json:"id" yaml:"id"`
	Domain string `json:"domain" yaml:"domain"`
	Name   string `json:"name" yaml:"name"`
}

// DisplayName falls back to the domain when the site has no name.
func (s Site) DisplayName() string {
	if s.Name == "" {
		return s.Domain
	}
	return s.Name
}

type Outcome struct {
	Domain     string    `json:"domain"`
	Succeeded  bool      `json:"succeeded"`
	ObservedAt time.Time `json:"observed_at"`
	Message    string    `json:"message"`
}

// NewOutcome builds an outcome, normalising an empty message to NoMessage.
func NewOutcome(domain string, succeeded bool, message string, at time.Time) Outcome {
	if message == "" {
		message = NoMessage
	}
	return Outcome{
		Domain:     domain,
		Succeeded:  succeeded,
		ObservedAt: at.UTC(),
		Message:    message,
	}
}

// HistoryState is the persisted shape of the history store:
// domain -> outcomes, oldest first.
type HistoryState map[string][]Outcome

type Alert struct {
	ID        string    `json:"id"`
	CycleID   string    `json:"cycle_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Threshold int       `json:"threshold"`
	Sites     []Site    `json:"sites"`
	CreatedAt time.Time `json:"created_at"`
}

// Domains lists the alerting domains in report order.
func (a *Alert) Domains() []string {
	out := make([]string, 0, len(a.Sites))
	for _, s := range a.Sites {
		out = append(out, s.Domain)
	}
	return out
}

// CycleReport summarises one scan cycle.
type CycleReport struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Threshold   int       `json:"threshold"`
	Probed      int       `json:"probed"`
	ProbeErrors int       `json:"probe_errors"`
	Failing     []string  `json:"failing"`
	Alert       *Alert    `json:"alert,omitempty"`
	StoreErr    string    `json:"store_error,omitempty"`
}
