package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/history"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// Cycles runs and resets the monitor.
type Cycles interface {
	RunCycle(ctx context.Context) (domain.CycleReport, error)
	Clean(ctx context.Context) error
}

// Roster is the monitored-site set.
type Roster interface {
	Monitored(ctx context.Context) ([]domain.Site, error)
	Options() []domain.Site
	Remove(ctx context.Context, id domain.SiteID) (bool, error)
	Enabled() bool
}

// Thresholds is the live failure threshold.
type Thresholds interface {
	Current() int
	Raw() string
	Set(raw string) error
}

type Server struct {
	Logger     *zap.Logger
	Cycles     Cycles
	History    *history.Store
	Sites      Roster
	Alerts     repo.AlertLog
	Thresholds Thresholds
	Stream     http.HandlerFunc // websocket upgrade; nil disables /api/ws
	// PersistThreshold saves an accepted threshold so it survives a restart.
	// When nil, updates last until the process exits.
	PersistThreshold func(raw string) error
}

func NewServer(l *zap.Logger, c Cycles, h *history.Store, s Roster, a repo.AlertLog, t Thresholds) *Server {
	return &Server{Logger: l, Cycles: c, History: h, Sites: s, Alerts: a, Thresholds: t}
}

// Router builds the API. Public routes accept any configured key, admin
// routes only admin keys; with no keys configured everything is open.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, publicRPM, publicBurst, adminRPM, adminBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(publicRPM, publicBurst))
			r.Use(apimw.RequireAny(keys))

			r.Get("/sites", s.handleListSites)
			r.Get("/sites/options", s.handleSiteOptions)
			r.Get("/history", s.handleHistory)
			r.Get("/history/{domain}", s.handleSiteHistory)
			r.Get("/alerts", s.handleAlerts)
			r.Get("/config/threshold", s.handleGetThreshold)
			if s.Stream != nil {
				r.Get("/ws", s.Stream)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(adminRPM, adminBurst))
			r.Use(apimw.RequireAdmin(keys))

			r.Post("/scan", s.handleScan)
			r.Delete("/history", s.handleClean)
			r.Delete("/sites/{id}", s.handleRemoveSite)
			r.Put("/config/threshold", s.handleSetThreshold)
		})
	})

	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.Sites.Monitored(r.Context())
	if err != nil {
		s.Logger.Warn("list_sites_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	if sites == nil {
		sites = []domain.Site{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": s.Sites.Enabled(),
		"sites":   sites,
	})
}

func (s *Server) handleSiteOptions(w http.ResponseWriter, r *http.Request) {
	opts := s.Sites.Options()
	if opts == nil {
		opts = []domain.Site{}
	}
	writeJSON(w, http.StatusOK, opts)
}

func (s *Server) handleRemoveSite(w http.ResponseWriter, r *http.Request) {
	id := domain.SiteID(chi.URLParam(r, "id"))
	removed, err := s.Sites.Remove(r.Context(), id)
	if err != nil {
		s.Logger.Warn("remove_site_error", zap.String("site_id", string(id)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not remove")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "site not monitored")
		return
	}
	s.Logger.Info("site_removed", zap.String("site_id", string(id)), zap.Bool("enabled", s.Sites.Enabled()))
	writeJSON(w, http.StatusOK, map[string]any{"removed": id, "enabled": s.Sites.Enabled()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.History.State())
}

type siteHistory struct {
	Domain    string           `json:"domain"`
	Threshold int              `json:"threshold"`
	Failures  int              `json:"failures"`
	Failing   bool             `json:"failing"`
	Outcomes  []domain.Outcome `json:"outcomes"`
}

func (s *Server) handleSiteHistory(w http.ResponseWriter, r *http.Request) {
	d := chi.URLParam(r, "domain")
	outcomes := s.History.Snapshot(d)
	th := s.Thresholds.Current()
	fails := history.Failures(outcomes)
	writeJSON(w, http.StatusOK, siteHistory{
		Domain:    d,
		Threshold: th,
		Failures:  fails,
		Failing:   fails >= th,
		Outcomes:  outcomes,
	})
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	if err := s.Cycles.Clean(r.Context()); err != nil {
		s.Logger.Warn("clean_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Cycles.RunCycle(r.Context())
	// an unfinished report means the cycle aborted before probing
	if err != nil && rep.FinishedAt.IsZero() {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{"report": rep}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := repo.DefaultRecentAlerts
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	alerts, err := s.Alerts.Recent(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("recent_alerts_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "alerts error")
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

type thresholdPayload struct {
	Threshold json.Number `json:"threshold"`
}

func (s *Server) handleGetThreshold(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"threshold":   s.Thresholds.Current(),
		"max_records": history.MaxRecords(s.Thresholds.Current()),
		"raw":         s.Thresholds.Raw(),
	})
}

func (s *Server) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	var p thresholdPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if err := s.Thresholds.Set(p.Threshold.String()); err != nil {
		var ce *config.ConfigurationError
		if errors.As(err, &ce) {
			writeError(w, http.StatusBadRequest, ce.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	persisted := false
	if s.PersistThreshold != nil {
		if err := s.PersistThreshold(s.Thresholds.Raw()); err != nil {
			s.Logger.Warn("threshold_persist_error", zap.Error(err))
		} else {
			persisted = true
		}
	}
	s.Logger.Info("threshold_updated",
		zap.Int("threshold", s.Thresholds.Current()),
		zap.Bool("persisted", persisted))
	s.handleGetThreshold(w, r)
}
