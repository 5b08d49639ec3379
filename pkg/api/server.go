// pkg/api/server.go

// Package api exposes the dashboard reads and the ingestion trigger over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/EricBinekS/StatusDiario/pkg/dashboard"
	"github.com/EricBinekS/StatusDiario/pkg/ingest"
)

// Dashboard is the read service behind the API
type Dashboard interface {
	GetActivities(ctx context.Context, f dashboard.Filter) (*dashboard.ActivitiesView, error)
	GetOverview(ctx context.Context, f dashboard.Filter) (*dashboard.Overview, error)
	GetLastMigrationTime(ctx context.Context) (*time.Time, error)
}

// Ingestor runs an ingestion batch
type Ingestor interface {
	Run(ctx context.Context) (*ingest.BatchResult, error)
}

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server routes HTTP requests to the dashboard and the orchestrator
type Server struct {
	router    chi.Router
	dashboard Dashboard
	ingestor  Ingestor
	db        Pinger
	loc       *time.Location
	logger    *zap.Logger
}

// NewServer builds the router. loc is the zone query dates are read in.
func NewServer(d Dashboard, ing Ingestor, db Pinger, loc *time.Location, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Server{
		router:    chi.NewRouter(),
		dashboard: d,
		ingestor:  ing,
		db:        db,
		loc:       loc,
		logger:    logger.Named("api"),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/activities", s.handleActivities)
		r.Get("/overview", s.handleOverview)
		r.Get("/last-update", s.handleLastUpdate)
		r.Post("/trigger-update", s.handleTriggerUpdate)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestID", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseFilter(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := s.dashboard.GetActivities(r.Context(), f)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseFilter(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	ov, err := s.dashboard.GetOverview(r.Context(), f)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleLastUpdate(w http.ResponseWriter, r *http.Request) {
	last, err := s.dashboard.GetLastMigrationTime(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]*time.Time{"lastUpdated": last})
}

type triggerResponse struct {
	BatchID         string   `json:"batchId"`
	State           string   `json:"state"`
	RowsPersisted   int64    `json:"rowsPersisted"`
	SkippedSources  []string `json:"skippedSources,omitempty"`
	DurationSeconds float64  `json:"durationSeconds"`
	Error           string   `json:"error,omitempty"`
}

// handleTriggerUpdate runs a batch to completion even if the client goes away
func (s *Server) handleTriggerUpdate(w http.ResponseWriter, r *http.Request) {
	result, err := s.ingestor.Run(context.WithoutCancel(r.Context()))
	if errors.Is(err, ingest.ErrBatchInProgress) {
		s.writeError(w, http.StatusConflict, err)
		return
	}
	if result == nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := triggerResponse{
		BatchID:         result.BatchID,
		State:           string(result.State),
		RowsPersisted:   result.RowsPersisted,
		SkippedSources:  result.SkippedSources(),
		DurationSeconds: result.Duration.Seconds(),
	}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusInternalServerError
		if errors.Is(err, ingest.ErrEmptyBatch) || errors.Is(err, ingest.ErrNoSources) {
			status = http.StatusUnprocessableEntity
		}
	}
	s.writeJSON(w, status, resp)
}

// parseFilter reads start, end, gerencia and tipo. gerencia may repeat or
// hold a comma-separated list.
func (s *Server) parseFilter(r *http.Request) (dashboard.Filter, error) {
	q := r.URL.Query()
	var f dashboard.Filter

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"start", &f.DateFrom}, {"end", &f.DateTo}} {
		v := strings.TrimSpace(q.Get(p.name))
		if v == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", v, s.loc)
		if err != nil {
			return f, fmt.Errorf("invalid %s date %q: expected YYYY-MM-DD", p.name, v)
		}
		*p.dst = &t
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return f, errors.New("end date is before start date")
	}

	for _, v := range q["gerencia"] {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				f.ManagementUnits = append(f.ManagementUnits, u)
			}
		}
	}
	f.ScheduleKind = strings.TrimSpace(q.Get("tipo"))
	return f, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Warn("Request failed", zap.Int("status", status), zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
