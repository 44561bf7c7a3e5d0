package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/liamashdown/wardai/internal/config"
	"github.com/liamashdown/wardai/internal/dexscreener"
	"github.com/liamashdown/wardai/internal/metrics"
	"github.com/liamashdown/wardai/internal/monitor"
	"github.com/liamashdown/wardai/internal/risk"
	"github.com/liamashdown/wardai/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// isoMillis matches the timestamps the web client expects
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// TokenSource looks up trading pairs for a token
type TokenSource interface {
	TokenPairs(ctx context.Context, address string) ([]dexscreener.Pair, error)
}

// AlertFeed serves live alerts and trending tokens
type AlertFeed interface {
	Feed() []monitor.FeedAlert
	Poll(ctx context.Context) ([]monitor.FeedAlert, error)
	Trending(ctx context.Context) ([]monitor.TrendingToken, error)
}

// AssessmentRecorder stores API assessments. It is optional.
type AssessmentRecorder interface {
	InsertAssessment(ctx context.Context, a *storage.Assessment) error
}

// HistoryReader queries stored alerts and assessments. It is optional.
type HistoryReader interface {
	RecentAlerts(ctx context.Context, limit int) ([]storage.Alert, error)
	LatestAssessment(ctx context.Context, tokenAddress string) (*storage.Assessment, error)
}

type readyCheck struct {
	name  string
	check func(ctx context.Context) error
}

// Server exposes the risk API over HTTP
type Server struct {
	cfg      *config.Config
	tokens   TokenSource
	feed     AlertFeed
	engine   *risk.Engine
	recorder AssessmentRecorder
	history  HistoryReader
	ready    []readyCheck
	log      *logrus.Logger
	now      func() time.Time
}

// New creates a server. recorder may be nil.
func New(cfg *config.Config, tokens TokenSource, feed AlertFeed, engine *risk.Engine, recorder AssessmentRecorder, log *logrus.Logger) *Server {
	return &Server{
		cfg:      cfg,
		tokens:   tokens,
		feed:     feed,
		engine:   engine,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// AddReadyCheck registers a dependency probed by /ready
func (s *Server) AddReadyCheck(name string, check func(ctx context.Context) error) {
	s.ready = append(s.ready, readyCheck{name: name, check: check})
}

// SetHistory enables the /api/history routes
func (s *Server) SetHistory(h HistoryReader) {
	s.history = h
}

// Routes builds the router
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/analyze-token", s.handleAnalyzeTokenGet)
		r.Post("/analyze-token", s.handleAnalyzeTokenPost)
		r.Get("/contract-audit", s.handleContractAudit)
		r.Get("/ml-risk-analysis", s.handleFactorAnalysis)
		r.Get("/trending-tokens", s.handleTrendingTokens)
		r.Get("/live-alerts", s.handleLiveAlerts)

		if s.history != nil {
			r.Get("/history/alerts", s.handleHistoryAlerts)
			r.Get("/history/assessments/{address}", s.handleLatestAssessment)
		}
	})

	return r
}

// instrument records per-route metrics and a debug access log
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(route, status, time.Since(start))

		s.log.WithFields(logrus.Fields{
			"request_id":  middleware.GetReqID(r.Context()),
			"method":      r.Method,
			"route":       route,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("HTTP request served")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics.RecordHealthCheck(true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, rc := range s.ready {
		if err := rc.check(ctx); err != nil {
			failed[rc.name] = err.Error()
		}
	}

	metrics.RecordHealthCheck(len(failed) == 0)
	if len(failed) > 0 {
		s.log.WithField("failed", failed).Warn("Readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unavailable",
			"failed": failed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
