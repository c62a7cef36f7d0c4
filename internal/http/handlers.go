package http

import (
	"net/http"
	"time"

	"hotelpro/internal/cache"
	"hotelpro/internal/middleware/ratelimit"
	"hotelpro/internal/middleware/security"
	"hotelpro/internal/middleware/trace"
	"hotelpro/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the API can serve. Failed syncs degrade the
// status without making the service unready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	summary := s.ledger.Sync().Summary()
	status := "ready"
	if summary.Failed > 0 {
		status = "degraded"
	}
	sheetsCheck := "not_configured"
	if s.reports != nil {
		sheetsCheck = "configured"
	}
	NewJSONResponse().Body(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks": map[string]any{
			"ledger_version": s.ledger.Store().Version(),
			"sync":           summary,
			"sheets_export":  sheetsCheck,
		},
	}).Write(w)
}

type metricsResponse struct {
	Requests  trace.Metrics             `json:"requests"`
	RateLimit ratelimit.Metrics         `json:"rateLimit"`
	Security  security.DetectionMetrics `json:"security"`
	Caches    map[string]cache.Stats    `json:"caches"`
	Sync      services.SyncSummary      `json:"sync"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(metricsResponse{
		Requests:  s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
		Caches: map[string]cache.Stats{
			"trajectory": s.trajectory.Stats(),
			"ledger":     s.statements.Stats(),
		},
		Sync: s.ledger.Sync().Summary(),
	}).Write(w)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Header("Cache-Control", "public, max-age=3600").Body(s.catalog).Write(w)
}
