package http

import (
	"net/http"

	applog "hotelpro/internal/log"
	"hotelpro/internal/services"
)

func (s *Server) handleSyncSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.ledger.Sync().Summary()).Write(w)
}

func (s *Server) handleSyncFailed(w http.ResponseWriter, r *http.Request) {
	failed := s.ledger.Sync().Failed()
	if failed == nil {
		failed = []services.RecordStatus{}
	}
	NewJSONResponse().Body(map[string]any{"records": failed}).Write(w)
}

// handleSyncRetry re-sends every failed record with its current local
// version.
func (s *Server) handleSyncRetry(w http.ResponseWriter, r *http.Request) {
	rep := s.ledger.Sync().RetryFailed(r.Context())
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Sync retry requested",
		applog.FieldOperation, applog.OpRetry,
		"attempted", rep.Attempted,
		"succeeded", rep.Succeeded,
		"failed", rep.Failed)
	NewJSONResponse().Body(map[string]any{
		"report":  rep,
		"summary": s.ledger.Sync().Summary(),
	}).Write(w)
}
