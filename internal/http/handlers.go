package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"bills/internal/core"
	"bills/internal/export"
	"bills/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the templates and that the store answers a listing.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{"templates": "ok", "store": "ok"}
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if err := s.ledger.Ready(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients()}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.NotFound(w, r)
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}

// handleExport downloads every bill, newest first, with the per-label totals.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	bills, err := s.ledger.List(ctx)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "Failed to load bills", err, log.OpExport)
		return
	}
	totals, err := s.ledger.ChartTotals(ctx)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "Failed to load totals", err, log.OpExport)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, bills, totals); err != nil {
		s.fail(w, r, http.StatusInternalServerError, "Failed to build export", err, log.OpExport)
		return
	}

	name := export.Filename(s.now().In(s.loc).Format(core.DateLayout))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	log.FromContext(ctx).InfoContext(ctx, "Ledger exported", log.FieldOperation, log.OpExport, log.FieldCount, len(bills))
}
