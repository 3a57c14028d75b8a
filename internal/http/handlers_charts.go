package http

import (
	"context"
	"net/http"

	"github.com/angelofallars/htmx-go"
	"github.com/go-chi/chi/v5"

	"bills/internal/log"
	"bills/internal/views"
)

type chartsData struct {
	Title string
	Chart views.ChartsPage
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	s.showCharts(w, r)
}

func (s *Server) showCharts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	page, err := s.charts.Page(ctx)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "Failed to build chart", err, log.OpRender)
		return
	}
	data := chartsData{Title: "Charts", Chart: page}
	if htmx.IsHTMX(r) {
		s.render(w, r, http.StatusOK, "charts_panel", data)
		return
	}
	s.render(w, r, http.StatusOK, "charts.html", data)
}

// handleChartActive toggles the highlighted slice.
func (s *Server) handleChartActive(w http.ResponseWriter, r *http.Request) {
	i, err := ParseIndex(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.charts.Toggle(i)
	if !htmx.IsHTMX(r) {
		http.Redirect(w, r, "/charts", http.StatusSeeOther)
		return
	}
	s.showCharts(w, r)
}
