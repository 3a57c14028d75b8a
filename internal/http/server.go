// Package http serves the bills and charts pages.
//
// Pages are server-rendered with html/template. Mutations are form posts; htmx
// requests get the re-rendered panel back with HX-Trigger events, plain posts are
// redirected to the page.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bills/internal/core"
	"bills/internal/log"
	"bills/internal/metrics"
	"bills/internal/middleware/ratelimit"
	"bills/internal/middleware/security"
	"bills/internal/middleware/trace"
	"bills/internal/views"
	appweb "bills/web"
)

// readTimeout bounds store reads made while rendering.
const readTimeout = 7 * time.Second

// Ledger is the read side of the bill service used outside the views.
type Ledger interface {
	List(ctx context.Context) ([]core.Bill, error)
	ChartTotals(ctx context.Context) ([]core.LabelTotal, error)
	Ready(ctx context.Context) error
}

type Options struct {
	Addr   string
	Ledger Ledger
	Bills  *views.BillsView
	Charts *views.ChartsView
	// Metrics is optional; /metrics answers 404 without it.
	Metrics            *metrics.Metrics
	Logger             *log.Logger
	RateLimitPerMinute int
	Location           *time.Location
	Now                func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template

	ledger   Ledger
	bills    *views.BillsView
	charts   *views.ChartsView
	metrics  *metrics.Metrics
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	loc      *time.Location
	now      func() time.Time
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and mounts every route. A template parse
// failure is logged; pages then answer 500 and /readyz reports not ready.
func NewServer(o Options) *Server {
	if o.Logger == nil {
		o.Logger = log.New(log.DefaultConfig())
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.Local
	}

	s := &Server{
		ledger:   o.Ledger,
		bills:    o.Bills,
		charts:   o.Charts,
		metrics:  o.Metrics,
		logger:   o.Logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: o.RateLimitPerMinute}),
		detector: security.NewDetector(),
		loc:      o.Location,
		now:      o.Now,
		started:  o.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	s.Server = http.Server{
		Addr:              o.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	tracer := trace.NewMiddleware(s.detector.ClientIP, s.observe)
	r.Use(
		middleware.Recoverer,
		log.Middleware(s.logger),
		trace.RequestID,
		log.RequestIDMiddleware(trace.FromRequest),
		tracer.Middleware,
		s.detector.Middleware(s.onSuspicious),
		security.Headers(security.DefaultHeadersConfig()),
	)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.Handle("/static/*", security.StaticAssets(3600)(http.StripPrefix("/static/", http.FileServer(http.FS(sub)))))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/bills", http.StatusSeeOther)
	})
	r.Get("/bills", s.handleBills)
	r.Get("/charts", s.handleCharts)
	r.Get("/export.xlsx", s.handleExport)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ClientIP, s.onRateLimited))

		r.Post("/bills/week/prev", s.handleWeek(weekPrev))
		r.Post("/bills/week/next", s.handleWeek(weekNext))
		r.Post("/bills/week/current", s.handleWeek(weekCurrent))
		r.Post("/bills/label", s.handleLabel)
		r.Post("/bills/batch", s.handleBatch)
		r.Post("/bills/{id}/select", s.handleSelect)
		r.Post("/bills/edit", s.handleEdit)
		r.Post("/bills/edit/cancel", s.handleEditCancel)
		r.Post("/bills/edit/save", s.handleEditSave)
		r.Post("/bills/delete", s.handleDelete)
		r.Post("/charts/active/{index}", s.handleChartActive)
	})

	return r
}

func (s *Server) observe(r *http.Request, status int, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	route := "unmatched"
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		route = rctx.RoutePattern()
	}
	s.metrics.ObserveHTTP(r.Method, route, status, elapsed)
}

func (s *Server) onSuspicious(*http.Request, string) {
	if s.metrics != nil {
		s.metrics.Guarded.WithLabelValues("suspicious").Inc()
	}
}

// Shutdown stops the rate limiter and drains the HTTP server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
