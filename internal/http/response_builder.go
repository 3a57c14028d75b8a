package http

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/angelofallars/htmx-go"

	"bills/internal/core"
	"bills/internal/log"
)

// Client-side events raised through HX-Trigger.
const (
	EventBillsChanged     = "bills:changed"
	EventShowNotification = "show-notification"
)

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

type notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

var triggerBillsChanged = htmx.Trigger(EventBillsChanged)

// notify builds a show-notification trigger. Errors stay on screen longer.
func notify(t NotificationType, message string) htmx.EventTrigger {
	duration := 3000
	if t == NotificationError {
		duration = 5000
	}
	return htmx.TriggerObject(EventShowNotification, notification{Type: t, Message: message, Duration: duration})
}

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.String() },
	"day":   func(t time.Time) string { return t.Format("Mon 02 Jan") },
	"dateValue": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(core.DateLayout)
	},
	"priceValue": func(m *core.Money) string {
		if m == nil {
			return ""
		}
		return m.String()
	},
}

func weekTitle(w core.Week) string {
	return w.Start().Format("Mon 2 Jan") + " - " + w.End().Format("Mon 2 Jan 2006")
}

// render executes name into a buffer first so a template failure never leaves a
// half-written page, then writes status, triggers and body.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any, triggers ...htmx.EventTrigger) {
	ctx := r.Context()
	if s.templates == nil {
		log.FromContext(ctx).ErrorContext(ctx, "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Template execution failed", err, log.OpRender,
			log.LogFields{"template": name})
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	resp := htmx.NewResponse().StatusCode(status)
	if len(triggers) > 0 {
		resp = resp.AddTrigger(triggers...)
	}
	if err := resp.Write(w); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to write htmx headers", log.FieldError, err)
		return
	}
	_, _ = buf.WriteTo(w)
}

// fail logs err and answers with a notification only, keeping the current panel.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error, op string) {
	ctx := r.Context()
	log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, msg, err, op, nil)
	if htmx.IsHTMX(r) {
		_ = htmx.NewResponse().
			StatusCode(status).
			Reswap(htmx.SwapNone).
			AddTrigger(notify(NotificationError, msg)).
			Write(w)
		return
	}
	http.Error(w, msg, status)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil {
		s.metrics.Guarded.WithLabelValues("rate_limited").Inc()
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	if htmx.IsHTMX(r) {
		_ = htmx.NewResponse().
			StatusCode(http.StatusTooManyRequests).
			Reswap(htmx.SwapNone).
			AddTrigger(notify(NotificationWarning, "Too many requests. Please wait a minute.")).
			Write(w)
		return
	}
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}
