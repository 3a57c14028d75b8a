package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/angelofallars/htmx-go"
	"github.com/go-chi/chi/v5"

	"bills/internal/core"
	"bills/internal/log"
	"bills/internal/store"
	"bills/internal/views"
)

type billsData struct {
	Title         string
	WeekTitle     string
	Page          views.BillsPage
	Editing       bool
	ConfirmDelete bool
	Error         string
	Notice        string
}

// billsExtra carries one-shot messages and prompts into a render.
type billsExtra struct {
	err           string
	notice        string
	confirmDelete bool
}

func (s *Server) handleBills(w http.ResponseWriter, r *http.Request) {
	s.showBills(w, r, http.StatusOK, billsExtra{})
}

// showBills renders the panel for htmx requests and the full page otherwise.
func (s *Server) showBills(w http.ResponseWriter, r *http.Request, status int, extra billsExtra, triggers ...htmx.EventTrigger) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	page, err := s.bills.Page(ctx)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "Failed to load bills", err, log.OpList)
		return
	}
	data := billsData{
		Title:         "Bills",
		WeekTitle:     weekTitle(page.Summary.Week),
		Page:          page,
		Editing:       page.Selection == core.SelectEditing,
		ConfirmDelete: extra.confirmDelete,
		Error:         extra.err,
		Notice:        extra.notice,
	}
	if htmx.IsHTMX(r) {
		s.render(w, r, status, "bills_panel", data, triggers...)
		return
	}
	s.render(w, r, status, "bills.html", data)
}

// billsDone answers a successful mutation.
func (s *Server) billsDone(w http.ResponseWriter, r *http.Request, triggers ...htmx.EventTrigger) {
	if !htmx.IsHTMX(r) {
		http.Redirect(w, r, "/bills", http.StatusSeeOther)
		return
	}
	s.showBills(w, r, http.StatusOK, billsExtra{}, triggers...)
}

// billsInvalid re-renders with a validation error. Plain posts get the full page too,
// since a redirect would lose the message.
func (s *Server) billsInvalid(w http.ResponseWriter, r *http.Request, msg string) {
	s.showBills(w, r, http.StatusUnprocessableEntity, billsExtra{err: msg})
}

type weekMove int

const (
	weekPrev weekMove = iota
	weekNext
	weekCurrent
)

func (s *Server) handleWeek(move weekMove) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var wk core.Week
		switch move {
		case weekPrev:
			wk = s.bills.PrevWeek()
		case weekNext:
			wk = s.bills.NextWeek()
		default:
			wk = s.bills.CurrentWeek()
		}
		log.FromContext(r.Context()).DebugContext(r.Context(), "Week changed", log.FieldWeek, wk.Key())
		s.billsDone(w, r)
	}
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.billsInvalid(w, r, "Invalid request format")
		return
	}
	l, err := core.ParseFilterLabel(r.PostForm.Get(fieldLabel))
	if err != nil {
		s.billsInvalid(w, r, fmt.Sprintf("Unknown label %q", r.PostForm.Get(fieldLabel)))
		return
	}
	if err := s.bills.SetLabel(l); err != nil {
		s.billsInvalid(w, r, err.Error())
		return
	}
	s.billsDone(w, r)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.billsInvalid(w, r, "Invalid request format")
		return
	}
	form, err := ParseBatchForm(r.PostForm, s.loc, s.now())
	if err != nil {
		s.billsInvalid(w, r, validationMessage(err))
		return
	}

	added, err := s.bills.SubmitBatch(r.Context(), form)
	if err != nil {
		if core.IsValidation(err) {
			s.billsInvalid(w, r, validationMessage(err))
			return
		}
		s.fail(w, r, http.StatusInternalServerError, "Error saving bills", err, log.OpCreate)
		return
	}
	if len(added) == 0 {
		s.showBills(w, r, http.StatusOK, billsExtra{notice: "Nothing to add: every price is empty."})
		return
	}
	s.billsDone(w, r, triggerBillsChanged, notify(NotificationSuccess, plural(len(added), "bill")+" added"))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.bills.Select(chi.URLParam(r, "id"))
	s.billsDone(w, r)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	_, err := s.bills.StartEdit(r.Context())
	switch {
	case err == nil:
		s.billsDone(w, r)
	case errors.Is(err, views.ErrNoSelection):
		s.billsInvalid(w, r, "Select a bill first.")
	case errors.Is(err, store.ErrNotFound):
		s.showBills(w, r, http.StatusOK, billsExtra{notice: "That bill no longer exists."}, triggerBillsChanged)
	default:
		s.fail(w, r, http.StatusInternalServerError, "Failed to load bill", err, log.OpUpdate)
	}
}

func (s *Server) handleEditCancel(w http.ResponseWriter, r *http.Request) {
	s.bills.CancelEdit()
	s.billsDone(w, r)
}

// handleEditSave applies the whole edit form. Invalid input answers 422 and keeps
// the draft, so the previous values stay on screen.
func (s *Server) handleEditSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.billsInvalid(w, r, "Invalid request format")
		return
	}
	if err := s.bills.ApplyEdit(ParseEdit(r.PostForm)); err != nil {
		if errors.Is(err, views.ErrNotEditing) {
			s.billsInvalid(w, r, "No bill is being edited.")
			return
		}
		s.billsInvalid(w, r, validationMessage(err))
		return
	}

	_, err := s.bills.SaveEdit(r.Context())
	switch {
	case err == nil:
		s.billsDone(w, r, triggerBillsChanged, notify(NotificationSuccess, "Bill saved"))
	case core.IsValidation(err):
		s.billsInvalid(w, r, validationMessage(err))
	case errors.Is(err, store.ErrNotFound):
		s.showBills(w, r, http.StatusOK, billsExtra{notice: "That bill no longer exists."}, triggerBillsChanged)
	default:
		s.fail(w, r, http.StatusInternalServerError, "Error saving bill", err, log.OpUpdate)
	}
}

// handleDelete asks for confirmation first; the confirm field carries the answer.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.billsInvalid(w, r, "Invalid request format")
		return
	}
	answer := r.PostForm.Get(fieldConfirm)
	if answer == "" {
		if state, _ := s.bills.Selection(); state == core.SelectNone {
			s.billsInvalid(w, r, "Select a bill first.")
			return
		}
		s.showBills(w, r, http.StatusOK, billsExtra{confirmDelete: true})
		return
	}

	b, deleted, err := s.bills.DeleteSelected(r.Context(), formConfirmer(answer))
	switch {
	case err == nil && deleted:
		s.billsDone(w, r, triggerBillsChanged, notify(NotificationSuccess, "Deleted "+b.Place+" "+b.Price.String()))
	case err == nil:
		s.showBills(w, r, http.StatusOK, billsExtra{notice: "Delete cancelled."})
	case errors.Is(err, views.ErrNoSelection):
		s.billsInvalid(w, r, "Select a bill first.")
	case errors.Is(err, store.ErrNotFound):
		s.showBills(w, r, http.StatusOK, billsExtra{notice: "That bill was already deleted."},
			triggerBillsChanged, notify(NotificationInfo, "That bill was already deleted."))
	default:
		s.fail(w, r, http.StatusInternalServerError, "Error deleting bill", err, log.OpDelete)
	}
}

// validationMessage turns parse errors into short user-facing text.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return "Invalid date, use YYYY-MM-DD."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Invalid price: " + err.Error()
	case errors.Is(err, core.ErrInvalidLabel):
		return "Invalid label."
	case errors.Is(err, core.ErrInvalidText):
		_, detail, _ := strings.Cut(err.Error(), core.ErrInvalidText.Error()+": ")
		return "Invalid text: " + detail + "."
	default:
		return "Invalid data: " + err.Error()
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
