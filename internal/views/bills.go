// Package views holds the server-side state of the bills and charts pages.
// The service is single-user, so one state instance backs every request.
package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bills/internal/core"
	"bills/internal/store"
)

var (
	// ErrNoSelection is returned by edit and delete operations when no bill is selected.
	ErrNoSelection = errors.New("no bill selected")
	// ErrNotEditing is returned when an edit is applied outside edit mode.
	ErrNotEditing = errors.New("selected bill is not being edited")
)

// Ledger is the part of the bill service the bills page needs.
type Ledger interface {
	Week(ctx context.Context, w core.Week, label core.Label) (core.WeekSummary, error)
	Get(ctx context.Context, id string) (core.Bill, error)
	AddBatch(ctx context.Context, form core.BatchForm) ([]core.Bill, error)
	Update(ctx context.Context, b core.Bill) error
	Remove(ctx context.Context, id string) (core.Bill, error)
}

// Confirmer asks a yes/no question and blocks until it is answered.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Edit carries raw form values for a full edit. Empty Price keeps the current price.
type Edit struct {
	Date  string
	Place string
	Label string
	Price string
	Note  string
}

// BillsPage is a consistent snapshot of the bills page state.
type BillsPage struct {
	Summary        core.WeekSummary
	Totals         []core.LabelTotal
	Label          core.Label
	Labels         []core.Label
	Selection      core.SelectionState
	SelectedID     string
	Draft          *core.Bill
	Form           core.BatchForm
	AllPricesEmpty bool
	IsCurrentWeek  bool
}

type BillsView struct {
	mu     sync.Mutex
	ledger Ledger
	now    func() time.Time
	loc    *time.Location

	week  core.Week
	label core.Label
	sel   core.Selection
	draft *core.Bill
	form  core.BatchForm
}

// NewBillsView starts on the current week with every label shown.
func NewBillsView(ledger Ledger, loc *time.Location, now func() time.Time) *BillsView {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	t := now().In(loc)
	return &BillsView{
		ledger: ledger,
		now:    now,
		loc:    loc,
		week:   core.WeekOf(t),
		label:  core.LabelAll,
		form:   core.NewBatchForm(core.StartOfDay(t)),
	}
}

func (v *BillsView) Page(ctx context.Context) (BillsPage, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	sum, err := v.ledger.Week(ctx, v.week, v.label)
	if err != nil {
		return BillsPage{}, err
	}
	p := BillsPage{
		Summary:        sum,
		Totals:         sum.LabelTotals(),
		Label:          v.label,
		Labels:         core.Labels(),
		Selection:      v.sel.State(),
		SelectedID:     v.sel.ID(),
		Form:           v.form,
		AllPricesEmpty: v.form.AllPricesEmpty(),
		IsCurrentWeek:  v.week.Equal(core.WeekOf(v.now().In(v.loc))),
	}
	p.Form.Items = append([]core.BatchItem(nil), v.form.Items...)
	if v.draft != nil {
		d := *v.draft
		p.Draft = &d
	}
	return p, nil
}

// Selection returns the selection state and the selected bill ID.
func (v *BillsView) Selection() (core.SelectionState, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sel.State(), v.sel.ID()
}

func (v *BillsView) Week() core.Week {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.week
}

// PrevWeek, NextWeek and CurrentWeek move the visible week and drop any selection.
func (v *BillsView) PrevWeek() core.Week {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.week = v.week.Prev()
	v.clearSelection()
	return v.week
}

func (v *BillsView) NextWeek() core.Week {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.week = v.week.Next()
	v.clearSelection()
	return v.week
}

func (v *BillsView) CurrentWeek() core.Week {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.week = core.WeekOf(v.now().In(v.loc))
	v.clearSelection()
	return v.week
}

// SetLabel changes the filter and drops any selection.
func (v *BillsView) SetLabel(l core.Label) error {
	if l != core.LabelAll && !l.IsValid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidLabel, l)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.label = l
	v.clearSelection()
	return nil
}

// SubmitBatch stores form and resets the pending form. On failure the entered
// values are kept so they can be corrected.
func (v *BillsView) SubmitBatch(ctx context.Context, form core.BatchForm) ([]core.Bill, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.form = form
	bills, err := v.ledger.AddBatch(ctx, form)
	if err != nil {
		return nil, err
	}
	v.form.Reset(core.StartOfDay(v.now().In(v.loc)))
	return bills, nil
}

// Select toggles the selection of id. Selecting while editing leaves edit mode.
func (v *BillsView) Select(id string) core.SelectionState {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sel.Select(id)
	v.draft = nil
	return v.sel.State()
}

// StartEdit enters edit mode on the selected bill and returns its current value.
func (v *BillsView) StartEdit(ctx context.Context) (core.Bill, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sel.State() == core.SelectNone {
		return core.Bill{}, ErrNoSelection
	}
	b, err := v.ledger.Get(ctx, v.sel.ID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			v.clearSelection()
		}
		return core.Bill{}, err
	}
	v.sel.StartEdit()
	v.draft = &b
	return b, nil
}

// CancelEdit leaves edit mode, keeping the bill selected.
func (v *BillsView) CancelEdit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sel.Cancel()
	v.draft = nil
}

// ApplyEdit sets every draft field from e. Nothing changes unless all fields parse.
func (v *BillsView) ApplyEdit(e Edit) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.draft == nil {
		return ErrNotEditing
	}
	next := *v.draft
	if strings.TrimSpace(e.Date) != "" {
		d, err := core.ParseDate(e.Date, v.loc)
		if err != nil {
			return err
		}
		next.Date = d
	}
	if strings.TrimSpace(e.Label) != "" {
		l, err := core.ParseLabel(e.Label)
		if err != nil {
			return err
		}
		next.Label = l
	}
	if strings.TrimSpace(e.Price) != "" {
		m, err := core.ParseMoney(e.Price)
		if err != nil {
			return err
		}
		next.Price = m
	}
	next.Place = strings.TrimSpace(e.Place)
	next.Note = strings.TrimSpace(e.Note)
	if err := next.Validate(); err != nil {
		return err
	}
	*v.draft = next
	return nil
}

// SaveEdit persists the draft and clears the selection. On failure edit mode is kept.
func (v *BillsView) SaveEdit(ctx context.Context) (core.Bill, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.draft == nil {
		return core.Bill{}, ErrNotEditing
	}
	b := *v.draft
	if err := v.ledger.Update(ctx, b); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			v.clearSelection()
		}
		return core.Bill{}, err
	}
	v.sel.Save()
	v.draft = nil
	return b, nil
}

// DeleteSelected removes the selected bill after c confirms. It reports false
// when the user declines. A bill that no longer exists yields store.ErrNotFound
// and clears the selection.
func (v *BillsView) DeleteSelected(ctx context.Context, c Confirmer) (core.Bill, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sel.State() == core.SelectNone {
		return core.Bill{}, false, ErrNoSelection
	}
	if !c.Confirm(ctx, "Are you sure you want to delete this bill?") {
		return core.Bill{}, false, nil
	}
	b, err := v.ledger.Remove(ctx, v.sel.ID())
	v.clearSelection()
	if err != nil {
		return core.Bill{}, false, err
	}
	return b, true, nil
}

func (v *BillsView) clearSelection() {
	v.sel.Clear()
	v.draft = nil
}
