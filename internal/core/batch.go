package core

import (
	"strings"
	"time"
)

type (
	// BatchItem is the pending entry for one label. A nil Price means the field was left empty.
	BatchItem struct {
		Label Label
		Price *Money
		Note  string
	}

	// BatchForm collects one multi-label submission sharing a date and a place.
	BatchForm struct {
		Date  time.Time
		Place string
		Items []BatchItem
	}
)

// NewBatchForm returns an empty form dated now, with one item per label.
func NewBatchForm(now time.Time) BatchForm {
	items := make([]BatchItem, len(labels))
	for i, l := range labels {
		items[i] = BatchItem{Label: l}
	}
	return BatchForm{Date: now, Items: items}
}

// Set stores the price and note for label. It returns ErrInvalidLabel for unknown labels.
func (f *BatchForm) Set(label Label, price *Money, note string) error {
	for i := range f.Items {
		if f.Items[i].Label == label {
			f.Items[i].Price = price
			f.Items[i].Note = note
			return nil
		}
	}
	return ErrInvalidLabel
}

// Bills converts every item with a price into a bill. Items without a price are
// dropped; zero and negative prices are kept.
func (f BatchForm) Bills(newID func() string) []Bill {
	var out []Bill
	for _, it := range f.Items {
		if it.Price == nil {
			continue
		}
		out = append(out, Bill{
			ID:    newID(),
			Place: strings.TrimSpace(f.Place),
			Date:  f.Date,
			Label: it.Label,
			Price: *it.Price,
			Note:  it.Note,
		})
	}
	return out
}

// AllPricesEmpty reports whether every price is absent or not positive.
// It gates the submit affordance only.
func (f BatchForm) AllPricesEmpty() bool {
	for _, it := range f.Items {
		if it.Price != nil && it.Price.Cents > 0 {
			return false
		}
	}
	return true
}

// Reset clears the form, keeping the label set.
func (f *BatchForm) Reset(now time.Time) {
	*f = NewBatchForm(now)
}
