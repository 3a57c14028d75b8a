package http

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bills/internal/core"
	"bills/internal/views"
)

// Form field names. Batch fields per label are suffixed with the label name.
const (
	fieldDate    = "date"
	fieldPlace   = "place"
	fieldLabel   = "label"
	fieldPrice   = "price"
	fieldNote    = "note"
	fieldConfirm = "confirm"
	pricePrefix  = "price_"
	notePrefix   = "note_"

	confirmYes = "yes"
)

// sanitizeInput trims s and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// ParseBatchForm reads a batch submission. An empty date means today in loc;
// an empty price leaves that label out.
func ParseBatchForm(form url.Values, loc *time.Location, now time.Time) (core.BatchForm, error) {
	date := core.StartOfDay(now.In(loc))
	if v := strings.TrimSpace(form.Get(fieldDate)); v != "" {
		d, err := core.ParseDate(v, loc)
		if err != nil {
			return core.BatchForm{}, err
		}
		date = d
	}

	f := core.NewBatchForm(date)
	f.Place = sanitizeInput(form.Get(fieldPlace))
	for _, l := range core.Labels() {
		var price *core.Money
		if v := strings.TrimSpace(form.Get(pricePrefix + l.String())); v != "" {
			m, err := core.ParseMoney(v)
			if err != nil {
				return core.BatchForm{}, fmt.Errorf("%s price %q: %w", l, v, err)
			}
			price = &m
		}
		if err := f.Set(l, price, sanitizeInput(form.Get(notePrefix+l.String()))); err != nil {
			return core.BatchForm{}, err
		}
	}
	return f, nil
}

// ParseEdit reads the full edit form.
func ParseEdit(form url.Values) views.Edit {
	return views.Edit{
		Date:  strings.TrimSpace(form.Get(fieldDate)),
		Place: sanitizeInput(form.Get(fieldPlace)),
		Label: strings.TrimSpace(form.Get(fieldLabel)),
		Price: strings.TrimSpace(form.Get(fieldPrice)),
		Note:  sanitizeInput(form.Get(fieldNote)),
	}
}

// ParseIndex parses a non-negative slice index.
func ParseIndex(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return i, nil
}

// formConfirmer answers the delete prompt from the submitted confirm field.
type formConfirmer string

func (c formConfirmer) Confirm(context.Context, string) bool {
	return strings.EqualFold(string(c), confirmYes)
}
