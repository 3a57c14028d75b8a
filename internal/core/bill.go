package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Telephone   Label = "telephone"
	Food        Label = "food"
	Daily       Label = "daily"
	Accommodate Label = "accommodate"
	Health      Label = "health"
	Transport   Label = "transport"
	Others      Label = "others"

	// LabelAll is the filter value that matches every label. It is never a bill label.
	LabelAll Label = "All"
)

type (
	Label string

	Money struct {
		Cents int64
	}

	Bill struct {
		ID    string // Stable identifier assigned at creation
		Place string
		Date  time.Time
		Label Label
		Price Money
		Note  string
	}
)

var (
	ErrInvalidLabel  = errors.New("invalid label")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidText   = errors.New("invalid text")
	ErrMissingID     = errors.New("missing bill id")
)

// Dates outside [MinYear, MaxYear] are rejected so stored timestamps stay in range.
const (
	MinYear = 1900
	MaxYear = 2200
)

// IsValidation reports whether err was caused by user input rather than storage.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidLabel) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidText)
}

// labels holds the closed label set in display order.
var labels = []Label{Telephone, Food, Daily, Accommodate, Health, Transport, Others}

// Labels returns the fixed label set in display order.
func Labels() []Label {
	return append([]Label(nil), labels...)
}

func (l Label) String() string {
	return string(l)
}

// IsValid reports whether l is one of the fixed bill labels. LabelAll is not valid.
func (l Label) IsValid() bool {
	for _, v := range labels {
		if l == v {
			return true
		}
	}
	return false
}

// ParseLabel parses a bill label, case-insensitively.
func ParseLabel(s string) (Label, error) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, s)
	}
	return l, nil
}

// ParseFilterLabel parses a filter selection: a bill label or "All".
// An empty value selects all labels.
func ParseFilterLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(LabelAll)) {
		return LabelAll, nil
	}
	return ParseLabel(s)
}

// Matches reports whether a bill labelled b passes the filter l.
func (l Label) Matches(b Label) bool {
	return l == LabelAll || l == b
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrMissingID
	}
	if b.Date.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	if y := b.Date.Year(); y < MinYear || y > MaxYear {
		return fmt.Errorf("%w: year %d outside %d-%d", ErrInvalidDate, y, MinYear, MaxYear)
	}
	if !b.Label.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, b.Label)
	}
	if len(b.Place) > 200 {
		return fmt.Errorf("%w: place too long (max 200 characters)", ErrInvalidText)
	}
	if len(b.Note) > 500 {
		return fmt.Errorf("%w: note too long (max 500 characters)", ErrInvalidText)
	}
	return nil
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
