package core

import "time"

// Week is a Monday-start calendar week. The zero value is not a valid week; use WeekOf.
type Week struct {
	start time.Time
}

// WeekOf returns the week containing t, anchored at Monday 00:00:00 in t's location.
func WeekOf(t time.Time) Week {
	day := StartOfDay(t)
	// time.Weekday counts from Sunday = 0; shift so Monday = 0.
	offset := (int(day.Weekday()) + 6) % 7
	return Week{start: day.AddDate(0, 0, -offset)}
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of t's day in its location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// Start returns Monday 00:00:00.000.
func (w Week) Start() time.Time {
	return w.start
}

// End returns Sunday 23:59:59.999.
func (w Week) End() time.Time {
	return EndOfDay(w.start.AddDate(0, 0, 6))
}

// Contains reports whether t's calendar day, in the week's location, falls in the week.
// The time of day is ignored.
func (w Week) Contains(t time.Time) bool {
	day := StartOfDay(t.In(w.start.Location()))
	return !day.Before(w.start) && !day.After(w.End())
}

// Next returns the week seven calendar days later.
func (w Week) Next() Week {
	return Week{start: w.start.AddDate(0, 0, 7)}
}

// Prev returns the week seven calendar days earlier.
func (w Week) Prev() Week {
	return Week{start: w.start.AddDate(0, 0, -7)}
}

// Equal reports whether both weeks start on the same instant.
func (w Week) Equal(o Week) bool {
	return w.start.Equal(o.start)
}

// Days returns the seven days of the week, Monday first.
func (w Week) Days() []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = w.start.AddDate(0, 0, i)
	}
	return days
}

// Key returns a stable string for the week, e.g. "2024-01-01".
func (w Week) Key() string {
	return w.start.Format(DateLayout)
}
