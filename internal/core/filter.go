package core

import "sort"

type (
	// LabelTotal is an amount aggregated by label.
	LabelTotal struct {
		Label Label
		Total Money
	}

	// WeekSummary is the visible subset of bills for a week and label filter.
	WeekSummary struct {
		Week    Week
		Label   Label
		Bills   []Bill
		Total   Money
		ByLabel map[Label]Money
	}
)

// FilterWeek selects the bills of week w that match label and sums them.
//
// Bills keep their input order. Amounts are integer cents, so the running per-label
// sums and the total are exact and the per-label sums always add up to the total.
func FilterWeek(bills []Bill, w Week, label Label) WeekSummary {
	s := WeekSummary{
		Week:    w,
		Label:   label,
		Bills:   []Bill{},
		ByLabel: map[Label]Money{},
	}
	for _, b := range bills {
		if !w.Contains(b.Date) || !label.Matches(b.Label) {
			continue
		}
		s.Bills = append(s.Bills, b)
		s.Total = s.Total.Add(b.Price)
		s.ByLabel[b.Label] = s.ByLabel[b.Label].Add(b.Price)
	}
	return s
}

// LabelTotals returns the per-label sums in the fixed label display order,
// skipping labels with no bills.
func (s WeekSummary) LabelTotals() []LabelTotal {
	out := make([]LabelTotal, 0, len(s.ByLabel))
	for _, l := range labels {
		if m, ok := s.ByLabel[l]; ok {
			out = append(out, LabelTotal{Label: l, Total: m})
		}
	}
	return out
}

// SortByDateDesc orders bills newest first. Bills on the same instant keep their
// relative order.
func SortByDateDesc(bills []Bill) {
	sort.SliceStable(bills, func(i, j int) bool {
		return bills[i].Date.After(bills[j].Date)
	})
}
