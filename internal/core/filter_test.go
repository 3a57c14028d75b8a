package core

import (
	"reflect"
	"testing"
	"time"
)

func sampleBills() []Bill {
	return []Bill{
		{ID: "1", Label: Food, Price: Money{Cents: 1000}, Date: day(2024, time.January, 1)},
		{ID: "2", Label: Food, Price: Money{Cents: 500}, Date: day(2024, time.January, 3)},
		{ID: "3", Label: Transport, Price: Money{Cents: 2000}, Date: day(2024, time.January, 2)},
		{ID: "4", Label: Health, Price: Money{Cents: 999}, Date: day(2024, time.January, 9)},
	}
}

func TestFilterWeekExample(t *testing.T) {
	s := FilterWeek(sampleBills(), WeekOf(day(2024, time.January, 2)), LabelAll)
	if len(s.Bills) != 3 {
		t.Fatalf("expected 3 bills, got %d", len(s.Bills))
	}
	if s.Total.String() != "35.00" {
		t.Fatalf("total = %s, want 35.00", s.Total)
	}
	want := map[Label]Money{Food: {Cents: 1500}, Transport: {Cents: 2000}}
	if !reflect.DeepEqual(s.ByLabel, want) {
		t.Fatalf("ByLabel = %v, want %v", s.ByLabel, want)
	}
}

func TestFilterWeekByLabel(t *testing.T) {
	s := FilterWeek(sampleBills(), WeekOf(day(2024, time.January, 2)), Transport)
	if len(s.Bills) != 1 || s.Bills[0].ID != "3" {
		t.Fatalf("unexpected bills: %+v", s.Bills)
	}
	if s.Total.Cents != 2000 {
		t.Fatalf("total = %d", s.Total.Cents)
	}
	if _, ok := s.ByLabel[Food]; ok {
		t.Fatalf("food must not appear when filtering transport")
	}
}

func TestFilterWeekEmpty(t *testing.T) {
	s := FilterWeek(sampleBills(), WeekOf(day(2030, time.June, 5)), LabelAll)
	if len(s.Bills) != 0 || s.Total.Cents != 0 || len(s.ByLabel) != 0 {
		t.Fatalf("expected empty summary, got %+v", s)
	}
	if s.Bills == nil {
		t.Fatalf("Bills should be an empty slice, not nil")
	}
}

func TestFilterWeekIdempotent(t *testing.T) {
	bills := sampleBills()
	w := WeekOf(day(2024, time.January, 2))
	a := FilterWeek(bills, w, LabelAll)
	b := FilterWeek(bills, w, LabelAll)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("filtering twice gave different results")
	}
}

func TestFilterWeekLabelSumsEqualTotal(t *testing.T) {
	// Amounts that drift when summed as binary floats.
	var bills []Bill
	for i := 0; i < 50; i++ {
		l := labels[i%len(labels)]
		bills = append(bills, Bill{ID: "x", Label: l, Price: Money{Cents: int64(10 + i*3)}, Date: day(2024, time.January, 1+i%7)})
	}
	s := FilterWeek(bills, WeekOf(day(2024, time.January, 1)), LabelAll)
	var sum Money
	for _, lt := range s.LabelTotals() {
		sum = sum.Add(lt.Total)
	}
	if sum != s.Total {
		t.Fatalf("label sums %s != total %s", sum, s.Total)
	}
}

func TestLabelTotalsOrder(t *testing.T) {
	s := FilterWeek(sampleBills(), WeekOf(day(2024, time.January, 2)), LabelAll)
	got := s.LabelTotals()
	if len(got) != 2 || got[0].Label != Food || got[1].Label != Transport {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestSortByDateDesc(t *testing.T) {
	bills := sampleBills()
	bills = append(bills, Bill{ID: "5", Date: day(2024, time.January, 3)})
	SortByDateDesc(bills)
	var ids []string
	for _, b := range bills {
		ids = append(ids, b.ID)
	}
	want := []string{"4", "2", "5", "3", "1"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}
}
