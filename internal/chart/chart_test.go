package chart

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"bills/internal/core"
)

const eps = 1e-9

func bill(label core.Label, cents int64) core.Bill {
	return core.Bill{ID: string(label), Label: label, Price: core.Money{Cents: cents}, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestTotalsAggregatesAllBills(t *testing.T) {
	bills := []core.Bill{
		bill(core.Food, 1000),
		bill(core.Transport, 2000),
		bill(core.Food, 550),
		bill(core.Health, 2000),
		bill(core.Others, 1),
	}
	got := Totals(bills)
	want := []core.LabelTotal{
		{Label: core.Transport, Total: core.Money{Cents: 2000}},
		{Label: core.Health, Total: core.Money{Cents: 2000}},
		{Label: core.Food, Total: core.Money{Cents: 1550}},
		{Label: core.Others, Total: core.Money{Cents: 1}},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d totals, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("totals[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLayoutSpansCoverCircle(t *testing.T) {
	cases := [][]core.LabelTotal{
		{{Label: core.Food, Total: core.Money{Cents: 1}}},
		{{Label: core.Food, Total: core.Money{Cents: 3333}}, {Label: core.Daily, Total: core.Money{Cents: 3333}}, {Label: core.Health, Total: core.Money{Cents: 3334}}},
		Totals([]core.Bill{bill(core.Food, 101), bill(core.Transport, 7), bill(core.Others, 99999), bill(core.Telephone, 3)}),
	}
	for ci, totals := range cases {
		l, err := Layout(totals, 400, 300)
		if err != nil {
			t.Fatalf("case %d: %v", ci, err)
		}
		var sum float64
		prevEnd := 0.0
		for i, s := range l.Slices {
			if math.Abs(s.Start-prevEnd) > eps {
				t.Fatalf("case %d slice %d starts at %v, previous ended at %v", ci, i, s.Start, prevEnd)
			}
			if s.End < s.Start {
				t.Fatalf("case %d slice %d has negative span", ci, i)
			}
			sum += s.End - s.Start
			prevEnd = s.End
		}
		if math.Abs(sum-2*math.Pi) > eps {
			t.Fatalf("case %d spans sum to %v, want 2π", ci, sum)
		}
		if l.Slices[len(l.Slices)-1].End != 2*math.Pi {
			t.Fatalf("case %d last slice must end at exactly 2π", ci)
		}
	}
}

func TestLayoutGeometry(t *testing.T) {
	totals := []core.LabelTotal{
		{Label: core.Transport, Total: core.Money{Cents: 3000}},
		{Label: core.Food, Total: core.Money{Cents: 1000}},
	}
	l, err := Layout(totals, 400, 300)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if l.Center != (Point{X: 200, Y: 150}) || l.Radius != 140 {
		t.Fatalf("center %+v radius %v", l.Center, l.Radius)
	}
	first := l.Slices[0]
	if first.Start != 0 || math.Abs(first.End-1.5*math.Pi) > eps {
		t.Fatalf("first slice %v..%v", first.Start, first.End)
	}
	if first.Percent != "75.0%" || l.Slices[1].Percent != "25.0%" {
		t.Fatalf("percents %q %q", first.Percent, l.Slices[1].Percent)
	}
	wantX := 200 + (140/1.6)*math.Cos(0.75*math.Pi)
	wantY := 150 + (140/1.6)*math.Sin(0.75*math.Pi)
	if math.Abs(first.LabelAt.X-wantX) > eps || math.Abs(first.LabelAt.Y-wantY) > eps {
		t.Fatalf("label at %+v, want (%v, %v)", first.LabelAt, wantX, wantY)
	}
	if first.Color != Palette[0] || l.Slices[1].Color != Palette[1] {
		t.Fatalf("unexpected colors")
	}
	if got := l.SliceAt(0.1); got != 0 {
		t.Fatalf("SliceAt(0.1) = %d", got)
	}
	if got := l.SliceAt(1.6 * math.Pi); got != 1 {
		t.Fatalf("SliceAt(1.6π) = %d", got)
	}
	if got := l.SliceAt(-0.1); got != 1 {
		t.Fatalf("SliceAt(-0.1) = %d", got)
	}
}

func TestLayoutNoData(t *testing.T) {
	if _, err := Layout(nil, 400, 300); !errors.Is(err, ErrNoData) {
		t.Fatalf("empty totals: got %v, want ErrNoData", err)
	}
	zero := []core.LabelTotal{{Label: core.Food}}
	if _, err := Layout(zero, 400, 300); !errors.Is(err, ErrNoData) {
		t.Fatalf("zero total: got %v, want ErrNoData", err)
	}
	if _, err := Layout([]core.LabelTotal{{Label: core.Food, Total: core.Money{Cents: 1}}}, 10, 10); !errors.Is(err, ErrBadSize) {
		t.Fatalf("tiny canvas: got %v, want ErrBadSize", err)
	}
}

func TestLayoutNegativeTotalsGetEmptySpan(t *testing.T) {
	totals := []core.LabelTotal{
		{Label: core.Food, Total: core.Money{Cents: 1000}},
		{Label: core.Health, Total: core.Money{Cents: -200}},
	}
	l, err := Layout(totals, 200, 200)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if l.Slices[0].End != 2*math.Pi || l.Slices[1].Start != l.Slices[1].End {
		t.Fatalf("unexpected spans: %+v", l.Slices)
	}
}

type recorder struct {
	calls []string
}

func (r *recorder) ClearRect(x, y, w, h float64) {
	r.calls = append(r.calls, fmt.Sprintf("clear %.0f %.0f %.0f %.0f", x, y, w, h))
}
func (r *recorder) BeginPath()          { r.calls = append(r.calls, "begin") }
func (r *recorder) MoveTo(x, y float64) { r.calls = append(r.calls, fmt.Sprintf("move %.0f %.0f", x, y)) }
func (r *recorder) Arc(cx, cy, rad, s, e float64) {
	r.calls = append(r.calls, fmt.Sprintf("arc %.0f %.0f %.0f %.3f %.3f", cx, cy, rad, s, e))
}
func (r *recorder) ClosePath()         { r.calls = append(r.calls, "close") }
func (r *recorder) Fill(color string)  { r.calls = append(r.calls, "fill "+color) }
func (r *recorder) FillText(text string, x, y float64) {
	r.calls = append(r.calls, "text "+text)
}

func TestDrawCallSequence(t *testing.T) {
	l, err := Layout([]core.LabelTotal{
		{Label: core.Food, Total: core.Money{Cents: 500}},
		{Label: core.Daily, Total: core.Money{Cents: 500}},
	}, 200, 200)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	rec := &recorder{}
	Draw(rec, l, -1)
	want := []string{
		"clear 0 0 200 200",
		"begin", "move 100 100", "arc 100 100 90 0.000 3.142", "close", "fill #FF6384", "text food", "text 50.0%",
		"begin", "move 100 100", "arc 100 100 90 3.142 6.283", "close", "fill #36A2EB", "text daily", "text 50.0%",
	}
	if strings.Join(rec.calls, "\n") != strings.Join(want, "\n") {
		t.Fatalf("calls:\n%s\nwant:\n%s", strings.Join(rec.calls, "\n"), strings.Join(want, "\n"))
	}
}

func TestDrawHighlightFadesOthers(t *testing.T) {
	l, _ := Layout([]core.LabelTotal{
		{Label: core.Food, Total: core.Money{Cents: 500}},
		{Label: core.Daily, Total: core.Money{Cents: 500}},
	}, 200, 200)
	plain, active := &recorder{}, &recorder{}
	Draw(plain, l, -1)
	Draw(active, l, 1)

	var fills []string
	for i, c := range active.calls {
		if strings.HasPrefix(c, "fill ") {
			fills = append(fills, c)
			continue
		}
		if c != plain.calls[i] {
			t.Fatalf("highlight changed geometry: %q vs %q", c, plain.calls[i])
		}
	}
	if fills[0] != "fill #FF638430" || fills[1] != "fill #36A2EB" {
		t.Fatalf("unexpected fills: %v", fills)
	}
}
