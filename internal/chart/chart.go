// Package chart aggregates bills by label and lays them out as a pie chart.
//
// The layout is pure geometry; Draw replays it as a sequence of canvas-like calls
// against a Surface, so any 2D backend can render it.
package chart

import (
	"errors"
	"math"
	"sort"
	"strconv"

	"bills/internal/core"
)

var (
	// ErrNoData is returned when there is nothing to draw (no bills or a non-positive total).
	ErrNoData = errors.New("no chart data")
	// ErrBadSize is returned when the canvas is too small to hold a pie.
	ErrBadSize = errors.New("canvas too small")
)

const (
	// margin between the pie and the canvas border, in pixels.
	margin = 10
	// labelDistance places slice labels at radius/labelDistance from the center.
	labelDistance = 1.6
	// fadeAlpha is appended to a hex color to fade slices that are not highlighted.
	fadeAlpha = "30"
	// TextColor is the fill used for slice labels.
	TextColor = "white"
)

// Palette holds the slice colors, reused cyclically.
var Palette = []string{"#FF6384", "#36A2EB", "#FACE56", "#4BC0C0", "#9952FF", "#FF9F40", "#A8ABCF"}

type (
	Point struct {
		X, Y float64
	}

	// Slice is one label's wedge. Angles are radians, clockwise from the positive x axis.
	Slice struct {
		Label   core.Label
		Total   core.Money
		Start   float64
		End     float64
		Mid     float64
		Share   float64 // fraction of the grand total, 0..1
		Percent string  // e.g. "42.5%"
		LabelAt Point
		Color   string
	}

	PieLayout struct {
		Width  float64
		Height float64
		Center Point
		Radius float64
		Total  core.Money
		Slices []Slice
	}
)

// Totals sums prices by label over every bill given, largest total first.
// Labels with equal totals keep the order in which they were first seen.
func Totals(bills []core.Bill) []core.LabelTotal {
	index := map[core.Label]int{}
	var out []core.LabelTotal
	for _, b := range bills {
		i, ok := index[b.Label]
		if !ok {
			i = len(out)
			index[b.Label] = i
			out = append(out, core.LabelTotal{Label: b.Label})
		}
		out[i].Total = out[i].Total.Add(b.Price)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})
	return out
}

// Layout computes the slices of a pie centered in a width x height canvas.
//
// Slices follow the order of totals, starting at angle 0. Spans are proportional to
// each total's share of the positive grand total and cover [0, 2π) without gaps;
// the last slice ends at exactly 2π. Non-positive totals get an empty span.
func Layout(totals []core.LabelTotal, width, height float64) (PieLayout, error) {
	center := Point{X: width / 2, Y: height / 2}
	radius := math.Min(center.X, center.Y) - margin
	if radius <= 0 {
		return PieLayout{}, ErrBadSize
	}

	var grand core.Money
	last := -1
	for i, t := range totals {
		if t.Total.Cents > 0 {
			grand = grand.Add(t.Total)
			last = i
		}
	}
	if grand.Cents <= 0 {
		return PieLayout{}, ErrNoData
	}

	l := PieLayout{
		Width:  width,
		Height: height,
		Center: center,
		Radius: radius,
		Total:  grand,
		Slices: make([]Slice, 0, len(totals)),
	}
	start := 0.0
	for i, t := range totals {
		share := 0.0
		if t.Total.Cents > 0 {
			share = float64(t.Total.Cents) / float64(grand.Cents)
		}
		end := start + share*2*math.Pi
		if i == last {
			end = 2 * math.Pi
		}
		mid := start + (end-start)/2
		l.Slices = append(l.Slices, Slice{
			Label:   t.Label,
			Total:   t.Total,
			Start:   start,
			End:     end,
			Mid:     mid,
			Share:   share,
			Percent: strconv.FormatFloat(share*100, 'f', 1, 64) + "%",
			LabelAt: Point{
				X: center.X + (radius/labelDistance)*math.Cos(mid),
				Y: center.Y + (radius/labelDistance)*math.Sin(mid),
			},
			Color: Palette[i%len(Palette)],
		})
		start = end
	}
	return l, nil
}

// SliceAt returns the index of the slice containing angle a (radians), or -1.
func (l PieLayout) SliceAt(a float64) int {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	for i, s := range l.Slices {
		if a >= s.Start && a < s.End {
			return i
		}
	}
	return -1
}

// FillColor returns the fill for slice i given the active index.
// With no active slice (active < 0) every slice keeps its base color.
func (l PieLayout) FillColor(i, active int) string {
	c := l.Slices[i].Color
	if active < 0 || active == i {
		return c
	}
	return c + fadeAlpha
}
