package views

import (
	"context"
	"errors"
	"html/template"
	"sync"

	"bills/internal/chart"
	"bills/internal/chart/svg"
	"bills/internal/core"
)

// ChartSource aggregates the ledger for the pie chart.
type ChartSource interface {
	ChartTotals(ctx context.Context) ([]core.LabelTotal, error)
}

type LegendItem struct {
	Index   int
	Label   core.Label
	Total   core.Money
	Percent string
	Color   string
	Active  bool
}

// ChartsPage is the rendered chart. Empty is set when there is nothing to draw.
type ChartsPage struct {
	Empty  bool
	SVG    template.HTML
	Legend []LegendItem
	Total  core.Money
	Active int
}

type ChartsView struct {
	mu     sync.Mutex
	source ChartSource
	width  float64
	height float64
	active int
}

func NewChartsView(source ChartSource, width, height int) *ChartsView {
	return &ChartsView{source: source, width: float64(width), height: float64(height), active: -1}
}

// Toggle highlights slice i, or clears the highlight when i is already active.
func (v *ChartsView) Toggle(i int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active == i || i < 0 {
		v.active = -1
	} else {
		v.active = i
	}
	return v.active
}

func (v *ChartsView) Active() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

// Page lays out and draws the chart for the current ledger.
func (v *ChartsView) Page(ctx context.Context) (ChartsPage, error) {
	totals, err := v.source.ChartTotals(ctx)
	if err != nil {
		return ChartsPage{}, err
	}
	layout, err := chart.Layout(totals, v.width, v.height)
	if errors.Is(err, chart.ErrNoData) {
		v.Toggle(-1)
		return ChartsPage{Empty: true, Active: -1}, nil
	}
	if err != nil {
		return ChartsPage{}, err
	}

	v.mu.Lock()
	if v.active >= len(layout.Slices) {
		v.active = -1
	}
	active := v.active
	v.mu.Unlock()

	canvas := svg.New(layout.Width, layout.Height, chart.TextColor)
	chart.Draw(canvas, layout, active)

	page := ChartsPage{SVG: canvas.HTML(), Total: layout.Total, Active: active}
	for i, s := range layout.Slices {
		page.Legend = append(page.Legend, LegendItem{
			Index:   i,
			Label:   s.Label,
			Total:   s.Total,
			Percent: s.Percent,
			Color:   s.Color,
			Active:  i == active,
		})
	}
	return page, nil
}
