package chart

// Surface is a canvas-like 2D drawing target.
type Surface interface {
	ClearRect(x, y, w, h float64)
	BeginPath()
	MoveTo(x, y float64)
	// Arc adds a clockwise arc around (cx, cy) from start to end radians.
	Arc(cx, cy, r, start, end float64)
	ClosePath()
	Fill(color string)
	FillText(text string, x, y float64)
}

// Text offsets around a slice's label point, in pixels.
const (
	labelOffsetY   = -6
	percentOffsetY = 9
)

// Draw clears the surface and paints every slice of l. Slices other than active are
// faded; active < 0 highlights nothing. Geometry does not depend on active.
func Draw(s Surface, l PieLayout, active int) {
	s.ClearRect(0, 0, l.Width, l.Height)
	for i, sl := range l.Slices {
		s.BeginPath()
		s.MoveTo(l.Center.X, l.Center.Y)
		s.Arc(l.Center.X, l.Center.Y, l.Radius, sl.Start, sl.End)
		s.ClosePath()
		s.Fill(l.FillColor(i, active))

		s.FillText(sl.Label.String(), sl.LabelAt.X, sl.LabelAt.Y+labelOffsetY)
		s.FillText(sl.Percent, sl.LabelAt.X, sl.LabelAt.Y+percentOffsetY)
	}
}
