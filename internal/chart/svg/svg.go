// Package svg implements chart.Surface by emitting inline SVG markup.
package svg

import (
	"html"
	"html/template"
	"math"
	"strconv"
	"strings"
)

const fontSize = 14

// Canvas records drawing calls as SVG elements. The zero value is not usable; use New.
type Canvas struct {
	width, height float64
	path          strings.Builder
	elems         []string
	textColor     string
}

func New(width, height float64, textColor string) *Canvas {
	return &Canvas{width: width, height: height, textColor: textColor}
}

// ClearRect drops everything drawn so far. Partial clears are not supported;
// the region is only used to grow the view box.
func (c *Canvas) ClearRect(x, y, w, h float64) {
	c.elems = c.elems[:0]
	c.path.Reset()
	if x+w > c.width {
		c.width = x + w
	}
	if y+h > c.height {
		c.height = y + h
	}
}

func (c *Canvas) BeginPath() {
	c.path.Reset()
}

func (c *Canvas) MoveTo(x, y float64) {
	c.cmd("M", x, y)
}

// Arc appends a clockwise arc. Without a current point it moves to the arc start,
// otherwise it draws a line to it first, like a 2D canvas context.
func (c *Canvas) Arc(cx, cy, r, start, end float64) {
	span := end - start
	if span <= 0 {
		return
	}
	sx, sy := cx+r*math.Cos(start), cy+r*math.Sin(start)
	if c.path.Len() == 0 {
		c.cmd("M", sx, sy)
	} else {
		c.cmd("L", sx, sy)
	}
	// A single SVG arc cannot describe a full circle.
	if span >= 2*math.Pi-1e-9 {
		mid := start + math.Pi
		c.arcTo(r, false, cx+r*math.Cos(mid), cy+r*math.Sin(mid))
		c.arcTo(r, false, sx, sy)
		return
	}
	c.arcTo(r, span > math.Pi, cx+r*math.Cos(end), cy+r*math.Sin(end))
}

func (c *Canvas) ClosePath() {
	c.path.WriteString("Z")
}

// Fill paints the current path. Colors in #RRGGBBAA form are split into a fill and an opacity.
func (c *Canvas) Fill(color string) {
	if c.path.Len() == 0 {
		return
	}
	fill, opacity := splitAlpha(color)
	var b strings.Builder
	b.WriteString(`<path d="`)
	b.WriteString(strings.TrimSpace(c.path.String()))
	b.WriteString(`" fill="`)
	b.WriteString(html.EscapeString(fill))
	b.WriteString(`"`)
	if opacity != "" {
		b.WriteString(` fill-opacity="` + opacity + `"`)
	}
	b.WriteString(`/>`)
	c.elems = append(c.elems, b.String())
}

func (c *Canvas) FillText(text string, x, y float64) {
	c.elems = append(c.elems, `<text x="`+num(x)+`" y="`+num(y)+`" fill="`+html.EscapeString(c.textColor)+
		`" font-size="`+strconv.Itoa(fontSize)+`" text-anchor="middle" dominant-baseline="middle">`+
		html.EscapeString(text)+`</text>`)
}

// String returns the complete SVG document.
func (c *Canvas) String() string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" role="img" width="` + num(c.width) +
		`" height="` + num(c.height) + `" viewBox="0 0 ` + num(c.width) + ` ` + num(c.height) + `">`)
	for _, e := range c.elems {
		b.WriteString(e)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// HTML returns the document for inline use in html/template. Every text node and
// attribute value is escaped when recorded.
func (c *Canvas) HTML() template.HTML {
	return template.HTML(c.String()) // #nosec G203 -- markup built from escaped values
}

func (c *Canvas) cmd(op string, x, y float64) {
	c.path.WriteString(op + num(x) + " " + num(y) + " ")
}

func (c *Canvas) arcTo(r float64, large bool, x, y float64) {
	flag := "0"
	if large {
		flag = "1"
	}
	c.path.WriteString("A" + num(r) + " " + num(r) + " 0 " + flag + " 1 " + num(x) + " " + num(y) + " ")
}

func splitAlpha(color string) (string, string) {
	if len(color) != 9 || color[0] != '#' {
		return color, ""
	}
	a, err := strconv.ParseUint(color[7:], 16, 8)
	if err != nil {
		return color, ""
	}
	return color[:7], strconv.FormatFloat(float64(a)/255, 'f', 3, 64)
}

func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
