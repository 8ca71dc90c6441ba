package layout

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"github.com/gompdf/gomsheet/internal/surface"
)

// Options represents options for the layout engine. Lengths are CSS pixels and are
// multiplied by Scale.
type Options struct {
	Width        float64
	Height       float64
	Margin       float64
	FooterHeight float64
	Scale        float64
}

// DefaultOptions is an A4 page at 96 DPI.
func DefaultOptions() Options {
	return Options{
		Width:        794,
		Height:       1123,
		Margin:       38,
		FooterHeight: 24,
		Scale:        1,
	}
}

// Engine turns the page container into boxes
type Engine struct {
	options Options
}

// NewEngine creates a new layout engine
func NewEngine() *Engine {
	return &Engine{options: DefaultOptions()}
}

// SetOptions sets the options for the layout engine
func (e *Engine) SetOptions(options Options) {
	if options.Scale <= 0 {
		options.Scale = 1
	}
	e.options = options
}

// Layout stacks the header and exercise cards top to bottom. Height units from the
// container's data attributes are mapped so that a full page budget fills the area
// between the margins and the footer.
func (e *Engine) Layout(root *html.Node) (*Page, error) {
	if root == nil {
		return nil, fmt.Errorf("nothing to lay out")
	}
	s := e.options.Scale
	page := &Page{Width: e.options.Width * s, Height: e.options.Height * s}

	margin := e.options.Margin * s
	footer := e.options.FooterHeight * s
	usable := page.Height - 2*margin - footer

	budget := parseUnits(surface.Attr(root, "data-budget"), 0)
	if budget <= 0 {
		return nil, fmt.Errorf("page container has no height budget")
	}
	perUnit := usable / budget
	spacing := parseUnits(surface.Attr(root, "data-spacing"), 0) * perUnit
	width := page.Width - 2*margin

	y := margin
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch {
		case surface.HasClass(c, surface.ClassHeader):
			h := parseUnits(surface.Attr(c, "data-height"), 0) * perUnit
			page.Boxes = append(page.Boxes, Box{Node: c, Kind: KindHeader, X: margin, Y: y, Width: width, Height: h})
			y += h
		case surface.HasClass(c, surface.ClassExercise):
			h := parseUnits(surface.Attr(c, "data-height"), 0) * perUnit
			page.Boxes = append(page.Boxes, Box{Node: c, Kind: KindExercise, X: margin, Y: y + spacing/2, Width: width, Height: h})
			y += h + spacing
		case surface.HasClass(c, surface.ClassFooter):
			page.Boxes = append(page.Boxes, Box{Node: c, Kind: KindFooter, X: margin, Y: page.Height - margin - footer, Width: width, Height: footer})
		}
	}
	return page, nil
}

func parseUnits(v string, def float64) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
