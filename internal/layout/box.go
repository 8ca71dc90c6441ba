package layout

import (
	"golang.org/x/net/html"
)

// Kind is the role of a laid out box on the page.
type Kind int

const (
	KindHeader Kind = iota
	KindExercise
	KindFooter
)

// Box is a positioned page element in device pixels.
type Box struct {
	Node   *html.Node
	Kind   Kind
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Bottom returns the y coordinate of the lower edge.
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Page is the laid out page container.
type Page struct {
	Width  float64
	Height float64
	Boxes  []Box
}
