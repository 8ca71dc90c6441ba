package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gompdf/gomsheet/internal/layout"
	"github.com/gompdf/gomsheet/internal/pkg/logger"
	"github.com/gompdf/gomsheet/internal/res"
	"github.com/gompdf/gomsheet/internal/surface"
	"github.com/gompdf/gomsheet/internal/text"
)

// TransientAttr marks elements that only exist on screen (toolbars, drag handles) and
// are dropped from captures when Options.RemoveContainer is set.
const TransientAttr = "data-transient"

// Options controls a capture.
type Options struct {
	// Scale is the supersampling factor applied to the CSS pixel page size.
	Scale float64
	// UseCORS allows images from other origins (http and https URLs) to be drawn.
	UseCORS bool
	// Background fills the bitmap before anything is drawn.
	Background color.Color
	// Hinting is the font rendering mode.
	Hinting font.Hinting
	// Logging enables per element debug logs.
	Logging bool
	// ImageTimeout bounds each image load; zero means no timeout.
	ImageTimeout time.Duration
	// RemoveContainer drops transient elements from the capture.
	RemoveContainer bool
}

// DefaultOptions returns the capture settings used for PDF export.
func DefaultOptions() Options {
	return Options{
		Scale:           2,
		UseCORS:         true,
		Background:      color.White,
		Hinting:         font.HintingFull,
		Logging:         false,
		ImageTimeout:    0,
		RemoveContainer: true,
	}
}

// Rasterizer draws the page container built by the render surface into a bitmap.
type Rasterizer struct {
	fonts  *text.FontSet
	loader *res.Loader
	log    *logger.Logger
	Layout layout.Options
}

// New creates a rasterizer. A nil loader gets a default one.
func New(fonts *text.FontSet, loader *res.Loader, log *logger.Logger) *Rasterizer {
	if fonts == nil {
		fonts = text.NewFontSet()
	}
	if loader == nil {
		loader = res.NewLoader()
	}
	return &Rasterizer{
		fonts:  fonts,
		loader: loader,
		log:    logger.OrNop(log).With("component", "raster"),
		Layout: layout.DefaultOptions(),
	}
}

// Rasterize captures el.
func (r *Rasterizer) Rasterize(ctx context.Context, el *html.Node, opts Options) (Bitmap, error) {
	if el == nil {
		return nil, fmt.Errorf("no element to capture")
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	if err := r.fonts.Ready(ctx); err != nil {
		return nil, fmt.Errorf("fonts not ready: %w", err)
	}

	lo := r.Layout
	lo.Scale = opts.Scale
	engine := layout.NewEngine()
	engine.SetOptions(lo)
	page, err := engine.Layout(el)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out page: %w", err)
	}

	p := &painter{
		r:     r,
		opts:  opts,
		dc:    gg.NewContext(int(page.Width), int(page.Height)),
		faces: make(map[faceKey]font.Face),
		scale: opts.Scale,
	}
	p.dc.SetColor(opts.Background)
	p.dc.Clear()
	p.drawBorder(surface.Attr(el, "data-border"), lo.Margin*opts.Scale, page)

	for _, box := range page.Boxes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.RemoveContainer && surface.Attr(box.Node, TransientAttr) != "" {
			continue
		}
		if opts.Logging {
			r.log.Debug("drawing box", "kind", box.Kind, "x", box.X, "y", box.Y, "w", box.Width, "h", box.Height)
		}
		var err error
		switch box.Kind {
		case layout.KindHeader:
			err = p.drawHeader(ctx, box)
		case layout.KindExercise:
			err = p.drawExercise(ctx, box)
		case layout.KindFooter:
			err = p.drawFooter(box)
		}
		if err != nil {
			return nil, err
		}
	}
	return NewCanvas(p.dc.Image()), nil
}

type faceKey struct {
	size float64
	bold bool
}

type painter struct {
	r     *Rasterizer
	opts  Options
	dc    *gg.Context
	faces map[faceKey]font.Face
	scale float64
}

var borderColors = map[string]color.Color{
	"simple":  color.RGBA{R: 60, G: 60, B: 60, A: 255},
	"stars":   color.RGBA{R: 245, G: 180, B: 0, A: 255},
	"flowers": color.RGBA{R: 220, G: 90, B: 140, A: 255},
}

var inkColor = color.RGBA{R: 31, G: 41, B: 55, A: 255}
var traceColor = color.RGBA{R: 190, G: 190, B: 190, A: 255}

func (p *painter) setFont(size float64, bold bool) error {
	key := faceKey{size: size * p.scale, bold: bold}
	face, ok := p.faces[key]
	if !ok {
		var err error
		face, err = p.r.fonts.Face(key.size, bold, p.opts.Hinting)
		if err != nil {
			return err
		}
		p.faces[key] = face
	}
	p.dc.SetFontFace(face)
	return nil
}

func (p *painter) drawBorder(theme string, inset float64, page *layout.Page) {
	c, ok := borderColors[theme]
	if !ok {
		return
	}
	p.dc.SetColor(c)
	p.dc.SetLineWidth(3 * p.scale)
	if theme == "stars" {
		p.dc.SetDash(8*p.scale, 6*p.scale)
	}
	p.dc.DrawRoundedRectangle(inset/2, inset/2, page.Width-inset, page.Height-inset, 12*p.scale)
	p.dc.Stroke()
	p.dc.SetDash()
}

// text draws s wrapped to width starting at top and returns the y below it.
func (p *painter) text(s string, x, top, width float64, rtl bool) float64 {
	lineHeight := p.dc.FontHeight() * 1.4
	for _, ln := range p.dc.WordWrap(s, width) {
		if rtl {
			p.dc.DrawStringAnchored(ln, x+width, top, 1, 1)
		} else {
			p.dc.DrawStringAnchored(ln, x, top, 0, 1)
		}
		top += lineHeight
	}
	return top
}

func (p *painter) drawHeader(ctx context.Context, box layout.Box) error {
	s := p.scale
	x := box.X
	for c := box.Node.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == atom.Img && surface.HasClass(c, surface.ClassLogo) {
			size := box.Height * 0.6
			if err := p.drawImage(ctx, surface.Attr(c, "src"), box.X, box.Y, size, size); err != nil {
				p.r.log.Warn("logo skipped", "error", err)
			} else {
				x = box.X + size + 12*s
			}
		}
	}

	p.dc.SetColor(inkColor)
	if err := p.setFont(12, false); err != nil {
		return err
	}
	infoY := box.Y
	for c := box.Node.FirstChild; c != nil; c = c.NextSibling {
		if surface.HasClass(c, "school-name") || surface.HasClass(c, "teacher-name") {
			content := surface.TextContent(c)
			infoY = p.text(content, x, infoY, box.X+box.Width-x, text.IsRTL(content))
		}
	}

	titleY := box.Y + box.Height*0.35
	for c := box.Node.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case surface.HasClass(c, "worksheet-title"):
			if err := p.setFont(26, true); err != nil {
				return err
			}
			p.dc.DrawStringAnchored(surface.TextContent(c), box.X+box.Width/2, max(titleY, infoY), 0.5, 1)
		case surface.HasClass(c, "student-line"):
			if err := p.setFont(14, false); err != nil {
				return err
			}
			p.dc.DrawStringAnchored(surface.TextContent(c), box.X, box.Y+box.Height*0.75, 0, 1)
		}
	}

	p.dc.SetLineWidth(1.5 * s)
	p.dc.DrawLine(box.X, box.Bottom()-4*s, box.X+box.Width, box.Bottom()-4*s)
	p.dc.Stroke()
	return nil
}

func (p *painter) drawExercise(ctx context.Context, box layout.Box) error {
	s := p.scale
	pad := 12 * s

	p.dc.SetColor(color.RGBA{R: 209, G: 213, B: 219, A: 255})
	p.dc.SetLineWidth(1.5 * s)
	p.dc.DrawRoundedRectangle(box.X, box.Y, box.Width, box.Height, 10*s)
	p.dc.Stroke()

	p.dc.Push()
	defer p.dc.Pop()
	p.dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	p.dc.Clip()

	x := box.X + pad
	width := box.Width - 2*pad
	y := box.Y + pad
	bottom := box.Bottom() - pad

	for c := box.Node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if p.opts.RemoveContainer && surface.Attr(c, TransientAttr) != "" {
			continue
		}
		rtl := surface.Attr(c, "dir") == "rtl"
		switch {
		case c.DataAtom == atom.H2:
			if err := p.setFont(18, true); err != nil {
				return err
			}
			p.dc.SetColor(inkColor)
			y = p.text(surface.TextContent(c), x, y, width, rtl) + 4*s
		case surface.HasClass(c, "swatch"):
			if err := p.setFont(15, false); err != nil {
				return err
			}
			r := 9 * s
			p.dc.SetColor(parseColorName(surface.Attr(c, "data-color")))
			p.dc.DrawCircle(x+r, y+r, r)
			p.dc.Fill()
			p.dc.SetColor(inkColor)
			y = p.text(surface.TextContent(c), x+3*r, y, width-3*r, rtl)
		case surface.HasClass(c, surface.ClassLine):
			if err := p.setFont(15, false); err != nil {
				return err
			}
			p.dc.SetColor(inkColor)
			y = p.text(surface.TextContent(c), x, y, width, rtl)
		case surface.HasClass(c, surface.ClassTrace):
			if err := p.setFont(40, false); err != nil {
				return err
			}
			top := y
			p.dc.SetColor(traceColor)
			y = p.text(surface.TextContent(c), x, y, width, rtl)
			p.dc.SetDash(4*s, 4*s)
			p.dc.SetLineWidth(1 * s)
			for ly := top + p.dc.FontHeight(); ly < y; ly += p.dc.FontHeight() * 1.4 {
				p.dc.DrawLine(x, ly, x+width, ly)
				p.dc.Stroke()
			}
			p.dc.SetDash()
		case surface.HasClass(c, surface.ClassCanvas):
			p.dc.SetColor(traceColor)
			p.dc.SetLineWidth(1.5 * s)
			p.dc.SetDash(6*s, 6*s)
			p.dc.DrawRectangle(x, y+4*s, width, max(bottom-y-4*s, 0))
			p.dc.Stroke()
			p.dc.SetDash()
			y = bottom
		case c.DataAtom == atom.Img:
			size := min(width, bottom-y)
			if size <= 0 {
				continue
			}
			if err := p.drawImage(ctx, surface.Attr(c, "src"), x+(width-size)/2, y, size, size); err != nil {
				p.r.log.Warn("image skipped", "error", err)
			}
			y += size
		}
	}
	return nil
}

func (p *painter) drawFooter(box layout.Box) error {
	if err := p.setFont(11, false); err != nil {
		return err
	}
	p.dc.SetColor(color.RGBA{R: 107, G: 114, B: 128, A: 255})
	p.dc.DrawStringAnchored(surface.TextContent(box.Node), box.X+box.Width/2, box.Y+box.Height/2, 0.5, 0.5)
	return nil
}

// drawImage loads src and draws it inside the w x h area, preserving its aspect ratio.
func (p *painter) drawImage(ctx context.Context, src string, x, y, w, h float64) error {
	if !p.opts.UseCORS && (strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")) {
		return fmt.Errorf("cross-origin image not allowed: %s", src)
	}
	if p.opts.ImageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ImageTimeout)
		defer cancel()
	}
	resource, err := p.r.loader.LoadImage(ctx, src)
	if err != nil {
		return err
	}

	iw, ih := int(w), int(h)
	if iw <= 0 || ih <= 0 {
		return nil
	}
	var img image.Image
	if resource.IsSVG() {
		img, err = rasterizeSVG(resource.Data, iw, ih)
	} else {
		img, err = decodeScaled(resource.Data, iw, ih)
	}
	if err != nil {
		return err
	}
	b := img.Bounds()
	p.dc.DrawImage(img, int(x+(w-float64(b.Dx()))/2), int(y+(h-float64(b.Dy()))/2))
	return nil
}

func rasterizeSVG(data []byte, w, h int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw > 0 && vh > 0 {
		w, h = fitInside(vw, vh, w, h)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img, nil
}

func decodeScaled(data []byte, w, h int) (image.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	sb := src.Bounds()
	w, h = fitInside(float64(sb.Dx()), float64(sb.Dy()), w, h)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	return dst, nil
}

// fitInside scales a sw x sh source to the largest size fitting in w x h.
func fitInside(sw, sh float64, w, h int) (int, int) {
	if sw <= 0 || sh <= 0 {
		return w, h
	}
	ratio := min(float64(w)/sw, float64(h)/sh)
	return max(int(sw*ratio), 1), max(int(sh*ratio), 1)
}

var namedColors = map[string]color.RGBA{
	"red":    {R: 220, G: 38, B: 38, A: 255},
	"blue":   {R: 37, G: 99, B: 235, A: 255},
	"yellow": {R: 250, G: 204, B: 21, A: 255},
	"green":  {R: 22, G: 163, B: 74, A: 255},
	"orange": {R: 249, G: 115, B: 22, A: 255},
	"purple": {R: 147, G: 51, B: 234, A: 255},
	"pink":   {R: 236, G: 72, B: 153, A: 255},
	"brown":  {R: 146, G: 64, B: 14, A: 255},
	"black":  {R: 0, G: 0, B: 0, A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
}

func parseColorName(name string) color.Color {
	name = strings.ToLower(strings.TrimSpace(name))
	if c, ok := namedColors[name]; ok {
		return c
	}
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		var r, g, b uint8
		if _, err := fmt.Sscanf(name, "#%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGBA{R: r, G: g, B: b, A: 255}
		}
	}
	return color.Gray{Y: 128}
}
