package raster

import (
	"context"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/gompdf/gomsheet/internal/pagination"
	"github.com/gompdf/gomsheet/internal/res"
	"github.com/gompdf/gomsheet/internal/surface"
	"github.com/gompdf/gomsheet/internal/text"
	"github.com/gompdf/gomsheet/internal/worksheet"
)

func mountedSurface(t *testing.T, types ...worksheet.Type) *surface.Surface {
	t.Helper()
	engine := pagination.NewEngine()
	store := worksheet.NewStore(worksheet.Worksheet{Title: "Shapes", BorderTheme: worksheet.BorderStars}, engine)
	for _, typ := range types {
		store.AddExercise(typ)
	}
	s := surface.New(store, engine, nil, nil)
	t.Cleanup(s.Unmount)
	s.Reflow()
	return s
}

func TestRasterize_PageSizeFollowsScale(t *testing.T) {
	s := mountedSurface(t, worksheet.TypeCounting, worksheet.TypeColoring)
	r := New(s.Fonts(), res.NewLoader(), nil)

	opts := DefaultOptions()
	opts.Scale = 1
	bmp, err := r.Rasterize(context.Background(), s.Element(), opts)
	require.NoError(t, err)
	assert.Equal(t, 794, bmp.Width())
	assert.Equal(t, 1123, bmp.Height())

	opts.Scale = 2
	bmp, err = r.Rasterize(context.Background(), s.Element(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1588, bmp.Width())
	assert.Equal(t, 2246, bmp.Height())
}

func TestRasterize_BackgroundAndPNG(t *testing.T) {
	s := mountedSurface(t, worksheet.TypeTracing)
	r := New(s.Fonts(), nil, nil)

	opts := DefaultOptions()
	opts.Scale = 1
	bmp, err := r.Rasterize(context.Background(), s.Element(), opts)
	require.NoError(t, err)

	canvas, ok := bmp.(*Canvas)
	require.True(t, ok)
	// The top left corner lies outside the border and the margins.
	red, green, blue, _ := canvas.Image().At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), red)
	assert.Equal(t, uint32(0xffff), green)
	assert.Equal(t, uint32(0xffff), blue)

	url, err := bmp.PNGDataURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	decoded, err := res.ParseDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, "image/png", decoded.MimeType)
	assert.NotEmpty(t, decoded.Data)
}

func TestRasterize_AllExerciseTypes(t *testing.T) {
	s := mountedSurface(t, worksheet.TypeMaze, worksheet.TypeColor, worksheet.TypeVerse, worksheet.TypeDrawing)
	r := New(s.Fonts(), nil, nil)

	opts := DefaultOptions()
	opts.Scale = 1
	opts.Logging = true
	_, err := r.Rasterize(context.Background(), s.Element(), opts)
	require.NoError(t, err)
}

func TestRasterize_Errors(t *testing.T) {
	r := New(nil, nil, nil)
	_, err := r.Rasterize(context.Background(), nil, DefaultOptions())
	require.Error(t, err)

	s := mountedSurface(t, worksheet.TypeCounting)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Fonts are already loaded by the surface; the cancelled context stops the box loop.
	require.NoError(t, s.FontsReady(context.Background()))
	r = New(s.Fonts(), nil, nil)
	_, err = r.Rasterize(ctx, s.Element(), DefaultOptions())
	require.Error(t, err)
}

func TestRasterize_SkipsTransientElements(t *testing.T) {
	s := mountedSurface(t, worksheet.TypeDrawing)
	root := s.Element()
	var section *html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if surface.HasClass(c, surface.ClassExercise) {
			section = c
		}
	}
	require.NotNil(t, section)

	opts := DefaultOptions()
	opts.Scale = 1
	r := New(s.Fonts(), nil, nil)
	with, err := r.Rasterize(context.Background(), root, opts)
	require.NoError(t, err)

	section.Attr = append(section.Attr, html.Attribute{Key: TransientAttr, Val: "true"})
	without, err := r.Rasterize(context.Background(), root, opts)
	require.NoError(t, err)

	a, err := with.PNGDataURL()
	require.NoError(t, err)
	b, err := without.PNGDataURL()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRasterize_RemoteImagesNeedCORS(t *testing.T) {
	engine := pagination.NewEngine()
	store := worksheet.NewStore(worksheet.Worksheet{
		Title:      "Logo",
		SchoolInfo: worksheet.SchoolInfo{LogoURL: "https://example.invalid/logo.png"},
	}, engine)
	s := surface.New(store, engine, text.NewFontSet(), nil)
	t.Cleanup(s.Unmount)

	opts := DefaultOptions()
	opts.UseCORS = false
	opts.ImageTimeout = 50 * time.Millisecond
	// A blocked logo is skipped, not fatal.
	_, err := New(s.Fonts(), nil, nil).Rasterize(context.Background(), s.Element(), opts)
	require.NoError(t, err)
}

func TestFitInside(t *testing.T) {
	w, h := fitInside(400, 200, 100, 100)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)

	w, h = fitInside(0, 0, 30, 40)
	assert.Equal(t, 30, w)
	assert.Equal(t, 40, h)
}

func TestParseColorName(t *testing.T) {
	assert.Equal(t, namedColors["red"], parseColorName(" Red "))
	assert.Equal(t, color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 255}, parseColorName("#123456"))
	assert.Equal(t, color.Gray{Y: 128}, parseColorName("sparkly"))
}
