package text

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FontSet holds the faces used to draw worksheet pages. Fonts are parsed in the
// background after Load; Ready blocks until they are usable.
type FontSet struct {
	loadOnce sync.Once
	ready    chan struct{}
	regular  *truetype.Font
	bold     *truetype.Font
	err      error
}

// NewFontSet creates a font set. Nothing is parsed until Load or Ready.
func NewFontSet() *FontSet {
	return &FontSet{ready: make(chan struct{})}
}

// Load starts parsing the fonts. Calling it more than once is harmless.
func (f *FontSet) Load() {
	f.loadOnce.Do(func() {
		go func() {
			defer close(f.ready)
			f.regular, f.err = truetype.Parse(goregular.TTF)
			if f.err != nil {
				f.err = fmt.Errorf("failed to parse regular font: %w", f.err)
				return
			}
			f.bold, f.err = truetype.Parse(gobold.TTF)
			if f.err != nil {
				f.err = fmt.Errorf("failed to parse bold font: %w", f.err)
			}
		}()
	})
}

// Ready waits until the fonts are loaded, starting the load if needed.
func (f *FontSet) Ready(ctx context.Context) error {
	f.Load()
	select {
	case <-f.ready:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Face returns a face of the given pixel size. It waits for the fonts to load.
func (f *FontSet) Face(size float64, bold bool, hinting font.Hinting) (font.Face, error) {
	if err := f.Ready(context.Background()); err != nil {
		return nil, err
	}
	ttf := f.regular
	if bold {
		ttf = f.bold
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: hinting,
	}), nil
}
