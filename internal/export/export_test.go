package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gompdf/gomsheet/internal/pagination"
	"github.com/gompdf/gomsheet/internal/render/pdf"
	"github.com/gompdf/gomsheet/internal/render/raster"
	"github.com/gompdf/gomsheet/internal/res"
	"github.com/gompdf/gomsheet/internal/surface"
	"github.com/gompdf/gomsheet/internal/worksheet"
)

type fakeSurface struct {
	el      *html.Node
	reflows int
}

func (s *fakeSurface) Element() *html.Node                { return s.el }
func (s *fakeSurface) FontsReady(ctx context.Context) error { return ctx.Err() }
func (s *fakeSurface) Reflow()                            { s.reflows++ }

type fakeBitmap struct{ w, h int }

func (b fakeBitmap) Width() int                  { return b.w }
func (b fakeBitmap) Height() int                 { return b.h }
func (b fakeBitmap) PNGDataURL() (string, error) { return "data:image/png;base64,AAAA", nil }

type fakeRasterizer struct {
	store   Store
	visited []int
	failOn  int
	block   chan struct{}
}

func (r *fakeRasterizer) Rasterize(ctx context.Context, el *html.Node, opts raster.Options) (raster.Bitmap, error) {
	if r.block != nil {
		<-r.block
	}
	page := r.store.ActivePage()
	r.visited = append(r.visited, page)
	if page == r.failOn {
		return nil, fmt.Errorf("canvas exploded")
	}
	return fakeBitmap{w: 1588, h: 2246}, nil
}

type placed struct{ x, y, w, h float64 }

type fakeDocument struct {
	pages  int
	images []placed
	saved  string
}

func (d *fakeDocument) PageSize() (float64, float64) { return 210, 297 }
func (d *fakeDocument) AddPage(format, orientation string) error {
	d.pages++
	return nil
}
func (d *fakeDocument) AddImage(dataURL string, x, y, w, h float64, compression pdf.Compression) error {
	d.images = append(d.images, placed{x, y, w, h})
	return nil
}
func (d *fakeDocument) Save(path string) error {
	d.saved = path
	return os.WriteFile(path, []byte("%PDF-fake"), 0644)
}

type fixture struct {
	store    *worksheet.Store
	surface  *fakeSurface
	raster   *fakeRasterizer
	doc      *fakeDocument
	exporter *Exporter
	notices  []string
	progress []Progress
	dir      string
}

// newFixture builds a worksheet with one exercise on each of pages 1..total.
func newFixture(t *testing.T, total int) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir()}
	f.store = worksheet.NewStore(worksheet.Worksheet{Title: "My Worksheet!"}, pagination.NewEngine())
	for p := 1; p <= total; p++ {
		ex := f.store.AddExercise(worksheet.TypeCounting)
		require.NoError(t, f.store.MoveExerciseToPage(ex.ID, p))
	}
	f.surface = &fakeSurface{el: &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}}
	f.raster = &fakeRasterizer{store: f.store}
	f.doc = &fakeDocument{pages: 1}
	f.exporter = New(f.store, f.surface, f.raster, nil)
	f.exporter.NewDocument = func(cfg pdf.Config) (Document, error) {
		assert.Equal(t, "A4", cfg.Format)
		assert.Equal(t, "portrait", cfg.Orientation)
		return f.doc, nil
	}

	opts := DefaultOptions()
	opts.RenderDelay, opts.FontDelay, opts.HoldDelay = 0, 0, 0
	opts.OutputDir = f.dir
	opts.Notify = func(msg string) { f.notices = append(f.notices, msg) }
	opts.OnProgress = func(p Progress) { f.progress = append(f.progress, p) }
	f.exporter.SetOptions(opts)
	return f
}

func (f *fixture) assertIdle(t *testing.T) {
	t.Helper()
	assert.False(t, f.exporter.Busy())
	assert.Equal(t, Progress{}, f.exporter.Progress())
}

func TestExport_AllVisitsEveryPageInOrder(t *testing.T) {
	f := newFixture(t, 4)
	require.NoError(t, f.store.SetActivePage(3))

	path, err := f.exporter.Export(context.Background(), ModeAll, Range{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, f.raster.visited)
	assert.Equal(t, filepath.Join(f.dir, "my-worksheet!.pdf"), path)
	assert.FileExists(t, path)
	assert.Equal(t, 4, f.doc.pages, "first page reuses the initial page")
	assert.Len(t, f.doc.images, 4)
	assert.Equal(t, 4, f.surface.reflows)
	assert.Equal(t, 3, f.store.ActivePage())
	assert.Empty(t, f.notices)
	f.assertIdle(t)
}

func TestExport_RangeVisitsOnlyRange(t *testing.T) {
	f := newFixture(t, 5)

	_, err := f.exporter.Export(context.Background(), ModeRange, Range{Start: 2, End: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, f.raster.visited)
	assert.Equal(t, 1, f.store.ActivePage())
}

func TestExport_CurrentPage(t *testing.T) {
	f := newFixture(t, 3)
	require.NoError(t, f.store.SetActivePage(2))

	_, err := f.exporter.Export(context.Background(), ModeCurrent, Range{})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, f.raster.visited)
	assert.Equal(t, 1, f.doc.pages)
}

func TestExport_ProgressIsMonotonic(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.exporter.Export(context.Background(), ModeAll, Range{})
	require.NoError(t, err)

	require.NotEmpty(t, f.progress)
	last := f.progress[len(f.progress)-1]
	assert.Equal(t, Progress{}, last, "progress is reset after the run")

	running := f.progress[:len(f.progress)-1]
	for i := 1; i < len(running); i++ {
		assert.GreaterOrEqual(t, running[i].Percent, running[i-1].Percent)
		assert.True(t, running[i].Busy)
	}
	assert.Equal(t, StateDone, running[len(running)-1].State)
	assert.Equal(t, 100.0, running[len(running)-1].Percent)

	var states []State
	for _, p := range running {
		if len(states) == 0 || states[len(states)-1] != p.State {
			states = append(states, p.State)
		}
	}
	assert.Equal(t, []State{StatePreparing, StateCapturingPage, StateAssembling, StateDone}, states)
}

func TestExport_RasterizationFailureCleansUp(t *testing.T) {
	f := newFixture(t, 3)
	require.NoError(t, f.store.SetActivePage(3))
	f.raster.failOn = 2

	path, err := f.exporter.Export(context.Background(), ModeAll, Range{})
	require.Error(t, err)
	assert.Empty(t, path)
	assert.True(t, errors.Is(err, ErrRasterization))

	var exportErr *Error
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, 2, exportErr.Page)
	assert.EqualError(t, exportErr.Cause, "canvas exploded")

	assert.Equal(t, []int{1, 2}, f.raster.visited, "the loop stops at the failing page")
	assert.Empty(t, f.doc.saved, "no partial output")
	assert.Equal(t, []string{FailureNotice("en")}, f.notices)
	assert.Equal(t, 3, f.store.ActivePage())
	f.assertIdle(t)
}

func TestExport_SurfaceMissing(t *testing.T) {
	f := newFixture(t, 2)
	f.surface.el = nil

	_, err := f.exporter.Export(context.Background(), ModeAll, Range{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRenderSurfaceMissing))
	assert.Empty(t, f.raster.visited)
	assert.Len(t, f.notices, 1)
	f.assertIdle(t)

	noSurface := New(f.store, nil, f.raster, nil)
	_, err = noSurface.Export(context.Background(), ModeAll, Range{})
	assert.True(t, errors.Is(err, ErrRenderSurfaceMissing))
}

func TestExport_InvalidRequests(t *testing.T) {
	f := newFixture(t, 3)

	for _, rng := range []Range{{0, 1}, {2, 1}, {1, 4}} {
		_, err := f.exporter.Export(context.Background(), ModeRange, rng)
		assert.True(t, errors.Is(err, ErrInvalidRange), "range %v", rng)
	}
	_, err := f.exporter.Export(context.Background(), Mode("odd"), Range{})
	assert.True(t, errors.Is(err, ErrInvalidMode))

	assert.Empty(t, f.notices)
	assert.Empty(t, f.raster.visited)
	f.assertIdle(t)
}

func TestExport_CancelledContextFails(t *testing.T) {
	f := newFixture(t, 2)
	require.NoError(t, f.store.SetActivePage(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.exporter.Export(ctx, ModeAll, Range{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreparation))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, f.store.ActivePage())
	f.assertIdle(t)
}

func TestExport_RejectsReentry(t *testing.T) {
	f := newFixture(t, 1)
	f.raster.block = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.exporter.Export(context.Background(), ModeAll, Range{})
		assert.NoError(t, err)
	}()

	require.Eventually(t, f.exporter.Busy, time.Second, time.Millisecond)
	_, err := f.exporter.Export(context.Background(), ModeAll, Range{})
	assert.ErrorIs(t, err, ErrBusy)

	close(f.raster.block)
	wg.Wait()
	f.assertIdle(t)
}

func TestFit(t *testing.T) {
	tests := []struct {
		name                   string
		imgW, imgH, pageW, pgH float64
		x, y, w, h             float64
	}{
		{"same ratio", 1588, 2246, 210, 297, 0, 0, 210, 297},
		{"wide image", 400, 200, 200, 300, 0, 100, 200, 100},
		{"tall image", 100, 600, 200, 300, 75, 0, 50, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, w, h := Fit(tt.imgW, tt.imgH, tt.pageW, tt.pgH)
			assert.InDelta(t, tt.x, x, 0.5)
			assert.InDelta(t, tt.y, y, 0.5)
			assert.InDelta(t, tt.w, w, 0.5)
			assert.InDelta(t, tt.h, h, 0.5)
		})
	}
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"My Worksheet!":        "my-worksheet!.pdf",
		"  Animals   of  Farm ": "animals-of-farm.pdf",
		"":                     "worksheet.pdf",
		" \t\n ":               "worksheet.pdf",
		"Math/Week 2":          "math-week-2.pdf",
	}
	for title, want := range tests {
		assert.Equal(t, want, Filename(title), "title %q", title)
	}
}

func TestFailureNotice(t *testing.T) {
	en := FailureNotice("en")
	assert.Contains(t, en, "PDF")
	assert.Equal(t, en, FailureNotice("not a locale!"))
	assert.Equal(t, en, FailureNotice("de"))
	assert.Contains(t, FailureNotice("fr-CA"), "Veuillez")
	assert.NotEqual(t, en, FailureNotice("ar-EG"))
}

func TestExport_EndToEnd(t *testing.T) {
	engine := pagination.NewEngine()
	store := worksheet.NewStore(worksheet.Worksheet{Title: "Counting Fun"}, engine)
	for i := 0; i < 6; i++ {
		store.AddExercise(worksheet.TypeCounting)
	}
	require.Equal(t, 2, store.TotalPages())
	require.Equal(t, 2, store.ActivePage())

	surf := surface.New(store, engine, nil, nil)
	t.Cleanup(surf.Unmount)
	rasterizer := raster.New(surf.Fonts(), res.NewLoader(), nil)

	exp := New(store, surf, rasterizer, nil)
	opts := DefaultOptions()
	opts.RenderDelay, opts.FontDelay, opts.HoldDelay = 0, 0, 0
	opts.Raster.Scale = 1
	opts.OutputDir = t.TempDir()
	exp.SetOptions(opts)

	path, err := exp.Export(context.Background(), ModeAll, Range{})
	require.NoError(t, err)
	assert.Equal(t, "counting-fun.pdf", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data[:8]), "%PDF-")
	assert.Equal(t, 2, store.ActivePage())
}
