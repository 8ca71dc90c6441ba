// Package export turns a worksheet into a PDF by showing each page on the render
// surface, capturing it as a bitmap and placing the bitmaps on A4 pages.
package export

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/gompdf/gomsheet/internal/pkg/logger"
	"github.com/gompdf/gomsheet/internal/render/pdf"
	"github.com/gompdf/gomsheet/internal/render/raster"
	"github.com/gompdf/gomsheet/internal/worksheet"
)

// Mode selects the pages to export.
type Mode string

const (
	ModeAll     Mode = "all"
	ModeCurrent Mode = "current"
	ModeRange   Mode = "range"
)

// Range is an inclusive page range used with ModeRange.
type Range struct {
	Start int
	End   int
}

// Store is the part of the worksheet store the exporter drives.
type Store interface {
	ActivePage() int
	SetActivePage(page int) error
	TotalPages() int
	Snapshot() worksheet.Worksheet
}

// Surface is the render surface showing the active page.
type Surface interface {
	// Element returns the page container, nil when it is not mounted.
	Element() *html.Node
	FontsReady(ctx context.Context) error
	Reflow()
}

// Rasterizer captures a page container.
type Rasterizer interface {
	Rasterize(ctx context.Context, el *html.Node, opts raster.Options) (raster.Bitmap, error)
}

// Document is the PDF being assembled.
type Document interface {
	PageSize() (float64, float64)
	AddPage(format, orientation string) error
	AddImage(dataURL string, x, y, w, h float64, compression pdf.Compression) error
	Save(path string) error
}

// DocumentFactory creates an empty document holding its first page.
type DocumentFactory func(cfg pdf.Config) (Document, error)

// NewPDFDocument is the DocumentFactory backed by fpdf.
func NewPDFDocument(cfg pdf.Config) (Document, error) {
	doc, err := pdf.New(cfg)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Options configures an Exporter.
type Options struct {
	// RenderDelay is waited after switching the active page.
	RenderDelay time.Duration
	// FontDelay is waited after the font readiness check, during preparation and per page.
	FontDelay time.Duration
	// HoldDelay keeps the finished progress visible before Export returns.
	HoldDelay time.Duration

	Raster      raster.Options
	Document    pdf.Config
	Compression pdf.Compression

	// OutputDir is where the PDF is written.
	OutputDir string
	// Locale picks the language of the failure notice.
	Locale string

	// OnProgress receives every progress change.
	OnProgress func(Progress)
	// Notify shows the failure notice to the user.
	Notify func(message string)
}

// DefaultOptions returns the settings of an interactive export.
func DefaultOptions() Options {
	return Options{
		RenderDelay: 300 * time.Millisecond,
		FontDelay:   100 * time.Millisecond,
		HoldDelay:   500 * time.Millisecond,
		Raster:      raster.DefaultOptions(),
		Document:    pdf.DefaultConfig(),
		Compression: pdf.CompressionFast,
		OutputDir:   ".",
		Locale:      "en",
	}
}

// Exporter runs one export at a time.
type Exporter struct {
	store       Store
	surface     Surface
	rasterizer  Rasterizer
	NewDocument DocumentFactory
	log         *logger.Logger

	options Options

	mu       sync.Mutex
	busy     bool
	progress Progress
}

// New creates an exporter. surface may be nil when nothing is mounted; exports then fail
// with ErrRenderSurfaceMissing.
func New(store Store, surface Surface, rasterizer Rasterizer, log *logger.Logger) *Exporter {
	return &Exporter{
		store:       store,
		surface:     surface,
		rasterizer:  rasterizer,
		NewDocument: NewPDFDocument,
		log:         logger.OrNop(log).With("component", "export"),
		options:     DefaultOptions(),
	}
}

// SetOptions replaces the exporter options.
func (e *Exporter) SetOptions(options Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.options = options
}

// Options returns the current options.
func (e *Exporter) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.options
}

// Progress returns the state of the running export, or the idle baseline.
func (e *Exporter) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Busy reports whether an export is running.
func (e *Exporter) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Pages resolves mode and rng to the page numbers to export, in ascending order.
func (e *Exporter) Pages(mode Mode, rng Range) ([]int, error) {
	total := e.store.TotalPages()
	var start, end int
	switch mode {
	case ModeAll:
		start, end = 1, total
	case ModeCurrent:
		start = e.store.ActivePage()
		end = start
	case ModeRange:
		if rng.Start < 1 || rng.Start > rng.End || rng.End > total {
			return nil, newError(ErrInvalidRange, 0, nil)
		}
		start, end = rng.Start, rng.End
	default:
		return nil, newError(ErrInvalidMode, 0, nil)
	}
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages, nil
}

// Export writes the selected pages to a PDF named after the worksheet title and returns
// its path. The active page is restored and the progress reset on every return path.
// On failure no file is written and the failure notice is sent to Options.Notify.
func (e *Exporter) Export(ctx context.Context, mode Mode, rng Range) (string, error) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return "", ErrBusy
	}
	e.busy = true
	opts := e.options
	e.mu.Unlock()

	defer e.reset()

	pages, err := e.Pages(mode, rng)
	if err != nil {
		return "", err
	}

	original := e.store.ActivePage()
	restore := sync.OnceFunc(func() {
		if err := e.store.SetActivePage(original); err != nil {
			e.log.Warn("failed to restore active page", "page", original, "error", err)
		}
	})
	defer restore()

	e.log.Debug("export started", "mode", mode, "pages", pages)
	path, err := e.run(ctx, opts, pages, restore)
	if err != nil {
		e.setProgress(opts, StateFailed, -1, 0)
		e.log.Error("export failed", "error", err)
		if opts.Notify != nil {
			opts.Notify(FailureNotice(opts.Locale))
		}
		return "", err
	}

	e.setProgress(opts, StateDone, complete, 0)
	e.log.Info("export finished", "path", path, "pages", len(pages))
	_ = sleep(ctx, opts.HoldDelay)
	return path, nil
}

func (e *Exporter) run(ctx context.Context, opts Options, pages []int, restore func()) (string, error) {
	if e.surface == nil || e.surface.Element() == nil {
		return "", newError(ErrRenderSurfaceMissing, 0, nil)
	}

	e.setProgress(opts, StatePreparing, prepareStart, 0)
	if err := e.surface.FontsReady(ctx); err != nil {
		return "", newError(ErrPreparation, 0, err)
	}
	if err := sleep(ctx, opts.FontDelay); err != nil {
		return "", newError(ErrPreparation, 0, err)
	}
	e.setProgress(opts, StatePreparing, prepareDone, 0)

	factory := e.NewDocument
	if factory == nil {
		factory = NewPDFDocument
	}
	cfg := opts.Document
	cfg.Format = "A4"
	cfg.Orientation = "portrait"
	if cfg.Title == "" {
		cfg.Title = e.store.Snapshot().Title
	}
	doc, err := factory(cfg)
	if err != nil {
		return "", newError(ErrAssembly, 0, err)
	}

	for i, page := range pages {
		if err := e.capture(ctx, opts, doc, page, i, len(pages)); err != nil {
			return "", err
		}
	}

	restore()
	e.setProgress(opts, StateAssembling, assembling, 0)
	path := filepath.Join(opts.OutputDir, Filename(e.store.Snapshot().Title))
	if err := doc.Save(path); err != nil {
		return "", newError(ErrAssembly, 0, err)
	}
	return path, nil
}

func (e *Exporter) capture(ctx context.Context, opts Options, doc Document, page, i, n int) error {
	e.setProgress(opts, StateCapturingPage, pageProgress(i, n, 0), page)
	if err := e.store.SetActivePage(page); err != nil {
		return newError(ErrPreparation, page, err)
	}
	if err := sleep(ctx, opts.RenderDelay); err != nil {
		return newError(ErrPreparation, page, err)
	}
	if err := e.surface.FontsReady(ctx); err != nil {
		return newError(ErrPreparation, page, err)
	}
	if err := sleep(ctx, opts.FontDelay); err != nil {
		return newError(ErrPreparation, page, err)
	}
	e.surface.Reflow()
	e.setProgress(opts, StateCapturingPage, pageProgress(i, n, stepRendered), page)

	el := e.surface.Element()
	if el == nil {
		return newError(ErrRenderSurfaceMissing, page, nil)
	}
	bmp, err := e.rasterizer.Rasterize(ctx, el, opts.Raster)
	if err != nil {
		return newError(ErrRasterization, page, err)
	}
	if bmp == nil || bmp.Width() <= 0 || bmp.Height() <= 0 {
		return newError(ErrRasterization, page, errEmptyBitmap)
	}
	dataURL, err := bmp.PNGDataURL()
	if err != nil {
		return newError(ErrRasterization, page, err)
	}
	e.log.Debug("page captured", "page", page, "width", bmp.Width(), "height", bmp.Height())
	e.setProgress(opts, StateCapturingPage, pageProgress(i, n, stepRasterized), page)

	pageW, pageH := doc.PageSize()
	x, y, w, h := Fit(float64(bmp.Width()), float64(bmp.Height()), pageW, pageH)
	if i > 0 {
		if err := doc.AddPage("A4", "portrait"); err != nil {
			return newError(ErrAssembly, page, err)
		}
	}
	if err := doc.AddImage(dataURL, x, y, w, h, opts.Compression); err != nil {
		return newError(ErrAssembly, page, err)
	}
	e.setProgress(opts, StateCapturingPage, pageProgress(i, n, stepPlaced), page)
	return nil
}

// Fit scales an imgW x imgH bitmap to fit a pageW x pageH page keeping its aspect
// ratio, and centres it.
func Fit(imgW, imgH, pageW, pageH float64) (x, y, w, h float64) {
	if imgW <= 0 || imgH <= 0 {
		return 0, 0, pageW, pageH
	}
	ratio := imgW / imgH
	w, h = pageW, pageW/ratio
	if h > pageH {
		h = pageH
		w = pageH * ratio
	}
	return (pageW - w) / 2, (pageH - h) / 2, w, h
}

// setProgress moves the progress forward. A negative percent keeps the current value.
func (e *Exporter) setProgress(opts Options, state State, percent float64, page int) {
	e.mu.Lock()
	if percent < e.progress.Percent {
		percent = e.progress.Percent
	}
	e.progress = Progress{State: state, Percent: percent, Page: page, Busy: true}
	p := e.progress
	e.mu.Unlock()

	e.log.Debug("export progress", "state", state, "percent", percent, "page", page)
	if opts.OnProgress != nil {
		opts.OnProgress(p)
	}
}

func (e *Exporter) reset() {
	e.mu.Lock()
	e.busy = false
	e.progress = Progress{}
	onProgress := e.options.OnProgress
	e.mu.Unlock()
	if onProgress != nil {
		onProgress(Progress{})
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
