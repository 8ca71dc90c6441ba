package api

import (
	"context"
	"fmt"

	"github.com/gompdf/gomsheet/internal/export"
	"github.com/gompdf/gomsheet/internal/pagination"
	"github.com/gompdf/gomsheet/internal/pkg/logger"
	"github.com/gompdf/gomsheet/internal/render/raster"
	"github.com/gompdf/gomsheet/internal/res"
	"github.com/gompdf/gomsheet/internal/surface"
	"github.com/gompdf/gomsheet/internal/text"
	"github.com/gompdf/gomsheet/internal/worksheet"
)

// Session is one editing session: a worksheet, the page shown for it and the exporter
// that turns it into a PDF.
type Session struct {
	options Options
	log     *logger.Logger

	engine     *pagination.Engine
	store      *worksheet.Store
	fonts      *text.FontSet
	loader     *res.Loader
	surface    *surface.Surface
	rasterizer *raster.Rasterizer
	exporter   *export.Exporter
}

// New creates a session over the default seed worksheet
func New(opts ...Option) (*Session, error) {
	return newSession(nil, opts)
}

// NewWithWorksheet creates a session editing doc
func NewWithWorksheet(doc worksheet.Worksheet, opts ...Option) (*Session, error) {
	return newSession(&doc, opts)
}

func newSession(doc *worksheet.Worksheet, opts []Option) (*Session, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.PageBudget <= 0 {
		return nil, fmt.Errorf("page budget must be positive, got %v", options.PageBudget)
	}
	if options.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", options.Scale)
	}

	log := options.Logger
	if log == nil {
		mode := ""
		if options.Debug {
			mode = "debug"
		}
		var err error
		log, err = logger.New(mode)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	s := &Session{options: options, log: log}

	s.engine = pagination.NewEngine()
	s.engine.SetOptions(pagination.Options{
		PageBudget:   options.PageBudget,
		HeaderHeight: options.HeaderHeight,
		ItemSpacing:  options.ItemSpacing,
	})

	if doc == nil {
		s.store = worksheet.NewSeededStore(s.engine, worksheet.WithLogger(log))
	} else {
		s.store = worksheet.NewStore(*doc, s.engine, worksheet.WithLogger(log))
	}

	s.loader = res.NewLoader()
	s.loader.AllowRemote = options.UseCORS
	for _, path := range options.ResourcePaths {
		s.loader.AddSearchPath(path)
	}

	s.fonts = text.NewFontSet()
	s.surface = surface.New(s.store, s.engine, s.fonts, log)
	s.rasterizer = raster.New(s.fonts, s.loader, log)
	s.exporter = export.New(s.store, s.surface, s.rasterizer, log)

	exp := export.DefaultOptions()
	exp.RenderDelay = options.RenderDelay
	exp.FontDelay = options.FontDelay
	exp.HoldDelay = options.HoldDelay
	exp.Raster.Scale = options.Scale
	exp.Raster.UseCORS = options.UseCORS
	exp.Raster.Logging = options.Debug
	if options.Background != nil {
		exp.Raster.Background = options.Background
	}
	exp.Document.Author = options.Author
	if options.Compression != "" {
		exp.Compression = options.Compression
	}
	exp.OutputDir = options.OutputDir
	exp.Locale = options.Locale
	exp.OnProgress = options.OnProgress
	exp.Notify = options.Notify
	s.exporter.SetOptions(exp)

	return s, nil
}

// Store returns the worksheet store of the session
func (s *Session) Store() *worksheet.Store {
	return s.store
}

// Surface returns the render surface showing the active page
func (s *Session) Surface() *surface.Surface {
	return s.surface
}

// Options returns the session options
func (s *Session) Options() Options {
	return s.options
}

// Report describes the height used on every page
func (s *Session) Report() []pagination.PageReport {
	return s.engine.Report(s.store.Exercises())
}

// Export writes the pages selected by mode to a PDF and returns its path
func (s *Session) Export(ctx context.Context, mode export.Mode, rng export.Range) (string, error) {
	return s.exporter.Export(ctx, mode, rng)
}

// ExportAll exports every page
func (s *Session) ExportAll(ctx context.Context) (string, error) {
	return s.Export(ctx, export.ModeAll, export.Range{})
}

// ExportCurrent exports the active page
func (s *Session) ExportCurrent(ctx context.Context) (string, error) {
	return s.Export(ctx, export.ModeCurrent, export.Range{})
}

// ExportRange exports pages start..end inclusive
func (s *Session) ExportRange(ctx context.Context, start, end int) (string, error) {
	return s.Export(ctx, export.ModeRange, export.Range{Start: start, End: end})
}

// Progress returns the progress of the running export
func (s *Session) Progress() export.Progress {
	return s.exporter.Progress()
}

// Busy reports whether an export is running
func (s *Session) Busy() bool {
	return s.exporter.Busy()
}

// Close unmounts the render surface and flushes the logger
func (s *Session) Close() {
	s.surface.Unmount()
	s.log.Sync()
}
