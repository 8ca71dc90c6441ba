package api

import (
	"image/color"
	"time"

	"github.com/gompdf/gomsheet/internal/export"
	"github.com/gompdf/gomsheet/internal/pkg/logger"
	"github.com/gompdf/gomsheet/internal/render/pdf"
)

// Options represents configuration options for a worksheet session
type Options struct {
	// Pagination, in height units
	PageBudget   float64
	HeaderHeight float64
	ItemSpacing  float64

	// Capture options
	Scale      float64
	Background color.Color
	// UseCORS allows remote images such as school logos to be drawn
	UseCORS bool

	// Settle delays of the export loop
	RenderDelay time.Duration
	FontDelay   time.Duration
	HoldDelay   time.Duration

	// Compression of the page images embedded in the PDF
	Compression pdf.Compression

	// Output
	OutputDir string
	Locale    string

	Debug bool

	// Resource paths searched for local logos
	ResourcePaths []string

	// Document metadata
	Author string

	// Callbacks
	OnProgress func(export.Progress)
	Notify     func(message string)

	Logger *logger.Logger
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns the default options
func DefaultOptions() Options {
	exp := export.DefaultOptions()
	return Options{
		PageBudget:   1000,
		HeaderHeight: 120,
		ItemSpacing:  24,

		Scale:      exp.Raster.Scale,
		Background: color.White,
		UseCORS:    true,

		RenderDelay: exp.RenderDelay,
		FontDelay:   exp.FontDelay,
		HoldDelay:   exp.HoldDelay,

		Compression: exp.Compression,

		OutputDir: ".",
		Locale:    "en",

		Debug:         false,
		ResourcePaths: []string{},
	}
}

// WithPageBudget sets the height budget of one page
func WithPageBudget(budget float64) Option {
	return func(o *Options) {
		o.PageBudget = budget
	}
}

// WithHeaderHeight sets the height reserved for the page header
func WithHeaderHeight(height float64) Option {
	return func(o *Options) {
		o.HeaderHeight = height
	}
}

// WithItemSpacing sets the spacing added for each exercise
func WithItemSpacing(spacing float64) Option {
	return func(o *Options) {
		o.ItemSpacing = spacing
	}
}

// WithScale sets the capture supersampling factor
func WithScale(scale float64) Option {
	return func(o *Options) {
		o.Scale = scale
	}
}

// WithBackground sets the page background colour
func WithBackground(c color.Color) Option {
	return func(o *Options) {
		o.Background = c
	}
}

// WithCORS toggles drawing of remote images
func WithCORS(enabled bool) Option {
	return func(o *Options) {
		o.UseCORS = enabled
	}
}

// WithDelays sets the render, font and completion delays of the export loop
func WithDelays(render, font, hold time.Duration) Option {
	return func(o *Options) {
		o.RenderDelay = render
		o.FontDelay = font
		o.HoldDelay = hold
	}
}

// WithNoDelays disables all settle delays
func WithNoDelays() Option {
	return WithDelays(0, 0, 0)
}

// WithCompression sets how page images are compressed
func WithCompression(c pdf.Compression) Option {
	return func(o *Options) {
		o.Compression = c
	}
}

// WithOutputDir sets the directory exported PDFs are written to
func WithOutputDir(dir string) Option {
	return func(o *Options) {
		o.OutputDir = dir
	}
}

// WithLocale sets the language of user facing messages
func WithLocale(locale string) Option {
	return func(o *Options) {
		o.Locale = locale
	}
}

// WithDebug sets the debug mode
func WithDebug(debug bool) Option {
	return func(o *Options) {
		o.Debug = debug
	}
}

// WithResourcePath adds a path to search for resources
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithAuthor sets the document author
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithProgress sets the export progress callback
func WithProgress(fn func(export.Progress)) Option {
	return func(o *Options) {
		o.OnProgress = fn
	}
}

// WithNotifier sets the callback showing failure notices
func WithNotifier(fn func(message string)) Option {
	return func(o *Options) {
		o.Notify = fn
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
