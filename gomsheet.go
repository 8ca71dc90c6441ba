// Package gomsheet composes printable multi-page worksheets and exports them to PDF.
package gomsheet

import (
	"github.com/gompdf/gomsheet/internal/export"
	"github.com/gompdf/gomsheet/pkg/api"
)

type Session = api.Session
type Options = api.Options
type Option = api.Option
type ExportMode = export.Mode
type ExportRange = export.Range
type Progress = export.Progress

// New creates a session over the default seed worksheet
func New(opts ...Option) (*Session, error) { return api.New(opts...) }

// DefaultOptions returns the default session options
func DefaultOptions() Options { return api.DefaultOptions() }

var (
	NewWithWorksheet = api.NewWithWorksheet
	WithPageBudget   = api.WithPageBudget
	WithHeaderHeight = api.WithHeaderHeight
	WithItemSpacing  = api.WithItemSpacing
	WithScale        = api.WithScale
	WithBackground   = api.WithBackground
	WithCORS         = api.WithCORS
	WithDelays       = api.WithDelays
	WithNoDelays     = api.WithNoDelays
	WithCompression  = api.WithCompression
	WithOutputDir    = api.WithOutputDir
	WithLocale       = api.WithLocale
	WithDebug        = api.WithDebug
	WithResourcePath = api.WithResourcePath
	WithAuthor       = api.WithAuthor
	WithProgress     = api.WithProgress
	WithNotifier     = api.WithNotifier
	WithLogger       = api.WithLogger
)

const (
	ModeAll     = export.ModeAll
	ModeCurrent = export.ModeCurrent
	ModeRange   = export.ModeRange
)
