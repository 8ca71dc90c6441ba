package export

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrRenderSurfaceMissing means there is no mounted page container to capture.
	ErrRenderSurfaceMissing = errors.New("render surface missing")
	// ErrRasterization means a page could not be captured.
	ErrRasterization = errors.New("rasterization failed")
	// ErrAssembly means the PDF could not be built or saved.
	ErrAssembly = errors.New("pdf assembly failed")
	// ErrPreparation means waiting for fonts or settle delays was interrupted.
	ErrPreparation = errors.New("export preparation failed")
	// ErrBusy is returned when an export is already running.
	ErrBusy = errors.New("export already in progress")
	// ErrInvalidRange is returned for page ranges outside 1..total.
	ErrInvalidRange = errors.New("invalid page range")
	// ErrInvalidMode is returned for unknown export modes.
	ErrInvalidMode = errors.New("invalid export mode")

	errEmptyBitmap = errors.New("rasterizer returned an empty bitmap")
)

// Error is a failed export. It matches both its Kind and its Cause with errors.Is.
type Error struct {
	Kind  error
	Page  int
	Cause error
}

func (e *Error) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%v on page %d: %v", e.Kind, e.Page, e.Cause)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

func newError(kind error, page int, cause error) *Error {
	if cause == nil {
		cause = kind
	}
	return &Error{Kind: kind, Page: page, Cause: cause}
}
