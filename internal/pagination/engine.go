package pagination

import (
	"github.com/gompdf/gomsheet/internal/worksheet"
)

// Options represents options for the pagination engine
type Options struct {
	// PageBudget is the maximum total height a page may hold.
	PageBudget float64
	// HeaderHeight is the name/class/title banner at the top of every page.
	HeaderHeight float64
	// ItemSpacing is added once per exercise.
	ItemSpacing float64
}

// DefaultOptions returns the standard A4 budget.
func DefaultOptions() Options {
	return Options{
		PageBudget:   1000,
		HeaderHeight: 120,
		ItemSpacing:  24,
	}
}

// Engine estimates page heights and places new exercises
type Engine struct {
	options Options
}

// NewEngine creates a new pagination engine
func NewEngine() *Engine {
	return &Engine{options: DefaultOptions()}
}

// SetOptions sets the options for the pagination engine
func (e *Engine) SetOptions(options Options) {
	e.options = options
}

// Options returns the options of the pagination engine
func (e *Engine) Options() Options {
	return e.options
}

// PageHeight is the header plus every exercise height and its spacing.
func (e *Engine) PageHeight(exercises []worksheet.Exercise) float64 {
	total := e.options.HeaderHeight
	for _, ex := range exercises {
		total += EstimateHeight(ex) + e.options.ItemSpacing
	}
	return total
}

// Fits reports whether exercises fit within the page budget.
func (e *Engine) Fits(exercises []worksheet.Exercise) bool {
	return e.PageHeight(exercises) <= e.options.PageBudget
}

// Place returns the page a newly added exercise goes to. It stays on the active page
// unless that page already holds exercises and would exceed the budget, in which case
// it moves to the following page. An empty page always keeps the exercise, however tall.
func (e *Engine) Place(existing []worksheet.Exercise, candidate worksheet.Exercise, activePage int) int {
	if activePage < 1 {
		activePage = 1
	}
	onPage := worksheet.OnPage(existing, activePage)
	if len(onPage) == 0 {
		return activePage
	}
	if !e.Fits(append(onPage, candidate)) {
		return activePage + 1
	}
	return activePage
}

// PageReport summarises one page of a worksheet.
type PageReport struct {
	Page      int
	Exercises []worksheet.Exercise
	Height    float64
	Overflow  bool
}

// Report describes every page from 1 to TotalPages, including empty ones.
func (e *Engine) Report(exercises []worksheet.Exercise) []PageReport {
	total := worksheet.TotalPages(exercises)
	reports := make([]PageReport, 0, total)
	for page := 1; page <= total; page++ {
		onPage := worksheet.OnPage(exercises, page)
		h := e.PageHeight(onPage)
		reports = append(reports, PageReport{
			Page:      page,
			Exercises: onPage,
			Height:    h,
			Overflow:  h > e.options.PageBudget,
		})
	}
	return reports
}
