// Package config reads the YAML worksheet files used by the command line tool.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gompdf/gomsheet/internal/export"
	"github.com/gompdf/gomsheet/internal/pagination"
	"github.com/gompdf/gomsheet/internal/render/pdf"
	"github.com/gompdf/gomsheet/internal/worksheet"
)

// File is a worksheet description plus the settings used to export it.
type File struct {
	Title      string         `yaml:"title"`
	Theme      string         `yaml:"theme"`
	Border     string         `yaml:"border"`
	School     School         `yaml:"school"`
	Exercises  []ExerciseSpec `yaml:"exercises"`
	Pagination Pagination     `yaml:"pagination"`
	Export     Export         `yaml:"export"`
}

type School struct {
	Name    string `yaml:"name"`
	Teacher string `yaml:"teacher"`
	Logo    string `yaml:"logo"`
}

// ExerciseSpec is one exercise. Page is optional; when set it overrides automatic
// placement.
type ExerciseSpec struct {
	Type   string         `yaml:"type"`
	Page   int            `yaml:"page"`
	Config map[string]any `yaml:"config"`
}

type Pagination struct {
	PageBudget   float64 `yaml:"page_budget"`
	HeaderHeight float64 `yaml:"header_height"`
	ItemSpacing  float64 `yaml:"item_spacing"`
}

// Export holds the export settings. Page is the active page after loading, which is
// the page a current mode export writes.
type Export struct {
	Mode        string        `yaml:"mode"`
	Page        int           `yaml:"page"`
	Start       int           `yaml:"start"`
	End         int           `yaml:"end"`
	Output      string        `yaml:"output"`
	Locale      string        `yaml:"locale"`
	Scale       float64       `yaml:"scale"`
	RenderDelay time.Duration `yaml:"render_delay"`
	FontDelay   time.Duration `yaml:"font_delay"`
	HoldDelay   time.Duration `yaml:"hold_delay"`
	Compression string        `yaml:"compression"`
}

// Default returns the settings applied for keys missing from a file.
func Default() File {
	p := pagination.DefaultOptions()
	return File{
		Title:  "My Worksheet",
		Theme:  string(worksheet.ThemeClassic),
		Border: string(worksheet.BorderNone),
		Pagination: Pagination{
			PageBudget:   p.PageBudget,
			HeaderHeight: p.HeaderHeight,
			ItemSpacing:  p.ItemSpacing,
		},
		Export: Export{
			Mode:        string(export.ModeAll),
			Output:      ".",
			Locale:      "en",
			Scale:       2,
			Compression: string(pdf.CompressionFast),
		},
	}
}

// Load reads and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid worksheet file %s", path)
	}
	return f, nil
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate reports the first invalid field.
func (f *File) Validate() error {
	switch worksheet.Theme(f.Theme) {
	case worksheet.ThemeClassic, worksheet.ThemeSpace, worksheet.ThemeGarden, worksheet.ThemeOcean:
	default:
		return fmt.Errorf("theme: unknown theme %q", f.Theme)
	}
	switch worksheet.BorderTheme(f.Border) {
	case worksheet.BorderNone, worksheet.BorderSimple, worksheet.BorderStars, worksheet.BorderFlowers:
	default:
		return fmt.Errorf("border: unknown border %q", f.Border)
	}
	for i, ex := range f.Exercises {
		if ex.Type == "" {
			return fmt.Errorf("exercises[%d].type: required", i)
		}
		if ex.Page < 0 {
			return fmt.Errorf("exercises[%d].page: must be at least 1", i)
		}
	}
	if f.Pagination.PageBudget <= 0 {
		return fmt.Errorf("pagination.page_budget: must be positive")
	}
	if f.Pagination.HeaderHeight < 0 || f.Pagination.ItemSpacing < 0 {
		return fmt.Errorf("pagination: heights must not be negative")
	}
	if f.Export.Page < 0 {
		return fmt.Errorf("export.page: must be at least 1")
	}
	switch export.Mode(f.Export.Mode) {
	case export.ModeAll, export.ModeCurrent:
	case export.ModeRange:
		if f.Export.Start < 1 || f.Export.End < f.Export.Start {
			return fmt.Errorf("export.start/end: invalid range %d-%d", f.Export.Start, f.Export.End)
		}
	default:
		return fmt.Errorf("export.mode: unknown mode %q", f.Export.Mode)
	}
	switch pdf.Compression(f.Export.Compression) {
	case pdf.CompressionNone, pdf.CompressionFast, pdf.CompressionMedium, pdf.CompressionSlow:
	default:
		return fmt.Errorf("export.compression: unknown compression %q", f.Export.Compression)
	}
	if f.Export.Scale <= 0 {
		return fmt.Errorf("export.scale: must be positive")
	}
	return nil
}

// PaginationOptions converts the pagination section.
func (f *File) PaginationOptions() pagination.Options {
	return pagination.Options{
		PageBudget:   f.Pagination.PageBudget,
		HeaderHeight: f.Pagination.HeaderHeight,
		ItemSpacing:  f.Pagination.ItemSpacing,
	}
}

// Range returns the export range.
func (f *File) Range() export.Range {
	return export.Range{Start: f.Export.Start, End: f.Export.End}
}

// ActivePage is the page shown once the file is applied, 1 unless export.page is set.
func (f *File) ActivePage() int {
	if f.Export.Page > 0 {
		return f.Export.Page
	}
	return 1
}

// Apply writes the worksheet metadata into store and adds the exercises in file order.
// Exercises without a page go through automatic placement. The active page ends on
// ActivePage.
func (f *File) Apply(store *worksheet.Store) error {
	store.SetTitle(f.Title)
	store.SetTheme(worksheet.Theme(f.Theme))
	store.SetBorderTheme(worksheet.BorderTheme(f.Border))
	store.SetSchoolInfo(worksheet.SchoolInfo{
		SchoolName:  f.School.Name,
		TeacherName: f.School.Teacher,
		LogoURL:     f.School.Logo,
	})

	for i, entry := range f.Exercises {
		t := worksheet.Type(entry.Type)
		cfg, err := worksheet.MergeConfig(t, worksheet.DefaultConfig(t), entry.Config)
		if err != nil {
			return errors.Wrapf(err, "exercises[%d].config", i)
		}
		ex := store.AddExerciseWithConfig(t, cfg)
		if entry.Page > 0 {
			if err := store.MoveExerciseToPage(ex.ID, entry.Page); err != nil {
				return errors.Wrapf(err, "exercises[%d].page", i)
			}
			if err := store.SetActivePage(entry.Page); err != nil {
				return err
			}
		}
	}
	return store.SetActivePage(f.ActivePage())
}
