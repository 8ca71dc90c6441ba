package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/gomsheet/internal/export"
	"github.com/gompdf/gomsheet/internal/pagination"
	"github.com/gompdf/gomsheet/internal/worksheet"
)

const sample = `
title: Farm Animals
theme: garden
border: stars
school:
  name: Green Valley
  teacher: Ms. Amal
exercises:
  - type: counting
    config:
      title: Count the cows
      item: "🐄"
      count: 12
  - type: addition
    config:
      first: 2
      second: 3
      showHelpers: true
  - type: matching
    page: 3
    config:
      pairs:
        - {left: cow, right: moo}
        - {left: dog, right: woof}
  - type: riddle
    config:
      question: What has four legs?
export:
  mode: range
  start: 1
  end: 3
  output: out
  locale: fr
  render_delay: 250ms
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "Farm Animals", f.Title)
	assert.Equal(t, "Ms. Amal", f.School.Teacher)
	require.Len(t, f.Exercises, 4)
	assert.Equal(t, 3, f.Exercises[2].Page)
	assert.Equal(t, export.Range{Start: 1, End: 3}, f.Range())
	assert.Equal(t, 250*time.Millisecond, f.Export.RenderDelay)

	// Missing keys keep their defaults.
	assert.Equal(t, 2.0, f.Export.Scale)
	assert.Equal(t, pagination.DefaultOptions(), f.PaginationOptions())
}

func TestValidate(t *testing.T) {
	tests := map[string]string{
		"theme":    "theme: neon\n",
		"border":   "border: lasers\n",
		"type":     "exercises:\n  - page: 1\n",
		"page":     "exercises:\n  - type: counting\n    page: -2\n",
		"budget":   "pagination:\n  page_budget: 0\n",
		"mode":     "export:\n  mode: some\n",
		"range":    "export:\n  mode: range\n  start: 3\n  end: 2\n",
		"scale":    "export:\n  scale: -1\n",
		"compress": "export:\n  compression: zip\n",
		"active":   "export:\n  page: -1\n",
		"not yaml": "title: [unclosed\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestApply(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	store := worksheet.NewStore(worksheet.Worksheet{}, pagination.NewEngine())
	require.NoError(t, f.Apply(store))

	doc := store.Snapshot()
	assert.Equal(t, "Farm Animals", doc.Title)
	assert.Equal(t, worksheet.ThemeGarden, doc.Theme)
	assert.Equal(t, worksheet.BorderStars, doc.BorderTheme)
	assert.Equal(t, "Green Valley", doc.SchoolInfo.SchoolName)
	require.Len(t, doc.Exercises, 4)

	counting, ok := doc.Exercises[0].Config.(*worksheet.CountingConfig)
	require.True(t, ok)
	assert.Equal(t, 12, counting.Count)
	assert.Equal(t, "Count the cows", counting.Title)

	addition := doc.Exercises[1].Config.(*worksheet.ArithmeticConfig)
	assert.True(t, addition.ShowHelpers)
	assert.Equal(t, 2, addition.First)

	matching := doc.Exercises[2].Config.(*worksheet.MatchingConfig)
	assert.Len(t, matching.Pairs, 2)
	assert.Equal(t, 3, doc.Exercises[2].PageNumber)

	// Automatic placement continues from the page of the last explicit exercise.
	assert.Equal(t, 3, doc.Exercises[3].PageNumber)
	generic := doc.Exercises[3].Config.(*worksheet.GenericConfig)
	assert.Equal(t, "What has four legs?", generic.Fields["question"])

	assert.Equal(t, 3, store.TotalPages())
	assert.Equal(t, 1, store.ActivePage())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fr", f.Export.Locale)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestApply_ActivePage(t *testing.T) {
	f, err := Parse([]byte(sample + "  page: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, f.ActivePage())

	store := worksheet.NewStore(worksheet.Worksheet{}, pagination.NewEngine())
	require.NoError(t, f.Apply(store))
	assert.Equal(t, 3, store.ActivePage())

	f.Export.Page = 0
	assert.Equal(t, 1, f.ActivePage())
}
