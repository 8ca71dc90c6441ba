package api

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/gomsheet/internal/export"
	"github.com/gompdf/gomsheet/internal/pkg/logger"
	"github.com/gompdf/gomsheet/internal/worksheet"
)

func TestNew_SeedWorksheet(t *testing.T) {
	s, err := New(WithLogger(logger.Nop()))
	require.NoError(t, err)
	defer s.Close()

	doc := s.Store().Snapshot()
	assert.Equal(t, "My Worksheet", doc.Title)
	assert.NotEmpty(t, doc.Exercises)
	assert.Equal(t, 1, s.Store().TotalPages())

	report := s.Report()
	require.Len(t, report, 1)
	assert.False(t, report[0].Overflow)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithPageBudget(0), WithLogger(logger.Nop()))
	require.Error(t, err)
	_, err = New(WithScale(-1), WithLogger(logger.Nop()))
	require.Error(t, err)
}

func TestSession_ExportRange(t *testing.T) {
	dir := t.TempDir()
	var notices []string
	var updates int
	s, err := NewWithWorksheet(worksheet.Worksheet{Title: "Week 3 Review"},
		WithLogger(logger.Nop()),
		WithNoDelays(),
		WithScale(1),
		WithOutputDir(dir),
		WithNotifier(func(msg string) { notices = append(notices, msg) }),
		WithProgress(func(export.Progress) { updates++ }),
	)
	require.NoError(t, err)
	defer s.Close()

	store := s.Store()
	for i := 0; i < 3; i++ {
		ex := store.AddExercise(worksheet.TypeDrawing)
		require.NoError(t, store.MoveExerciseToPage(ex.ID, i+1))
	}
	require.NoError(t, store.SetActivePage(3))

	path, err := s.ExportRange(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "week-3-review.pdf"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Equal(t, 3, store.ActivePage())
	assert.False(t, s.Busy())
	assert.Empty(t, notices)
	assert.Positive(t, updates)

	_, err = s.ExportRange(context.Background(), 2, 9)
	assert.ErrorIs(t, err, export.ErrInvalidRange)
}
