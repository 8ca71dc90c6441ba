package surface

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/gompdf/gomsheet/internal/pagination"
	"github.com/gompdf/gomsheet/internal/worksheet"
)

func sections(root *html.Node) []*html.Node {
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if HasClass(c, ClassExercise) {
			out = append(out, c)
		}
	}
	return out
}

func newSurface(t *testing.T) (*worksheet.Store, *Surface) {
	t.Helper()
	engine := pagination.NewEngine()
	store := worksheet.NewStore(worksheet.Worksheet{
		Title:      "Animals",
		SchoolInfo: worksheet.SchoolInfo{SchoolName: "Green Valley", TeacherName: "Ms. Amal"},
	}, engine)
	s := New(store, engine, nil, nil)
	t.Cleanup(s.Unmount)
	return store, s
}

func TestSurface_RendersOnlyActivePage(t *testing.T) {
	store, s := newSurface(t)
	a := store.AddExercise(worksheet.TypeCounting)
	b := store.AddExercise(worksheet.TypeMaze)
	require.NoError(t, store.MoveExerciseToPage(b.ID, 2))

	s.Reflow()
	got := sections(s.Element())
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, Attr(got[0], "data-id"))
	assert.Equal(t, "1", Attr(s.Element(), "data-page"))
	assert.Equal(t, "2", Attr(s.Element(), "data-total"))

	require.NoError(t, store.SetActivePage(2))
	s.Reflow()
	got = sections(s.Element())
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, Attr(got[0], "data-id"))
	assert.Equal(t, 2, s.RenderedPage())
}

func TestSurface_FollowsActivePage(t *testing.T) {
	store, s := newSurface(t)
	require.NoError(t, store.SetActivePage(3))
	assert.Equal(t, 3, s.RenderedPage())
	assert.Equal(t, "3", Attr(s.Element(), "data-page"))
}

func TestSurface_ReflectsEditsWithoutReflow(t *testing.T) {
	store, s := newSurface(t)
	store.AddExercise(worksheet.TypeCounting)
	spelling := store.AddExercise(worksheet.TypeSpelling)
	_, err := store.UpdateExercise(spelling.ID, map[string]any{"title": "Spell the animals"})
	require.NoError(t, err)

	markup, err := s.HTML()
	require.NoError(t, err)
	assert.Contains(t, markup, "Spell the animals")
	assert.Len(t, sections(s.Element()), 2)

	dup, err := store.DuplicateExercise(spelling.ID)
	require.NoError(t, err)
	assert.Len(t, sections(s.Element()), 3)

	require.NoError(t, store.MoveExerciseToPage(dup.ID, 2))
	assert.Len(t, sections(s.Element()), 2)
	assert.Equal(t, "2", Attr(s.Element(), "data-total"))

	require.NoError(t, store.RemoveExercise(spelling.ID))
	assert.Len(t, sections(s.Element()), 1)

	store.SetTitle("Farm Animals")
	markup, err = s.HTML()
	require.NoError(t, err)
	assert.Contains(t, markup, "Farm Animals")
	assert.Equal(t, store.Generation(), s.Generation())
}

func TestSurface_ConcurrentEditsSettleOnLatest(t *testing.T) {
	store, s := newSurface(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ex := store.AddExercise(worksheet.TypeLogic)
			_, _ = store.UpdateExercise(ex.ID, map[string]any{"title": fmt.Sprintf("Logic %d", i)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, store.Generation(), s.Generation())
	assert.Len(t, sections(s.Element()), len(store.ExercisesOnPage(store.ActivePage())))
	assert.Equal(t, store.ActivePage(), s.RenderedPage())
}

func TestSurface_UnmountStopsRendering(t *testing.T) {
	store, s := newSurface(t)
	s.Unmount()
	store.AddExercise(worksheet.TypeCounting)
	assert.Nil(t, s.Element())
	assert.Less(t, s.Generation(), store.Generation())
}

func TestSurface_HeaderAndHeights(t *testing.T) {
	store, s := newSurface(t)
	ex := store.AddExercise(worksheet.TypeCounting)
	s.Reflow()

	markup, err := s.HTML()
	require.NoError(t, err)
	assert.Contains(t, markup, "Green Valley")
	assert.Contains(t, markup, "Animals")

	sec := sections(s.Element())[0]
	assert.Equal(t, formatUnits(pagination.EstimateHeight(ex)), Attr(sec, "data-height"))
	assert.Contains(t, TextContent(sec), "How many?")
}

func TestSurface_Unmount(t *testing.T) {
	_, s := newSurface(t)
	require.NotNil(t, s.Element())
	s.Unmount()
	assert.Nil(t, s.Element())
	_, err := s.HTML()
	assert.Error(t, err)
}

func TestSurface_FontsReady(t *testing.T) {
	_, s := newSurface(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.NoError(t, s.FontsReady(ctx))
}

func TestExerciseBody_EveryType(t *testing.T) {
	for _, typ := range append(worksheet.KnownTypes, "crossword") {
		ex := worksheet.Exercise{ID: "id-" + string(typ), Type: typ, Config: worksheet.DefaultConfig(typ), PageNumber: 1}
		sec := buildExercise(ex)
		assert.Equal(t, string(typ), Attr(sec, "data-type"))
		assert.NotEmpty(t, TextContent(sec), typ)
	}
}

func TestVerseBody_RTL(t *testing.T) {
	nodes := verseBody(&worksheet.VerseConfig{Kind: worksheet.VerseComplete, Verses: []string{"الحمد لله رب العالمين"}})
	require.Len(t, nodes, 1)
	assert.Equal(t, "rtl", Attr(nodes[0], "dir"))
	assert.True(t, strings.HasSuffix(TextContent(nodes[0]), "______"))
}

func TestMazeArtwork_Deterministic(t *testing.T) {
	a := MazeArtwork("exercise-1", 8)
	assert.Equal(t, a, MazeArtwork("exercise-1", 8))
	assert.NotEqual(t, a, MazeArtwork("exercise-2", 8))
	assert.True(t, strings.HasPrefix(a, "<svg"))
}

func TestColoringArtwork_Fallback(t *testing.T) {
	assert.Equal(t, ColoringArtwork("apple"), ColoringArtwork("unicorn"))
	assert.NotEqual(t, ColoringArtwork("apple"), ColoringArtwork("star"))
}
