package surface

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"golang.org/x/net/html"

	"github.com/gompdf/gomsheet/internal/pagination"
	"github.com/gompdf/gomsheet/internal/pkg/logger"
	"github.com/gompdf/gomsheet/internal/text"
	"github.com/gompdf/gomsheet/internal/worksheet"
)

// ContainerID is the id of the element holding the rendered page.
const ContainerID = "worksheet-page"

// Surface renders the exercises of the store's active page into a DOM tree.
// It re-renders after every store change; a tree built from an older generation of
// the store never replaces a newer one.
type Surface struct {
	store  *worksheet.Store
	engine *pagination.Engine
	fonts  *text.FontSet
	log    *logger.Logger

	mu          sync.RWMutex
	root        *html.Node
	page        int
	generation  uint64
	mounted     bool
	unsubscribe func()
}

// New mounts a surface on store and renders the active page.
func New(store *worksheet.Store, engine *pagination.Engine, fonts *text.FontSet, log *logger.Logger) *Surface {
	if engine == nil {
		engine = pagination.NewEngine()
	}
	if fonts == nil {
		fonts = text.NewFontSet()
	}
	s := &Surface{
		store:  store,
		engine: engine,
		fonts:  fonts,
		log:    logger.OrNop(log).With("component", "surface"),
	}
	fonts.Load()
	s.mounted = true
	s.unsubscribe = store.Watch(func(uint64) { s.render(false) })
	s.render(true)
	return s
}

// Element returns the page container, or nil once the surface is unmounted.
func (s *Surface) Element() *html.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.mounted {
		return nil
	}
	return s.root
}

// RenderedPage is the page number the current tree shows.
func (s *Surface) RenderedPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// FontsReady blocks until the page fonts are loaded.
func (s *Surface) FontsReady(ctx context.Context) error {
	return s.fonts.Ready(ctx)
}

// Fonts returns the font set used for the page.
func (s *Surface) Fonts() *text.FontSet {
	return s.fonts
}

// Generation is the store generation the current tree was built from.
func (s *Surface) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Reflow rebuilds the tree from the current store state.
func (s *Surface) Reflow() {
	s.render(true)
}

// Unmount detaches the surface from the store. Element returns nil afterwards.
func (s *Surface) Unmount() {
	s.mu.Lock()
	s.mounted = false
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// HTML serializes the current tree.
func (s *Surface) HTML() (string, error) {
	root := s.Element()
	if root == nil {
		return "", fmt.Errorf("surface is not mounted")
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("failed to render surface: %w", err)
	}
	return buf.String(), nil
}

// render builds the active page and installs it unless a tree from a newer
// generation is already in place. force also replaces a tree of the same generation.
func (s *Surface) render(force bool) {
	doc, page, generation := s.store.View()
	root := s.build(doc, page)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	if s.root != nil && (generation < s.generation || (generation == s.generation && !force)) {
		s.log.Debug("stale render dropped", "page", page, "generation", generation)
		return
	}
	s.root = root
	s.page = page
	s.generation = generation
	s.log.Debug("page rendered", "page", page, "generation", generation)
}
