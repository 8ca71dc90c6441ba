package worksheet

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gompdf/gomsheet/internal/pkg/logger"
)

var (
	// ErrExerciseNotFound is returned when no exercise has the requested id.
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page number must be at least 1")
)

// Placer decides the page a new exercise lands on.
// It returns the page for candidate given the exercises already in the worksheet
// and the active page.
type Placer interface {
	Place(existing []Exercise, candidate Exercise, activePage int) int
}

// PageListener is notified with the new active page after it changes.
type PageListener func(page int)

// ChangeListener is notified after every change to the worksheet or the active page.
// generation increases with each change.
type ChangeListener func(generation uint64)

// Store is the mutable worksheet of an editing session together with the active page.
// All methods are safe for concurrent use. Listeners run on the goroutine that made
// the change, after the store lock is released.
type Store struct {
	mu         sync.RWMutex
	doc        Worksheet
	activePage int
	generation uint64
	placer     Placer
	newID      func() string
	log        *logger.Logger

	listenerMu sync.Mutex
	pageFns    map[int]PageListener
	changeFns  map[int]ChangeListener
	nextListen int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *logger.Logger) StoreOption {
	return func(s *Store) {
		s.log = logger.OrNop(l).With("component", "worksheet")
	}
}

// NewStore creates a store over doc. Active page starts at 1.
func NewStore(doc Worksheet, placer Placer, opts ...StoreOption) *Store {
	s := &Store{
		doc:        doc.Clone(),
		activePage: 1,
		placer:     placer,
		newID:      uuid.NewString,
		log:        logger.Nop(),
		pageFns:    make(map[int]PageListener),
		changeFns:  make(map[int]ChangeListener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSeededStore creates a store holding the default seed worksheet.
func NewSeededStore(placer Placer, opts ...StoreOption) *Store {
	s := NewStore(Worksheet{}, placer, opts...)
	s.doc = NewSeedWorksheet(s.newID)
	return s
}

// Subscribe registers fn for active page changes and returns a function removing it.
func (s *Store) Subscribe(fn PageListener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	id := s.nextListen
	s.nextListen++
	s.pageFns[id] = fn
	return func() {
		s.listenerMu.Lock()
		delete(s.pageFns, id)
		s.listenerMu.Unlock()
	}
}

// Watch registers fn for every change and returns a function removing it.
func (s *Store) Watch(fn ChangeListener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	id := s.nextListen
	s.nextListen++
	s.changeFns[id] = fn
	return func() {
		s.listenerMu.Lock()
		delete(s.changeFns, id)
		s.listenerMu.Unlock()
	}
}

// mutate runs fn under the write lock. Unless fn fails, the generation is bumped and
// listeners are notified once the lock is released.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	before := s.activePage
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.generation++
	generation, page := s.generation, s.activePage
	s.mu.Unlock()

	s.listenerMu.Lock()
	var pageFns []PageListener
	if page != before {
		pageFns = make([]PageListener, 0, len(s.pageFns))
		for _, l := range s.pageFns {
			pageFns = append(pageFns, l)
		}
	}
	changeFns := make([]ChangeListener, 0, len(s.changeFns))
	for _, l := range s.changeFns {
		changeFns = append(changeFns, l)
	}
	s.listenerMu.Unlock()

	for _, l := range pageFns {
		l(page)
	}
	for _, l := range changeFns {
		l(generation)
	}
	return nil
}

// Generation returns the number of changes made so far.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// View returns a snapshot of the worksheet together with the active page and the
// generation they belong to.
func (s *Store) View() (Worksheet, int, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone(), s.activePage, s.generation
}

// Snapshot returns a deep copy of the worksheet.
func (s *Store) Snapshot() Worksheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Exercises returns a copy of all exercises in insertion order.
func (s *Store) Exercises() []Exercise {
	return s.Snapshot().Exercises
}

// Exercise returns the exercise with id.
func (s *Store) Exercise(id string) (Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Exercise{}, errors.Wrapf(ErrExerciseNotFound, "id %q", id)
	}
	ex := s.doc.Exercises[i]
	ex.Config = CloneConfig(ex.Type, ex.Config)
	return ex, nil
}

// ExercisesOnPage returns copies of the exercises assigned to page.
func (s *Store) ExercisesOnPage(page int) []Exercise {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := OnPage(s.doc.Exercises, page)
	for i := range out {
		out[i].Config = CloneConfig(out[i].Type, out[i].Config)
	}
	return out
}

// TotalPages is the highest assigned page number, minimum 1.
func (s *Store) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TotalPages(s.doc.Exercises)
}

// ActivePage returns the page currently displayed.
func (s *Store) ActivePage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activePage
}

// SetActivePage changes the displayed page. Pages beyond TotalPages are allowed so the
// user can start filling a new page.
func (s *Store) SetActivePage(page int) error {
	if page < 1 {
		return errors.Wrapf(ErrInvalidPage, "got %d", page)
	}
	if s.ActivePage() == page {
		return nil
	}
	return s.mutate(func() error {
		s.activePage = page
		return nil
	})
}

// NextPage moves to the following page and returns it.
func (s *Store) NextPage() int {
	page := s.ActivePage() + 1
	_ = s.SetActivePage(page)
	return page
}

// PrevPage moves to the previous page, stopping at 1, and returns it.
func (s *Store) PrevPage() int {
	page := s.ActivePage() - 1
	if page < 1 {
		page = 1
	}
	_ = s.SetActivePage(page)
	return page
}

// SetTitle sets the worksheet title.
func (s *Store) SetTitle(title string) {
	_ = s.mutate(func() error {
		s.doc.Title = title
		return nil
	})
}

// SetTheme sets the colour theme.
func (s *Store) SetTheme(theme Theme) {
	_ = s.mutate(func() error {
		s.doc.Theme = theme
		return nil
	})
}

// SetBorderTheme sets the page border decoration.
func (s *Store) SetBorderTheme(theme BorderTheme) {
	_ = s.mutate(func() error {
		s.doc.BorderTheme = theme
		return nil
	})
}

// SetSchoolInfo sets the header identity block.
func (s *Store) SetSchoolInfo(info SchoolInfo) {
	_ = s.mutate(func() error {
		s.doc.SchoolInfo = info
		return nil
	})
}

// AddExercise appends a new exercise of type t with its default config.
// It goes to the active page unless the placer moves it; when it lands elsewhere
// the active page follows it.
func (s *Store) AddExercise(t Type) Exercise {
	return s.addExercise(t, DefaultConfig(t))
}

// AddExerciseWithConfig is AddExercise with a caller supplied config.
func (s *Store) AddExerciseWithConfig(t Type, cfg Config) Exercise {
	if cfg == nil {
		cfg = DefaultConfig(t)
	}
	return s.addExercise(t, CloneConfig(t, cfg))
}

func (s *Store) addExercise(t Type, cfg Config) Exercise {
	var ex Exercise
	_ = s.mutate(func() error {
		ex = Exercise{
			ID:         s.newID(),
			Type:       t,
			Config:     cfg,
			PageNumber: s.activePage,
		}
		if s.placer != nil {
			if page := s.placer.Place(s.doc.Exercises, ex, s.activePage); page >= 1 {
				ex.PageNumber = page
			}
		}
		s.doc.Exercises = append(s.doc.Exercises, ex)
		s.activePage = ex.PageNumber
		return nil
	})

	s.log.Debug("exercise added", "id", ex.ID, "type", ex.Type, "page", ex.PageNumber)
	ex.Config = CloneConfig(t, ex.Config)
	return ex
}

// UpdateExercise merges patch into the exercise config. The page assignment is left
// untouched even if the exercise no longer fits.
func (s *Store) UpdateExercise(id string, patch map[string]any) (Exercise, error) {
	var ex Exercise
	err := s.mutate(func() error {
		i := s.indexOf(id)
		if i < 0 {
			return errors.Wrapf(ErrExerciseNotFound, "id %q", id)
		}
		ex = s.doc.Exercises[i]
		merged, err := MergeConfig(ex.Type, ex.Config, patch)
		if err != nil {
			return errors.Wrapf(err, "failed to update exercise %q", id)
		}
		s.doc.Exercises[i].Config = merged
		ex.Config = CloneConfig(ex.Type, merged)
		return nil
	})
	if err != nil {
		return Exercise{}, err
	}
	return ex, nil
}

// MoveExerciseToPage assigns the exercise to page without any fit check.
func (s *Store) MoveExerciseToPage(id string, page int) error {
	if page < 1 {
		return errors.Wrapf(ErrInvalidPage, "got %d", page)
	}
	return s.mutate(func() error {
		i := s.indexOf(id)
		if i < 0 {
			return errors.Wrapf(ErrExerciseNotFound, "id %q", id)
		}
		s.doc.Exercises[i].PageNumber = page
		return nil
	})
}

// DuplicateExercise appends a copy of the exercise with a new id on the same page.
func (s *Store) DuplicateExercise(id string) (Exercise, error) {
	var dup Exercise
	err := s.mutate(func() error {
		i := s.indexOf(id)
		if i < 0 {
			return errors.Wrapf(ErrExerciseNotFound, "id %q", id)
		}
		src := s.doc.Exercises[i]
		dup = Exercise{
			ID:         s.newID(),
			Type:       src.Type,
			Config:     CloneConfig(src.Type, src.Config),
			PageNumber: src.PageNumber,
		}
		s.doc.Exercises = append(s.doc.Exercises, dup)
		dup.Config = CloneConfig(dup.Type, dup.Config)
		return nil
	})
	if err != nil {
		return Exercise{}, err
	}
	return dup, nil
}

// RemoveExercise deletes the exercise. Other page numbers are not renumbered.
func (s *Store) RemoveExercise(id string) error {
	return s.mutate(func() error {
		i := s.indexOf(id)
		if i < 0 {
			return errors.Wrapf(ErrExerciseNotFound, "id %q", id)
		}
		s.doc.Exercises = append(s.doc.Exercises[:i], s.doc.Exercises[i+1:]...)
		return nil
	})
}

func (s *Store) indexOf(id string) int {
	for i, ex := range s.doc.Exercises {
		if ex.ID == id {
			return i
		}
	}
	return -1
}
