package worksheet

// Theme is the visual theme of the printed worksheet.
type Theme string

const (
	ThemeClassic Theme = "classic"
	ThemeSpace   Theme = "space"
	ThemeGarden  Theme = "garden"
	ThemeOcean   Theme = "ocean"
)

// BorderTheme is the decorative frame drawn around every page.
type BorderTheme string

const (
	BorderNone    BorderTheme = "none"
	BorderSimple  BorderTheme = "simple"
	BorderStars   BorderTheme = "stars"
	BorderFlowers BorderTheme = "flowers"
)

// SchoolInfo is printed in the page header.
type SchoolInfo struct {
	SchoolName  string `json:"schoolName" yaml:"schoolName"`
	TeacherName string `json:"teacherName" yaml:"teacherName"`
	LogoURL     string `json:"logoUrl" yaml:"logoUrl"`
}

// Worksheet is the document being composed.
// Exercises are kept in insertion order regardless of their page assignment.
type Worksheet struct {
	Title       string
	Theme       Theme
	BorderTheme BorderTheme
	SchoolInfo  SchoolInfo
	Exercises   []Exercise
}

// Clone returns a deep copy of w.
func (w Worksheet) Clone() Worksheet {
	out := w
	out.Exercises = make([]Exercise, len(w.Exercises))
	for i, ex := range w.Exercises {
		ex.Config = CloneConfig(ex.Type, ex.Config)
		out.Exercises[i] = ex
	}
	return out
}

// TotalPages is the highest page number in use, or 1 for an empty worksheet.
func TotalPages(exercises []Exercise) int {
	total := 1
	for _, ex := range exercises {
		if ex.PageNumber > total {
			total = ex.PageNumber
		}
	}
	return total
}

// OnPage returns the exercises assigned to page, in insertion order.
func OnPage(exercises []Exercise, page int) []Exercise {
	var out []Exercise
	for _, ex := range exercises {
		if ex.PageNumber == page {
			out = append(out, ex)
		}
	}
	return out
}

// DefaultConfig returns the config a freshly added exercise of type t starts with.
func DefaultConfig(t Type) Config {
	switch t {
	case TypeCounting:
		return &CountingConfig{Title: "Count the apples", Item: "apple", Count: 5}
	case TypeAddition:
		return &ArithmeticConfig{Title: "Add the numbers", First: 2, Second: 3, ShowHelpers: true}
	case TypeSubtraction:
		return &ArithmeticConfig{Title: "Subtract the numbers", First: 5, Second: 2, ShowHelpers: true}
	case TypeTracing:
		return &TracingConfig{Title: "Trace the letters", Text: "ABC"}
	case TypeDrawing:
		return &DrawingConfig{Title: "Draw your family", Prompt: "Draw the people who live with you."}
	case TypePattern:
		return &PatternConfig{Title: "Complete the pattern", Items: []string{"circle", "square", "circle", "square"}, Blanks: 2}
	case TypeMatching:
		return &MatchingConfig{Title: "Match the pairs", Pairs: []Pair{
			{Left: "cat", Right: "kitten"},
			{Left: "dog", Right: "puppy"},
			{Left: "cow", Right: "calf"},
		}}
	case TypeSpelling:
		return &SpellingConfig{Title: "Spell the word", Word: "sun", Hint: "It shines in the sky."}
	case TypeColoring:
		return &ColoringConfig{Title: "Color the picture", Artwork: "apple", Instructions: "Use red and green."}
	case TypeMaze:
		return &MazeConfig{Title: "Find the way out", Size: 8, Start: "bee", Goal: "flower"}
	case TypeVerse:
		return &VerseConfig{Title: "Complete the verse", Kind: VerseComplete, Surah: 1}
	case TypeLogic:
		return &LogicConfig{Title: "Which one is different?", Question: "Circle the odd one out.", Options: []string{"apple", "banana", "carrot"}}
	case TypeColor:
		return &ColorConfig{Title: "Name the colors", Colors: []string{"red", "blue", "yellow"}}
	default:
		return &GenericConfig{Fields: map[string]any{"title": string(t)}}
	}
}

// NewSeedWorksheet returns the default worksheet a session starts with.
func NewSeedWorksheet(newID func() string) Worksheet {
	seed := []Type{TypeCounting, TypeAddition, TypeTracing}
	w := Worksheet{
		Title:       "My Worksheet",
		Theme:       ThemeClassic,
		BorderTheme: BorderSimple,
	}
	for _, t := range seed {
		w.Exercises = append(w.Exercises, Exercise{
			ID:         newID(),
			Type:       t,
			Config:     DefaultConfig(t),
			PageNumber: 1,
		})
	}
	return w
}
