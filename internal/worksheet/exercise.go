package worksheet

import (
	"encoding/json"
	"fmt"
)

// Type is the discriminant of an exercise.
type Type string

const (
	TypeCounting    Type = "counting"
	TypeAddition    Type = "addition"
	TypeSubtraction Type = "subtraction"
	TypeTracing     Type = "tracing"
	TypeDrawing     Type = "drawing"
	TypePattern     Type = "pattern"
	TypeMatching    Type = "matching"
	TypeSpelling    Type = "spelling"
	TypeColoring    Type = "coloring"
	TypeMaze        Type = "maze"
	TypeVerse       Type = "verse"
	TypeLogic       Type = "logic"
	TypeColor       Type = "color"
)

// KnownTypes lists every exercise type with a dedicated config.
var KnownTypes = []Type{
	TypeCounting, TypeAddition, TypeSubtraction, TypeTracing, TypeDrawing,
	TypePattern, TypeMatching, TypeSpelling, TypeColoring, TypeMaze,
	TypeVerse, TypeLogic, TypeColor,
}

// Config is the variant-specific payload of an exercise.
type Config interface {
	// Heading returns the human readable title shown on the exercise card.
	Heading() string
}

// Exercise is one printable activity on a worksheet page.
type Exercise struct {
	ID         string
	Type       Type
	Config     Config
	PageNumber int
}

// Title returns the exercise heading, or its type when the config has none.
func (e Exercise) Title() string {
	if e.Config != nil {
		if h := e.Config.Heading(); h != "" {
			return h
		}
	}
	return string(e.Type)
}

type CountingConfig struct {
	Title string `json:"title" yaml:"title"`
	Item  string `json:"item" yaml:"item"`
	Count int    `json:"count" yaml:"count"`
}

// ArithmeticConfig is shared by addition and subtraction exercises.
type ArithmeticConfig struct {
	Title       string `json:"title" yaml:"title"`
	First       int    `json:"first" yaml:"first"`
	Second      int    `json:"second" yaml:"second"`
	ShowHelpers bool   `json:"showHelpers" yaml:"showHelpers"`
}

type TracingConfig struct {
	Title string `json:"title" yaml:"title"`
	Text  string `json:"text" yaml:"text"`
}

type DrawingConfig struct {
	Title  string `json:"title" yaml:"title"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

type PatternConfig struct {
	Title  string   `json:"title" yaml:"title"`
	Items  []string `json:"items" yaml:"items"`
	Blanks int      `json:"blanks" yaml:"blanks"`
}

type Pair struct {
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

type MatchingConfig struct {
	Title string `json:"title" yaml:"title"`
	Pairs []Pair `json:"pairs" yaml:"pairs"`
}

type SpellingConfig struct {
	Title string `json:"title" yaml:"title"`
	Word  string `json:"word" yaml:"word"`
	Hint  string `json:"hint" yaml:"hint"`
}

type ColoringConfig struct {
	Title        string `json:"title" yaml:"title"`
	Artwork      string `json:"artwork" yaml:"artwork"`
	Instructions string `json:"instructions" yaml:"instructions"`
}

type MazeConfig struct {
	Title string `json:"title" yaml:"title"`
	Size  int    `json:"size" yaml:"size"`
	Start string `json:"start" yaml:"start"`
	Goal  string `json:"goal" yaml:"goal"`
}

// VerseKind selects the sub-exercise of a verse exercise.
type VerseKind string

const (
	VerseMatching  VerseKind = "matching"
	VerseTracing   VerseKind = "tracing"
	VerseComplete  VerseKind = "complete-verse"
	VerseFillBlank VerseKind = "fill-blank"
)

type VerseConfig struct {
	Title  string    `json:"title" yaml:"title"`
	Kind   VerseKind `json:"kind" yaml:"kind"`
	Surah  int       `json:"surah" yaml:"surah"`
	Verses []string  `json:"verses" yaml:"verses"`
}

type LogicConfig struct {
	Title    string   `json:"title" yaml:"title"`
	Question string   `json:"question" yaml:"question"`
	Options  []string `json:"options" yaml:"options"`
}

type ColorConfig struct {
	Title  string   `json:"title" yaml:"title"`
	Colors []string `json:"colors" yaml:"colors"`
}

// GenericConfig holds the fields of an exercise type this package does not know.
type GenericConfig struct {
	Fields map[string]any
}

func (c *CountingConfig) Heading() string   { return c.Title }
func (c *ArithmeticConfig) Heading() string { return c.Title }
func (c *TracingConfig) Heading() string    { return c.Title }
func (c *DrawingConfig) Heading() string    { return c.Title }
func (c *PatternConfig) Heading() string    { return c.Title }
func (c *MatchingConfig) Heading() string   { return c.Title }
func (c *SpellingConfig) Heading() string   { return c.Title }
func (c *ColoringConfig) Heading() string   { return c.Title }
func (c *MazeConfig) Heading() string       { return c.Title }
func (c *VerseConfig) Heading() string      { return c.Title }
func (c *LogicConfig) Heading() string      { return c.Title }
func (c *ColorConfig) Heading() string      { return c.Title }

func (c *GenericConfig) Heading() string {
	if t, ok := c.Fields["title"].(string); ok {
		return t
	}
	return ""
}

func (c *GenericConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Fields)
}

func (c *GenericConfig) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.Fields)
}

// NewConfig returns an empty config value of the right variant for t.
func NewConfig(t Type) Config {
	switch t {
	case TypeCounting:
		return &CountingConfig{}
	case TypeAddition, TypeSubtraction:
		return &ArithmeticConfig{}
	case TypeTracing:
		return &TracingConfig{}
	case TypeDrawing:
		return &DrawingConfig{}
	case TypePattern:
		return &PatternConfig{}
	case TypeMatching:
		return &MatchingConfig{}
	case TypeSpelling:
		return &SpellingConfig{}
	case TypeColoring:
		return &ColoringConfig{}
	case TypeMaze:
		return &MazeConfig{}
	case TypeVerse:
		return &VerseConfig{}
	case TypeLogic:
		return &LogicConfig{}
	case TypeColor:
		return &ColorConfig{}
	default:
		return &GenericConfig{Fields: map[string]any{}}
	}
}

// MergeConfig overlays patch onto a copy of base and returns the result.
// Keys in patch use the JSON field names of the variant; unknown keys are ignored
// for known variants and kept for generic ones.
func MergeConfig(t Type, base Config, patch map[string]any) (Config, error) {
	fields := map[string]any{}
	if base != nil {
		raw, err := json.Marshal(base)
		if err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	if fields == nil {
		fields = map[string]any{}
	}
	for k, v := range patch {
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged config: %w", err)
	}
	out := NewConfig(t)
	if err := json.Unmarshal(merged, out); err != nil {
		return nil, fmt.Errorf("invalid config for %s exercise: %w", t, err)
	}
	return out, nil
}

// CloneConfig returns a deep copy of c. A config that cannot be copied yields the
// zero config of t, never c itself.
func CloneConfig(t Type, c Config) Config {
	out, err := MergeConfig(t, c, nil)
	if err != nil {
		return NewConfig(t)
	}
	return out
}
