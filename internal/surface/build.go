package surface

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gompdf/gomsheet/internal/pagination"
	"github.com/gompdf/gomsheet/internal/text"
	"github.com/gompdf/gomsheet/internal/worksheet"
)

// Class names shared with the rasterizer.
const (
	ClassHeader   = "worksheet-header"
	ClassExercise = "exercise"
	ClassLine     = "line"
	ClassTrace    = "trace"
	ClassCanvas   = "canvas"
	ClassArtwork  = "artwork"
	ClassLogo     = "school-logo"
	ClassFooter   = "worksheet-footer"
)

func (s *Surface) build(doc worksheet.Worksheet, page int) *html.Node {
	opts := s.engine.Options()
	onPage := worksheet.OnPage(doc.Exercises, page)
	total := worksheet.TotalPages(doc.Exercises)

	root := element(atom.Div,
		"id", ContainerID,
		"class", fmt.Sprintf("worksheet-page theme-%s border-%s", doc.Theme, doc.BorderTheme),
		"data-page", strconv.Itoa(page),
		"data-total", strconv.Itoa(total),
		"data-budget", formatUnits(opts.PageBudget),
		"data-spacing", formatUnits(opts.ItemSpacing),
		"data-border", string(doc.BorderTheme),
	)
	root.AppendChild(buildHeader(doc, opts.HeaderHeight))
	for _, ex := range onPage {
		root.AppendChild(buildExercise(ex))
	}
	root.AppendChild(withText(element(atom.Footer, "class", ClassFooter), fmt.Sprintf("%d / %d", page, total)))
	return root
}

func buildHeader(doc worksheet.Worksheet, height float64) *html.Node {
	header := element(atom.Header, "class", ClassHeader, "data-height", formatUnits(height))
	if doc.SchoolInfo.LogoURL != "" {
		header.AppendChild(element(atom.Img, "class", ClassLogo, "src", doc.SchoolInfo.LogoURL))
	}
	if doc.SchoolInfo.SchoolName != "" {
		header.AppendChild(withText(element(atom.P, "class", "school-name"), doc.SchoolInfo.SchoolName))
	}
	if doc.SchoolInfo.TeacherName != "" {
		header.AppendChild(withText(element(atom.P, "class", "teacher-name"), doc.SchoolInfo.TeacherName))
	}
	header.AppendChild(withText(element(atom.H1, "class", "worksheet-title"), doc.Title))
	header.AppendChild(withText(element(atom.P, "class", "student-line"), "Name: ______________    Class: ________"))
	return header
}

func buildExercise(ex worksheet.Exercise) *html.Node {
	section := element(atom.Section,
		"class", ClassExercise+" exercise-"+string(ex.Type),
		"data-id", ex.ID,
		"data-type", string(ex.Type),
		"data-height", formatUnits(pagination.EstimateHeight(ex)),
	)
	title := ex.Title()
	h2 := withText(element(atom.H2), title)
	if text.IsRTL(title) {
		h2.Attr = append(h2.Attr, html.Attribute{Key: "dir", Val: "rtl"})
	}
	section.AppendChild(h2)

	for _, n := range exerciseBody(ex) {
		section.AppendChild(n)
	}
	return section
}

func exerciseBody(ex worksheet.Exercise) []*html.Node {
	switch c := ex.Config.(type) {
	case *worksheet.CountingConfig:
		item := c.Item
		if item == "" {
			item = "●"
		}
		var nodes []*html.Node
		for left := c.Count; left > 0; left -= 5 {
			n := min(left, 5)
			nodes = append(nodes, line(strings.TrimSpace(strings.Repeat(item+"  ", n))))
		}
		return append(nodes, line("How many? ______"))
	case *worksheet.ArithmeticConfig:
		op := "+"
		if ex.Type == worksheet.TypeSubtraction {
			op = "-"
		}
		nodes := []*html.Node{line(fmt.Sprintf("%d %s %d = ______", c.First, op, c.Second))}
		if c.ShowHelpers {
			nodes = append(nodes, line(fmt.Sprintf("%s   %s   %s", dots(c.First), op, dots(c.Second))))
		}
		return nodes
	case *worksheet.TracingConfig:
		return []*html.Node{trace(c.Text)}
	case *worksheet.DrawingConfig:
		return []*html.Node{line(c.Prompt), element(atom.Div, "class", ClassCanvas)}
	case *worksheet.PatternConfig:
		items := append([]string{}, c.Items...)
		for i := 0; i < c.Blanks; i++ {
			items = append(items, "____")
		}
		return []*html.Node{line(strings.Join(items, "   "))}
	case *worksheet.MatchingConfig:
		var nodes []*html.Node
		for i, p := range c.Pairs {
			// Right column is printed in reverse so pairs do not line up.
			right := c.Pairs[len(c.Pairs)-1-i].Right
			nodes = append(nodes, line(fmt.Sprintf("%s  •            •  %s", p.Left, right)))
		}
		return nodes
	case *worksheet.SpellingConfig:
		blanks := strings.TrimSpace(strings.Repeat("_ ", len([]rune(c.Word))))
		return []*html.Node{line(c.Hint), line(blanks)}
	case *worksheet.ColoringConfig:
		return []*html.Node{line(c.Instructions), artwork(ColoringArtwork(c.Artwork))}
	case *worksheet.MazeConfig:
		return []*html.Node{
			line(fmt.Sprintf("Help the %s reach the %s.", orDefault(c.Start, "bee"), orDefault(c.Goal, "flower"))),
			artwork(MazeArtwork(ex.ID, c.Size)),
		}
	case *worksheet.VerseConfig:
		return verseBody(c)
	case *worksheet.LogicConfig:
		nodes := []*html.Node{line(c.Question)}
		for _, o := range c.Options {
			nodes = append(nodes, line("( )  "+o))
		}
		return nodes
	case *worksheet.ColorConfig:
		var nodes []*html.Node
		for _, col := range c.Colors {
			nodes = append(nodes, withText(element(atom.P, "class", ClassLine+" swatch", "data-color", col), "______"))
		}
		return nodes
	case *worksheet.GenericConfig:
		keys := make([]string, 0, len(c.Fields))
		for k := range c.Fields {
			if k != "title" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var nodes []*html.Node
		for _, k := range keys {
			nodes = append(nodes, line(fmt.Sprintf("%s: %v", k, c.Fields[k])))
		}
		return nodes
	default:
		return nil
	}
}

func verseBody(c *worksheet.VerseConfig) []*html.Node {
	verses := c.Verses
	if len(verses) == 0 {
		verses = []string{fmt.Sprintf("Surah %d, verse 1", max(c.Surah, 1))}
	}
	var nodes []*html.Node
	for i, v := range verses {
		switch c.Kind {
		case worksheet.VerseTracing:
			nodes = append(nodes, trace(v))
		case worksheet.VerseMatching:
			nodes = append(nodes, line(fmt.Sprintf("%s  •        •  (%d)", v, len(verses)-i)))
		case worksheet.VerseFillBlank:
			nodes = append(nodes, line(blankWord(v, false)))
		default:
			nodes = append(nodes, line(blankWord(v, true)))
		}
	}
	return nodes
}

// blankWord replaces the last word, or the middle one, with a blank.
func blankWord(v string, last bool) string {
	words := strings.Fields(v)
	if len(words) < 2 {
		return v + " ______"
	}
	i := len(words) / 2
	if last {
		i = len(words) - 1
	}
	words[i] = "______"
	return strings.Join(words, " ")
}

func dots(n int) string {
	if n <= 0 {
		return "-"
	}
	return strings.TrimSpace(strings.Repeat("● ", min(n, 20)))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func line(s string) *html.Node {
	n := withText(element(atom.P, "class", ClassLine), s)
	if text.IsRTL(s) {
		n.Attr = append(n.Attr, html.Attribute{Key: "dir", Val: "rtl"})
	}
	return n
}

func trace(s string) *html.Node {
	n := withText(element(atom.P, "class", ClassTrace), s)
	if text.IsRTL(s) {
		n.Attr = append(n.Attr, html.Attribute{Key: "dir", Val: "rtl"})
	}
	return n
}

func artwork(svg string) *html.Node {
	return element(atom.Img, "class", ClassArtwork, "src", SVGDataURL(svg))
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	return n
}

func formatUnits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Attr returns the value of key on n.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether n carries class c.
func HasClass(n *html.Node, c string) bool {
	for _, f := range strings.Fields(Attr(n, "class")) {
		if f == c {
			return true
		}
	}
	return false
}

// TextContent concatenates the text nodes below n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return b.String()
}
