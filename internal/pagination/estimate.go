package pagination

import (
	"math"

	"github.com/gompdf/gomsheet/internal/worksheet"
)

// Height units. They only need to be comparable with each other and with the page
// budget, they do not map to a physical length.
const (
	BaseHeight = 60.0

	countingTerm   = 40.0
	countingRow    = 50.0
	countingPerRow = 5

	equationTerm = 80.0
	helperRow    = 60.0

	tracingTerm  = 120.0
	drawingTerm  = 250.0
	patternTerm  = 100.0
	matchingTerm = 40.0
	matchingPair = 45.0
	spellingTerm = 110.0
	artworkTerm  = 300.0
	logicTerm    = 140.0
	colorTerm    = 120.0
	verseTerm    = 20.0
	fallbackTerm = 100.0
)

// verseCost is the per-verse height of each verse sub-exercise.
var verseCost = map[worksheet.VerseKind]float64{
	worksheet.VerseMatching:  70,
	worksheet.VerseTracing:   90,
	worksheet.VerseComplete:  60,
	worksheet.VerseFillBlank: 55,
}

const defaultVerseCost = 60.0

// EstimateHeight returns the vertical space an exercise needs, in height units.
// The result is always positive; unknown types get a generic default.
func EstimateHeight(ex worksheet.Exercise) float64 {
	return BaseHeight + typeTerm(ex)
}

func typeTerm(ex worksheet.Exercise) float64 {
	switch ex.Type {
	case worksheet.TypeCounting:
		count := 0
		if c, ok := ex.Config.(*worksheet.CountingConfig); ok && c.Count > 0 {
			count = c.Count
		}
		rows := math.Ceil(float64(count) / countingPerRow)
		return countingTerm + rows*countingRow
	case worksheet.TypeAddition, worksheet.TypeSubtraction:
		if c, ok := ex.Config.(*worksheet.ArithmeticConfig); ok && c.ShowHelpers {
			return equationTerm + helperRow
		}
		return equationTerm
	case worksheet.TypeTracing:
		// Long strings are not penalized.
		return tracingTerm
	case worksheet.TypeDrawing:
		return drawingTerm
	case worksheet.TypePattern:
		return patternTerm
	case worksheet.TypeMatching:
		pairs := 0
		if c, ok := ex.Config.(*worksheet.MatchingConfig); ok {
			pairs = len(c.Pairs)
		}
		return matchingTerm + float64(pairs)*matchingPair
	case worksheet.TypeSpelling:
		return spellingTerm
	case worksheet.TypeColoring, worksheet.TypeMaze:
		return artworkTerm
	case worksheet.TypeVerse:
		kind := worksheet.VerseKind("")
		verses := 0
		if c, ok := ex.Config.(*worksheet.VerseConfig); ok {
			kind = c.Kind
			verses = len(c.Verses)
		}
		if verses == 0 {
			verses = 1
		}
		per, ok := verseCost[kind]
		if !ok {
			per = defaultVerseCost
		}
		return verseTerm + float64(verses)*per
	case worksheet.TypeLogic:
		return logicTerm
	case worksheet.TypeColor:
		return colorTerm
	default:
		return fallbackTerm
	}
}
