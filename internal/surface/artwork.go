package surface

import (
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
)

const svgHeader = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 200" width="200" height="200">`

var coloringArtwork = map[string]string{
	"apple": `<circle cx="100" cy="115" r="70" fill="none" stroke="#000000" stroke-width="4"/>` +
		`<path d="M100 45 Q105 20 125 15" fill="none" stroke="#000000" stroke-width="4"/>` +
		`<ellipse cx="125" cy="40" rx="18" ry="9" fill="none" stroke="#000000" stroke-width="3"/>`,
	"star": `<polygon points="100,15 124,75 190,75 136,115 156,180 100,140 44,180 64,115 10,75 76,75" fill="none" stroke="#000000" stroke-width="4"/>`,
	"fish": `<ellipse cx="90" cy="100" rx="65" ry="40" fill="none" stroke="#000000" stroke-width="4"/>` +
		`<polygon points="150,100 190,65 190,135" fill="none" stroke="#000000" stroke-width="4"/>` +
		`<circle cx="55" cy="90" r="6" fill="#000000"/>`,
	"house": `<rect x="40" y="90" width="120" height="90" fill="none" stroke="#000000" stroke-width="4"/>` +
		`<polygon points="30,95 100,25 170,95" fill="none" stroke="#000000" stroke-width="4"/>` +
		`<rect x="85" y="130" width="30" height="50" fill="none" stroke="#000000" stroke-width="3"/>`,
}

// ColoringArtwork returns the SVG source of a coloring picture, falling back to the
// first known picture for unknown names.
func ColoringArtwork(name string) string {
	body, ok := coloringArtwork[strings.ToLower(name)]
	if !ok {
		body = coloringArtwork["apple"]
	}
	return svgHeader + body + `</svg>`
}

// MazeArtwork draws a size x size maze. The layout is derived from seed so the same
// exercise always prints the same maze.
func MazeArtwork(seed string, size int) string {
	if size < 2 {
		size = 2
	}
	if size > 20 {
		size = 20
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	// Each cell owns its east and south walls.
	type cell struct{ east, south, seen bool }
	grid := make([][]cell, size)
	for y := range grid {
		grid[y] = make([]cell, size)
		for x := range grid[y] {
			grid[y][x] = cell{east: true, south: true}
		}
	}

	type point struct{ x, y int }
	stack := []point{{0, 0}}
	grid[0][0].seen = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		var next []point
		for _, d := range []point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := cur.x+d.x, cur.y+d.y
			if nx >= 0 && ny >= 0 && nx < size && ny < size && !grid[ny][nx].seen {
				next = append(next, point{nx, ny})
			}
		}
		if len(next) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		n := next[rng.Intn(len(next))]
		switch {
		case n.x > cur.x:
			grid[cur.y][cur.x].east = false
		case n.x < cur.x:
			grid[n.y][n.x].east = false
		case n.y > cur.y:
			grid[cur.y][cur.x].south = false
		default:
			grid[n.y][n.x].south = false
		}
		grid[n.y][n.x].seen = true
		stack = append(stack, n)
	}

	const margin = 10.0
	step := (200 - 2*margin) / float64(size)
	var d strings.Builder
	// Outer frame, open at the entrance (top left) and the exit (bottom right).
	fmt.Fprintf(&d, "M%.1f %.1f L%.1f %.1f L%.1f %.1f ", margin+step, margin, 200-margin, margin, 200-margin, 200-margin-step)
	fmt.Fprintf(&d, "M%.1f %.1f L%.1f %.1f L%.1f %.1f ", 200-margin-step, 200-margin, margin, 200-margin, margin, margin)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			x0 := margin + float64(x)*step
			y0 := margin + float64(y)*step
			if grid[y][x].east && x < size-1 {
				fmt.Fprintf(&d, "M%.1f %.1f L%.1f %.1f ", x0+step, y0, x0+step, y0+step)
			}
			if grid[y][x].south && y < size-1 {
				fmt.Fprintf(&d, "M%.1f %.1f L%.1f %.1f ", x0, y0+step, x0+step, y0+step)
			}
		}
	}

	var b strings.Builder
	b.WriteString(svgHeader)
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="#000000" stroke-width="3"/>`, strings.TrimSpace(d.String()))
	fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#2e7d32"/>`, margin+step/2, margin+step/2, step/4)
	fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#c62828"/>`, 200-margin-step/2, 200-margin-step/2, step/4)
	b.WriteString(`</svg>`)
	return b.String()
}

// SVGDataURL wraps svg source in a base64 data URL.
func SVGDataURL(svg string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
