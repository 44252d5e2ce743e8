// Package export writes recorded trajectories as standalone SVG
// documents.
package export

import (
	"fmt"
	"strings"
)

// TrajectorySVG plots column y against column x of a state history as
// an SVG polyline, with markers on the first and last sample.
func TrajectorySVG(states [][]float64, xCol, yCol int, size float64) string {
	if len(states) < 2 || xCol < 0 || yCol < 0 {
		return ""
	}

	minX, maxX := 0.0, 0.0
	minY, maxY := 0.0, 0.0
	for i, row := range states {
		if xCol >= len(row) || yCol >= len(row) {
			return ""
		}
		if i == 0 {
			minX, maxX = row[xCol], row[xCol]
			minY, maxY = row[yCol], row[yCol]
			continue
		}
		minX = min(minX, row[xCol])
		maxX = max(maxX, row[xCol])
		minY = min(minY, row[yCol])
		maxY = max(maxY, row[yCol])
	}
	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	const margin = 0.05
	px := func(x float64) float64 { return (margin + (1-2*margin)*(x-minX)/spanX) * size }
	py := func(y float64) float64 { return (1 - margin - (1-2*margin)*(y-minY)/spanY) * size }

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<polyline fill="none" stroke="#00ff00" stroke-width="1.5" points="`,
		size, size, size, size)

	for i, row := range states {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.2f,%.2f", px(row[xCol]), py(row[yCol]))
	}
	b.WriteString("\"/>\n")

	first, last := states[0], states[len(states)-1]
	fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="4" fill="#ffcc00"/>`+"\n",
		px(first[xCol]), py(first[yCol]))
	fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="4" fill="#ff3366"/>`+"\n",
		px(last[xCol]), py(last[yCol]))
	b.WriteString("</svg>\n")
	return b.String()
}
