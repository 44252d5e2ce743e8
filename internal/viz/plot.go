package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rbsim/internal/sim"
)

// PlotSeries renders one series as an ascii chart.
func PlotSeries(data []float64, caption string, width, height int) string {
	if len(data) < 2 {
		return fmt.Sprintf("%s: not enough samples", caption)
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// PlotResult charts every generalized velocity of a run, one chart per
// degree of freedom.
func PlotResult(res *sim.Result, labels []string) string {
	if len(res.States) == 0 {
		return "no data to plot"
	}
	var b strings.Builder
	nd := len(res.States[0].QDot)
	for d := 0; d < nd; d++ {
		data := make([]float64, len(res.States))
		for i, st := range res.States {
			data[i] = st.QDot[d]
		}
		caption := fmt.Sprintf("qdot[%d]", d)
		if d < len(labels) {
			caption = labels[d] + " velocity"
		}
		b.WriteString(PlotSeries(data, caption, 80, 10))
		b.WriteString("\n\n")
	}
	return b.String()
}

// PlotCoordinates charts every generalized coordinate of a run.
func PlotCoordinates(res *sim.Result, labels []string) string {
	if len(res.States) == 0 {
		return "no data to plot"
	}
	var b strings.Builder
	nq := len(res.States[0].Q)
	for d := 0; d < nq; d++ {
		data := make([]float64, len(res.States))
		for i, st := range res.States {
			data[i] = st.Q[d]
		}
		caption := fmt.Sprintf("q[%d]", d)
		if d < len(labels) {
			caption = labels[d]
		}
		b.WriteString(PlotSeries(data, caption, 80, 10))
		b.WriteString("\n\n")
	}
	return b.String()
}
