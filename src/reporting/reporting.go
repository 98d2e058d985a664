// Package reporting draws the gather results
package reporting

import (
	"fmt"

	"github.com/will-rowe/countergather/src/gather"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// maxLabel is the longest reference name shown on the plot
const maxLabel = 24

// PlotResults saves a bar chart of the containment of each selected reference, in selection order.
// The image format is taken from the file extension (png, svg, pdf...).
func PlotResults(results []gather.Result, fileName string) error {
	if len(results) == 0 {
		return fmt.Errorf("no gather results to plot")
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "counter gather"
	p.X.Label.Text = "reference (selection order)"
	p.Y.Label.Text = "hashes shared with the remaining query"

	values := make(plotter.Values, len(results))
	labels := make([]string, len(results))
	for i, res := range results {
		values[i] = float64(res.Containment)
		labels[i] = shortName(res.Name)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	width := vg.Length(len(results)) * vg.Points(30)
	if width < 8*vg.Inch {
		width = 8 * vg.Inch
	}
	return p.Save(width, 8*vg.Inch, fileName)
}

func shortName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxLabel {
		return name
	}
	return string(runes[:maxLabel-3]) + "..."
}
