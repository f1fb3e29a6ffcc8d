// Package chart renders the dashboard charts as SVG with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
)

// ErrNoData is returned when a chart has nothing to draw.
var ErrNoData = errors.New("chart: no data")

var (
	width  = 6 * vg.Inch
	height = 3.5 * vg.Inch

	green     = color.RGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
	lightArea = color.RGBA{R: 0x82, G: 0xCA, B: 0x9D, A: 0x4D}
	blue      = color.RGBA{R: 0x00, G: 0x7B, B: 0xFF, A: 0xFF}
)

// Growth draws the projected yield by days to harvest as a filled line.
func Growth(w io.Writer, points []crop.GrowthPoint) error {
	if len(points) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Growth Projection by Days to Harvest"
	p.X.Label.Text = "Days"
	p.Y.Label.Text = "Yield (tons/ha)"

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Day)
		xys[i].Y = pt.ProjectedYield
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("growth line: %w", err)
	}
	line.LineStyle.Color = green
	line.LineStyle.Width = vg.Points(2)
	line.FillColor = lightArea

	p.Add(plotter.NewGrid(), line)
	p.Y.Min = 0
	return save(w, p)
}

// Trend draws the historical yields in display order.
func Trend(w io.Writer, rows []crop.HistoryRow) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Historical Yield Trend"
	p.Y.Label.Text = "Yield (tons/ha)"

	xys := make(plotter.XYs, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		xys[i].X = float64(i)
		xys[i].Y = r.Yield
		labels[i] = r.Date
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("trend line: %w", err)
	}
	line.LineStyle.Color = blue
	line.LineStyle.Width = vg.Points(3)
	points.GlyphStyle.Color = blue
	points.GlyphStyle.Radius = vg.Points(4)

	p.Add(plotter.NewGrid(), line, points)
	p.NominalX(labels...)
	return save(w, p)
}

// Comparison draws the predicted, average and optimal yields side by side.
func Comparison(w io.Writer, bars []crop.Comparison) error {
	if len(bars) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Yield Comparison"
	p.Y.Label.Text = "Yield (tons/ha)"

	values := make(plotter.Values, len(bars))
	names := make([]string, len(bars))
	for i, b := range bars {
		values[i] = b.Yield
		names[i] = b.Name
	}
	chart, err := plotter.NewBarChart(values, vg.Points(50))
	if err != nil {
		return fmt.Errorf("comparison bars: %w", err)
	}
	chart.Color = green
	chart.LineStyle.Width = vg.Length(0)

	p.Add(chart)
	p.NominalX(names...)
	return save(w, p)
}

// Distribution draws one bar per crop in its palette color, labelled with its
// share of all predictions.
func Distribution(w io.Writer, segments []crop.Segment) error {
	if len(segments) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Crop Distribution"
	p.Y.Label.Text = "Predictions"

	labels := make([]string, len(segments))
	for i, s := range segments {
		chart, err := plotter.NewBarChart(plotter.Values{float64(s.Count)}, vg.Points(40))
		if err != nil {
			return fmt.Errorf("distribution bar %s: %w", s.Name, err)
		}
		chart.XMin = float64(i)
		chart.Color = parseHex(s.Color)
		chart.LineStyle.Width = vg.Length(0)
		p.Add(chart)
		labels[i] = s.Label
	}
	p.NominalX(labels...)
	return save(w, p)
}

func save(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(width, height, "svg")
	if err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// parseHex converts "#rrggbb" to a color; malformed input yields gray.
func parseHex(s string) color.Color {
	gray := color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xFF}
	if len(s) != 7 || s[0] != '#' {
		return gray
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return gray
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}
