// Package chart draws report charts with go-chart.
package chart

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"autodash/domain/core"
	"autodash/domain/report"
)

var palette = []drawing.Color{
	gochart.ColorBlue,
	gochart.ColorGreen,
	gochart.ColorOrange,
	gochart.ColorRed,
	gochart.ColorCyan,
	gochart.ColorAlternateGray,
}

// Renderer implements ports.ChartRasterizer and ports.ChartVectorRenderer
type Renderer struct{}

// NewRenderer creates a chart renderer
func NewRenderer() *Renderer { return &Renderer{} }

// RasterizePNG writes the chart as a PNG file at path
func (r *Renderer) RasterizePNG(c report.Chart, path string, width, height int) error {
	var buf bytes.Buffer
	if err := render(c, gochart.PNG, &buf, width, height); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// RenderSVG writes the chart as SVG markup. go-chart writes text nodes
// verbatim, so every label is escaped first.
func (r *Renderer) RenderSVG(c report.Chart, w io.Writer, width, height int) error {
	return render(escapeText(c), gochart.SVG, w, width, height)
}

// escapeText returns a copy of c with all display text XML-escaped
func escapeText(c report.Chart) report.Chart {
	out := report.Chart{
		Kind:   c.Kind,
		Title:  html.EscapeString(c.Title),
		XAxis:  html.EscapeString(c.XAxis),
		YAxis:  html.EscapeString(c.YAxis),
		Series: make([]report.Series, len(c.Series)),
	}
	for i, s := range c.Series {
		pts := make([]report.Point, len(s.Points))
		for j, p := range s.Points {
			pts[j] = report.Point{Label: html.EscapeString(p.Label), Value: p.Value}
		}
		out.Series[i] = report.Series{Name: html.EscapeString(s.Name), Points: pts}
	}
	return out
}

func render(c report.Chart, rp gochart.RendererProvider, w io.Writer, width, height int) error {
	if c.IsEmpty() {
		return fmt.Errorf("%w: chart %q has no data", core.ErrRasterUnavailable, c.Title)
	}
	var err error
	switch {
	case c.Kind == report.ChartPie:
		err = pieChart(c, width, height).Render(rp, w)
	case c.Kind == report.ChartBar && len(c.Series) == 1:
		err = barChart(c, width, height).Render(rp, w)
	default:
		err = lineChart(c, width, height).Render(rp, w)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrRasterUnavailable, err)
	}
	return nil
}

func barChart(c report.Chart, width, height int) gochart.BarChart {
	pts := c.Series[0].Points
	bars := make([]gochart.Value, len(pts))
	for i, p := range pts {
		bars[i] = gochart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: gochart.Style{FillColor: palette[0], StrokeColor: palette[0]},
		}
	}
	barWidth := 40
	if n := len(bars); n > 0 && width/(n+1) < barWidth {
		barWidth = max(width/(n+1), 4)
	}
	return gochart.BarChart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      gochart.YAxis{Name: c.YAxis},
		Bars:       bars,
	}
}

func pieChart(c report.Chart, width, height int) gochart.PieChart {
	var values []gochart.Value
	for i, p := range c.Series[0].Points {
		if p.Value <= 0 {
			continue
		}
		col := palette[i%len(palette)]
		values = append(values, gochart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: gochart.Style{FillColor: col, StrokeColor: drawing.ColorWhite},
		})
	}
	return gochart.PieChart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
}

// lineChart draws every series over a shared categorical x axis
func lineChart(c report.Chart, width, height int) gochart.Chart {
	var labels []string
	index := map[string]float64{}
	for _, s := range c.Series {
		for _, p := range s.Points {
			if _, ok := index[p.Label]; !ok {
				index[p.Label] = float64(len(labels))
				labels = append(labels, p.Label)
			}
		}
	}

	series := make([]gochart.Series, 0, len(c.Series))
	for i, s := range c.Series {
		xs := make([]float64, 0, len(s.Points))
		ys := make([]float64, 0, len(s.Points))
		for _, p := range s.Points {
			xs = append(xs, index[p.Label])
			ys = append(ys, p.Value)
		}
		if len(xs) == 1 {
			// a single point has no extent; draw it as a flat segment
			xs = append(xs, xs[0]+0.5)
			ys = append(ys, ys[0])
		}
		col := palette[i%len(palette)]
		series = append(series, gochart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   gochart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 3},
		})
	}

	ticks := make([]gochart.Tick, len(labels))
	for i, l := range labels {
		ticks[i] = gochart.Tick{Value: float64(i), Label: l}
	}
	xMax := float64(len(labels) - 1)
	if xMax < 1 {
		xMax = 1
	}

	ch := gochart.Chart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: c.XAxis, Ticks: ticks, Range: &gochart.ContinuousRange{Min: 0, Max: xMax}},
		YAxis:      gochart.YAxis{Name: c.YAxis},
		Series:     series,
	}
	if len(series) > 1 {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}
	return ch
}
