/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package plot

import (
	"fmt"
	"io"
	"strings"

	"github.com/ilhamster/instrumentviz/instrumentviz/instrument"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an image format a Chart can be drawn in.
type Format string

// Supported drawing formats.
const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ContentType returns the MIME type of the receiving Format.
func (f Format) ContentType() string {
	switch f {
	case SVG:
		return "image/svg+xml"
	case PNG:
		return "image/png"
	}
	return "application/octet-stream"
}

const (
	lineWidth      = 2
	pointWidth     = 3
	highlightWidth = 6
)

var namedColors = map[string]drawing.Color{
	"black":  chart.ColorBlack,
	"white":  chart.ColorWhite,
	"blue":   chart.ColorBlue,
	"green":  chart.ColorGreen,
	"red":    chart.ColorRed,
	"orange": chart.ColorOrange,
	"yellow": chart.ColorYellow,
	"cyan":   chart.ColorCyan,
}

// parseColor accepts a color name or a '#RRGGBB' hex string.
func parseColor(c string) (drawing.Color, error) {
	if col, ok := namedColors[strings.ToLower(c)]; ok {
		return col, nil
	}
	if hex, ok := strings.CutPrefix(c, "#"); ok && (len(hex) == 3 || len(hex) == 6) {
		return drawing.ColorFromHex(hex), nil
	}
	return drawing.Color{}, fmt.Errorf("unsupported color '%s'", c)
}

// drawRange returns the go-chart range for the provided view.
func drawRange(r Range, descending bool) *chart.ContinuousRange {
	r = r.padded()
	return &chart.ContinuousRange{
		Min:        r.Min,
		Max:        r.Max,
		Descending: descending,
	}
}

// graph describes the receiver as a go-chart Chart showing the provided view,
// with the provided highlighted point, if any, drawn as a dot.
func (c *Chart) graph(xView, yView Range, highlight *Item) (chart.Chart, error) {
	seriesColor, err := parseColor(c.opts.Color)
	if err != nil {
		return chart.Chart{}, err
	}
	background := chart.ColorWhite
	if c.opts.Grid.BackgroundColor != "" {
		if background, err = parseColor(c.opts.Grid.BackgroundColor); err != nil {
			return chart.Chart{}, err
		}
	}
	graph := chart.Chart{
		Width:  c.opts.Width,
		Height: c.opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{
			FillColor: background,
		},
		XAxis: chart.XAxis{
			Range: drawRange(xView, c.opts.ReverseX),
		},
		YAxis: chart.YAxis{
			Range: drawRange(yView, c.opts.ReverseY),
		},
	}
	if c.opts.ShowAxisLabels {
		graph.XAxis.Name = c.labels.X
		graph.YAxis.Name = c.labels.Y
	}
	for _, s := range c.series {
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for idx, p := range s.Points {
			xs[idx], ys[idx] = p.X, p.Y
		}
		st := chart.Style{
			StrokeWidth: lineWidth,
			StrokeColor: seriesColor,
		}
		if !c.opts.Lines {
			st.StrokeWidth = 0
			st.StrokeColor = drawing.ColorTransparent
		}
		if c.opts.Points {
			st.DotWidth = pointWidth
			st.DotColor = seriesColor
		}
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    s.Label,
			XValues: xs,
			YValues: ys,
			Style:   st,
		})
	}
	if highlight != nil {
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			XValues: []float64{highlight.Datapoint.X},
			YValues: []float64{highlight.Datapoint.Y},
			Style: chart.Style{
				StrokeWidth: 0,
				StrokeColor: drawing.ColorTransparent,
				DotWidth:    highlightWidth,
				DotColor:    seriesColor,
			},
		})
	}
	return graph, nil
}

// Draw renders the receiver's visible window to w in the specified format.
// The highlighted point, if any, is drawn as a dot.
func (c *Chart) Draw(w io.Writer, format Format) error {
	var provider chart.RendererProvider
	switch format {
	case SVG:
		provider = chart.SVG
	case PNG:
		provider = chart.PNG
	default:
		return fmt.Errorf("unsupported format '%s'", format)
	}
	c.mu.Lock()
	xView, yView := c.xView, c.yView
	highlight := c.highlight
	c.mu.Unlock()

	graph, err := c.graph(xView, yView, highlight)
	if err != nil {
		return err
	}
	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("failed to draw chart: %w", err)
	}
	return nil
}

// plotLayout is the pixel box within which a view's data is drawn.
type plotLayout struct {
	xView, yView Range
	box          chart.Box
}

// plotBox returns the box within which the current view's data is drawn:
// the canvas less its padding and axis gutters, as laid out by go-chart.
// The receiver must be locked.
func (c *Chart) plotBox() (chart.Box, error) {
	if c.layout != nil && c.layout.xView == c.xView && c.layout.yView == c.yView {
		return c.layout.box, nil
	}
	// Highlights don't affect the layout, so it's taken without one.
	graph, err := c.graph(c.xView, c.yView, nil)
	if err != nil {
		return chart.Box{}, err
	}
	var box chart.Box
	graph.Elements = append(graph.Elements, func(_ chart.Renderer, canvasBox chart.Box, _ chart.Style) {
		box = canvasBox
	})
	if err := graph.Render(chart.SVG, io.Discard); err != nil {
		return chart.Box{}, fmt.Errorf("failed to lay out chart: %w", err)
	}
	c.layout = &plotLayout{xView: c.xView, yView: c.yView, box: box}
	return box, nil
}

// toPixels maps a data point into box, with the origin at the top left of
// the image.  The receiver must be locked.
func (c *Chart) toPixels(p instrument.Point, box chart.Box) (px, py float64) {
	fx, fy := c.xView.padded().frac(p.X), c.yView.padded().frac(p.Y)
	if c.opts.ReverseX {
		fx = 1 - fx
	}
	if c.opts.ReverseY {
		fy = 1 - fy
	}
	return float64(box.Left) + fx*float64(box.Width()), float64(box.Bottom) - fy*float64(box.Height())
}

// Position returns the image pixel position at which Draw places p in the
// current view, with the origin at the top left.
func (c *Chart) Position(p instrument.Point) (px, py float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	box, err := c.plotBox()
	if err != nil {
		return 0, 0, err
	}
	px, py = c.toPixels(p, box)
	return px, py, nil
}

// HitTest returns the data point drawn nearest the provided image position,
// if one lies within the mouse-active radius and the grid is hoverable.
func (c *Chart) HitTest(px, py float64) (*Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || !c.opts.Grid.Hoverable {
		return nil, false
	}
	box, err := c.plotBox()
	if err != nil {
		return nil, false
	}
	var ret *Item
	bestDistSq := c.opts.MouseActiveRadius * c.opts.MouseActiveRadius
	for seriesIdx, s := range c.series {
		for idx, p := range s.Points {
			x, y := c.toPixels(p, box)
			distSq := (x-px)*(x-px) + (y-py)*(y-py)
			if distSq < bestDistSq || (ret == nil && distSq == bestDistSq) {
				bestDistSq = distSq
				ret = &Item{Series: seriesIdx, DataIndex: idx, Datapoint: p}
			}
		}
	}
	return ret, ret != nil
}
