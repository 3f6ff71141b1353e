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

// Package plot owns the instrument plot: a Chart instance holding one or
// more series of readings and its interactive state (view window and
// highlight); the Session that holds the single live Chart; and the
// DefaultRenderer that turns a fetched [x, y] dataset into a new Chart.
package plot

import (
	"fmt"
	"math"
	"sync"

	"github.com/ilhamster/instrumentviz/category"
	continuousaxis "github.com/ilhamster/instrumentviz/continuous_axis"
	"github.com/ilhamster/instrumentviz/instrumentviz/instrument"
	"github.com/ilhamster/instrumentviz/style"
	"github.com/ilhamster/instrumentviz/util"
	xychart "github.com/ilhamster/instrumentviz/xy_chart"
)

const (
	xAxisID        = "x_axis"
	yAxisID        = "y_axis"
	highlightedKey = "highlighted"

	zoomFactor = 2
	panFactor  = .5
	maxZoom    = 50
)

// Options configures how a Chart looks and responds to the pointer.
type Options struct {
	Color       string
	Lines       bool
	Points      bool
	ShadowSize  int64
	Grid        style.Grid
	Interaction style.Interaction
	// ShowAxisLabels draws the axis labels alongside the axes.
	ShowAxisLabels bool
	// ReverseX and ReverseY draw the respective axis from maximum to minimum.
	ReverseX, ReverseY bool
	// Width and Height are the canvas size, in pixels.
	Width, Height int
	// MouseActiveRadius is how far, in pixels, the pointer may be from a
	// point and still hit it.
	MouseActiveRadius float64
}

// DefaultOptions returns the options of the default instrument plot: a
// blue line without point markers over a white, hoverable, clickable grid,
// with no shadow, interactive zoom and pan, and labeled axes.
func DefaultOptions() Options {
	return Options{
		Color:      "blue",
		Lines:      true,
		Points:     false,
		ShadowSize: 0,
		Grid: style.Grid{
			BackgroundColor: "#FFFFFF",
			Hoverable:       true,
			Clickable:       true,
			AutoHighlight:   true,
		},
		Interaction: style.Interaction{
			Zoom: true,
			Pan:  true,
		},
		ShowAxisLabels:    true,
		Width:             800,
		Height:            400,
		MouseActiveRadius: 10,
	}
}

// Series is a named sequence of readings.
type Series struct {
	Label  string
	Points []instrument.Point
}

// Item identifies a data point on a Chart.
type Item struct {
	// Series is the index of the series the point belongs to.
	Series int
	// DataIndex is the index of the point within its series.
	DataIndex int
	// Datapoint is the point's value.
	Datapoint instrument.Point
}

// Range is a closed interval along an axis.
type Range struct {
	Min, Max float64
}

func (r Range) span() float64 {
	return r.Max - r.Min
}

// padded returns the receiver, widened if degenerate so that a
// single-valued series still has a drawable extent.
func (r Range) padded() Range {
	if r.span() > 0 {
		return r
	}
	pad := math.Abs(r.Min) / 10
	if pad == 0 {
		pad = 1
	}
	return Range{r.Min - pad, r.Max + pad}
}

// frac returns where v falls in the receiver, from 0 at Min to 1 at Max.
func (r Range) frac(v float64) float64 {
	if r.span() <= 0 {
		return .5
	}
	return (v - r.Min) / r.span()
}

// clamp limits the receiver to lie within bounds, as far as possible.
func (r Range) clamp(bounds Range) Range {
	if r.Min < bounds.Min {
		r.Min = bounds.Min
	}
	if bounds.Max < r.Max || r.Max < bounds.Min {
		r.Max = bounds.Max
	}
	return r
}

func (r Range) zoomed(dir ZoomDirection, bounds Range) Range {
	halfWidth := r.span() / 2
	midpoint := r.Min + halfWidth
	switch dir {
	case ZoomIn:
		halfWidth = halfWidth / zoomFactor
		if bounds.span()/(2*halfWidth) > maxZoom {
			halfWidth = bounds.span() / (2 * maxZoom)
		}
	case ZoomOut:
		halfWidth = halfWidth * zoomFactor
	}
	return Range{midpoint - halfWidth, midpoint + halfWidth}.clamp(bounds)
}

// panned shifts the receiver by steps pan-widths, without moving it past
// bounds.
func (r Range) panned(steps float64, bounds Range) Range {
	halfWidth := r.span() / 2
	midpoint := r.Min + halfWidth + steps*2*halfWidth*panFactor
	if midpoint < bounds.Min+halfWidth {
		midpoint = bounds.Min + halfWidth
	}
	if midpoint > bounds.Max-halfWidth {
		midpoint = bounds.Max - halfWidth
	}
	return Range{midpoint - halfWidth, midpoint + halfWidth}
}

// ZoomDirection is the direction of a zoom.
type ZoomDirection string

// PanDirection is the direction of a pan.
type PanDirection string

// Supported zoom and pan directions.
const (
	ZoomIn  ZoomDirection = "in"
	ZoomOut ZoomDirection = "out"

	PanLeft  PanDirection = "left"
	PanRight PanDirection = "right"
	PanUp    PanDirection = "up"
	PanDown  PanDirection = "down"
)

// Chart is one chart instance.  It is alive from creation until Shutdown;
// a shut-down Chart ignores highlighting, navigation, and hit tests.
// Chart is safe for concurrent use.
type Chart struct {
	labels instrument.AxisLabels
	opts   Options
	series []Series
	// Extents of all series' data.
	xData, yData Range

	mu           sync.Mutex
	alive        bool
	xView, yView Range
	highlight    *Item
	// The drawn plot area for the current view; nil until first needed.
	layout *plotLayout
}

// NewChart returns a new, live Chart over the provided series.
func NewChart(labels instrument.AxisLabels, opts Options, series ...Series) *Chart {
	xData := Range{math.Inf(1), math.Inf(-1)}
	yData := Range{math.Inf(1), math.Inf(-1)}
	for _, s := range series {
		for _, p := range s.Points {
			xData.Min, xData.Max = math.Min(xData.Min, p.X), math.Max(xData.Max, p.X)
			yData.Min, yData.Max = math.Min(yData.Min, p.Y), math.Max(yData.Max, p.Y)
		}
	}
	if math.IsInf(xData.Min, 1) {
		xData, yData = Range{}, Range{}
	}
	return &Chart{
		labels: labels,
		opts:   opts,
		series: series,
		xData:  xData,
		yData:  yData,
		alive:  true,
		xView:  xData,
		yView:  yData,
	}
}

// Labels returns the receiver's axis labels.
func (c *Chart) Labels() instrument.AxisLabels {
	return c.labels
}

// Options returns the receiver's options.
func (c *Chart) Options() Options {
	return c.opts
}

// Series returns the receiver's series.  The returned slice must not be
// modified.
func (c *Chart) Series() []Series {
	return c.series
}

// Alive returns true if the receiver has not been shut down.
func (c *Chart) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// Shutdown disposes of the receiver, dropping its highlight.  Shutting down a Chart more than once has no further effect.
func (c *Chart) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = false
	c.highlight = nil
}

// Highlight marks the specified data point.  A Chart has at most one
// highlighted point; the latest Highlight replaces any earlier one.
func (c *Chart) Highlight(series int, datapoint instrument.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return nil
	}
	if series < 0 || series >= len(c.series) {
		return fmt.Errorf("chart has no series %d", series)
	}
	for idx, p := range c.series[series].Points {
		if p == datapoint {
			c.highlight = &Item{Series: series, DataIndex: idx, Datapoint: p}
			return nil
		}
	}
	return fmt.Errorf("series %d has no point (%v, %v)", series, datapoint.X, datapoint.Y)
}

// Unhighlight clears any highlighted data point.
func (c *Chart) Unhighlight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.highlight = nil
}

// Highlighted returns the highlighted data point, if any.
func (c *Chart) Highlighted() (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.highlight == nil {
		return Item{}, false
	}
	return *c.highlight, true
}

// View returns the visible window along each axis.
func (c *Chart) View() (x, y Range) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.xView, c.yView
}

// Zoom narrows or widens the visible window about its center, never beyond
// the data extents.
func (c *Chart) Zoom(dir ZoomDirection) error {
	if dir != ZoomIn && dir != ZoomOut {
		return fmt.Errorf("unsupported zoom direction '%s'", dir)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || !c.opts.Interaction.Zoom {
		return nil
	}
	c.xView = c.xView.zoomed(dir, c.xData)
	c.yView = c.yView.zoomed(dir, c.yData)
	return nil
}

// Pan shifts the visible window by half its width, never beyond the data
// extents.
func (c *Chart) Pan(dir PanDirection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || !c.opts.Interaction.Pan {
		return nil
	}
	switch dir {
	case PanLeft:
		c.xView = c.xView.panned(-1, c.xData)
	case PanRight:
		c.xView = c.xView.panned(1, c.xData)
	case PanDown:
		c.yView = c.yView.panned(-1, c.yData)
	case PanUp:
		c.yView = c.yView.panned(1, c.yData)
	default:
		return fmt.Errorf("unsupported pan direction '%s'", dir)
	}
	return nil
}

// Build describes the receiver's visible window, series, and highlight into
// db.
func (c *Chart) Build(db util.DataBuilder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	xAxis := continuousaxis.NewDoubleAxis(
		category.New(xAxisID, c.labels.X, c.labels.X),
		c.xView.Min, c.xView.Max,
	).Reverse(c.opts.ReverseX)
	yAxis := continuousaxis.NewDoubleAxis(
		category.New(yAxisID, c.labels.Y, c.labels.Y),
		c.yView.Min, c.yView.Max,
	).Reverse(c.opts.ReverseY)
	chart := xychart.New(db, xAxis, yAxis,
		c.opts.Grid.Apply(),
		c.opts.Interaction.Apply(),
		style.AxisLabels(c.opts.ShowAxisLabels),
	)
	for seriesIdx, s := range c.series {
		series := chart.AddSeries(
			category.New(fmt.Sprintf("series_%d", seriesIdx), s.Label, s.Label),
			style.Lines(c.opts.Lines),
			style.Points(c.opts.Points),
			style.Color(c.opts.Color),
			style.ShadowSize(c.opts.ShadowSize),
		)
		for idx, p := range s.Points {
			highlighted := c.highlight != nil && c.highlight.Series == seriesIdx && c.highlight.DataIndex == idx
			series.WithPoint(p.X, p.Y, util.If(highlighted, util.BoolProperty(highlightedKey, true)))
		}
	}
}
