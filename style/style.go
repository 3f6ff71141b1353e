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

// Package style supports decorating plot elements: how a series is drawn,
// how the grid behind it looks and reacts to the pointer, and which
// interactions (zoom, pan) the chart allows.
//
// Each helper returns a PropertyUpdate for one of the fixed set of plot
// options a viewer understands:
//
//	series.With(
//	  style.Lines(true),
//	  style.Points(false),
//	  style.Color("blue"),
//	)
package style

import "github.com/ilhamster/instrumentviz/util"

const (
	linesShowKey       = "series_lines_show"
	pointsShowKey      = "series_points_show"
	primaryColorKey    = "primary_color"
	shadowSizeKey      = "shadow_size_px"
	backgroundColorKey = "grid_background_color"
	hoverableKey       = "grid_hoverable"
	clickableKey       = "grid_clickable"
	autoHighlightKey   = "grid_auto_highlight"
	zoomInteractiveKey = "zoom_interactive"
	panInteractiveKey  = "pan_interactive"
	axisLabelsShowKey  = "axis_labels_show"
)

// Lines sets whether a series is drawn as connected lines.
func Lines(show bool) util.PropertyUpdate {
	return util.BoolProperty(linesShowKey, show)
}

// Points sets whether a series draws a marker at each point.
func Points(show bool) util.PropertyUpdate {
	return util.BoolProperty(pointsShowKey, show)
}

// Color sets the primary color of an element.  colorValue may be any HTML
// color representation.
func Color(colorValue string) util.PropertyUpdate {
	return util.StringProperty(primaryColorKey, colorValue)
}

// ShadowSize sets the width of the shadow drawn under series lines.
func ShadowSize(px int64) util.PropertyUpdate {
	return util.IntegerProperty(shadowSizeKey, px)
}

// Grid describes the plot area behind the series.
type Grid struct {
	BackgroundColor string
	// Hoverable grids report the data point nearest the pointer.
	Hoverable bool
	// Clickable grids report the data point under a click.
	Clickable bool
	// AutoHighlight highlights hovered points without further handling.
	AutoHighlight bool
}

// Apply annotates with the receiving Grid.
func (g Grid) Apply() util.PropertyUpdate {
	return util.Chain(
		util.If(g.BackgroundColor != "", util.StringProperty(backgroundColorKey, g.BackgroundColor)),
		util.BoolProperty(hoverableKey, g.Hoverable),
		util.BoolProperty(clickableKey, g.Clickable),
		util.BoolProperty(autoHighlightKey, g.AutoHighlight),
	)
}

// Interaction describes the pointer interactions a chart allows.
type Interaction struct {
	Zoom, Pan bool
}

// Apply annotates with the receiving Interaction.
func (i Interaction) Apply() util.PropertyUpdate {
	return util.Chain(
		util.BoolProperty(zoomInteractiveKey, i.Zoom),
		util.BoolProperty(panInteractiveKey, i.Pan),
	)
}

// AxisLabels sets whether axis labels are drawn.
func AxisLabels(show bool) util.PropertyUpdate {
	return util.BoolProperty(axisLabelsShowKey, show)
}
