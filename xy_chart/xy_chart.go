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

// Package xychart builds the description of an instrument xy-chart.  Given a
// dedicated chartRoot util.DataBuilder, which must not be used for any other
// purpose, a chart is created via
//
//	chart := New(chartRoot, xAxis, yAxis, ...properties)
//
// A data series is added via
//
//	series := chart.AddSeries(category, ...properties)
//
// and points are added to it via
//
//	series.WithPoint(x, y, ...properties)
//
// The described chart has the structure:
//
//	xychart
//	  properties:
//	    * <decorators: grid, interaction, axis labels>
//	  children:
//	    * axes
//	    * repeated series
//
//	axes
//	  children:
//	    * x axis (axis definition)
//	    * y axis (axis definition)
//
//	series
//	  properties:
//	    * category definition
//	    * <decorators: lines, points, color, shadow>
//	  children:
//	    * repeated points
//
//	point
//	  properties:
//	    * <x axis category ID>: x value
//	    * <y axis category ID>: y value
//	    * <decorators>
package xychart

import (
	"github.com/ilhamster/instrumentviz/category"
	continuousaxis "github.com/ilhamster/instrumentviz/continuous_axis"
	"github.com/ilhamster/instrumentviz/util"
)

// XYChart is an xy-chart under construction.
type XYChart struct {
	xAxis, yAxis *continuousaxis.Axis
	db           util.DataBuilder
}

// New starts a new xy chart under db, with the provided axes and chart-level
// properties.
func New(db util.DataBuilder, xAxis, yAxis *continuousaxis.Axis, properties ...util.PropertyUpdate) *XYChart {
	ret := &XYChart{
		xAxis: xAxis,
		yAxis: yAxis,
		db:    db.With(properties...),
	}
	axes := ret.db.Child()
	axes.Child().With(xAxis.Define())
	axes.Child().With(yAxis.Define())
	return ret
}

// With annotates the receiving chart with the provided properties.
func (xyc *XYChart) With(properties ...util.PropertyUpdate) *XYChart {
	xyc.db.With(properties...)
	return xyc
}

// AddSeries defines a series within the receiving chart, identified by the
// provided Category.
func (xyc *XYChart) AddSeries(cat *category.Category, properties ...util.PropertyUpdate) *Series {
	return &Series{
		xyc: xyc,
		db:  xyc.db.Child().With(cat.Define()).With(properties...),
	}
}

// Series is a data series within an XYChart.
type Series struct {
	xyc *XYChart
	db  util.DataBuilder
}

// With annotates the receiving Series with the provided properties.
func (s *Series) With(properties ...util.PropertyUpdate) *Series {
	s.db.With(properties...)
	return s
}

// WithPoint adds the point (x, y) to the receiving Series.
func (s *Series) WithPoint(x, y float64, properties ...util.PropertyUpdate) *Series {
	s.db.Child().With(
		s.xyc.xAxis.Value(x),
		s.xyc.yAxis.Value(y),
	).With(properties...)
	return s
}
