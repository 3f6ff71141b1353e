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

// Package continuousaxis defines the continuous numeric axes of an
// instrument plot.  An axis has a category (whose display name is the axis
// label), a domain type, the extents of the data along it, and a direction.
package continuousaxis

import (
	"math"

	"github.com/ilhamster/instrumentviz/category"
	"github.com/ilhamster/instrumentviz/util"
)

const (
	axisTypeKey     = "axis_type"
	axisMinKey      = "axis_min"
	axisMaxKey      = "axis_max"
	axisReversedKey = "axis_reversed"

	doubleAxisType = "double"
)

// Axis is a continuous axis over float64 values.
type Axis struct {
	cat      *category.Category
	min, max float64
	reversed bool
}

// NewDoubleAxis returns a new Axis with the specified category.  The axis'
// extents are the lowest and highest of the provided extents; with no
// extents, the axis is empty (its minimum exceeds its maximum).
func NewDoubleAxis(cat *category.Category, extents ...float64) *Axis {
	min, max := math.MaxFloat64, -math.MaxFloat64
	for _, extent := range extents {
		if extent < min {
			min = extent
		}
		if extent > max {
			max = extent
		}
	}
	return &Axis{
		cat: cat,
		min: min,
		max: max,
	}
}

// Reverse sets whether the receiver is drawn from maximum to minimum.
func (a *Axis) Reverse(reversed bool) *Axis {
	a.reversed = reversed
	return a
}

// Define annotates with a definition of the receiver.
func (a *Axis) Define() util.PropertyUpdate {
	return util.Chain(
		a.cat.Define(),
		util.StringProperty(axisTypeKey, doubleAxisType),
		util.DoubleProperty(axisMinKey, a.min),
		util.DoubleProperty(axisMaxKey, a.max),
		util.If(a.reversed, util.BoolProperty(axisReversedKey, true)),
	)
}

// Value annotates a point with its position along the receiver.
func (a *Axis) Value(v float64) util.PropertyUpdate {
	return util.DoubleProperty(a.cat.ID(), v)
}
