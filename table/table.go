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

// Package table provides structural helpers for defining tables, such as the
// tabular readout of a plot's readings.  Given a dedicated tableRoot
// util.DataBuilder representing the root node of the table, and which must
// not be used for any other purpose, a new table may be created via
//
//	table := New(tableRoot, renderSettings, ...columns)
//
// Then, a new row may be added via
//
//	row := table.Row(...<DoubleCell() or FormattedCell()>)
//
// The structure of a table, with each level representing a nested Datum, is:
//
//	table
//	  properties
//	    * <render settings>
//	  children:
//	    * header row
//	    * repeated rows
//
//	header row
//	  children
//	    * repeated column definition
//
//	column definition
//	  properties
//	    * category definition
//	    * <decorators>
//
//	row
//	  properties
//	    * <decorators>
//	  children
//	    * repeated cells and formatted cells
//
//	cell
//	  properties
//	    * column tag
//	    * cellKey: cell contents
//	    * <decorators>
//
//	formatted cell
//	  properties
//	    * column tag
//	    * formattedCellKey: StringValue (cell format string)
//	    * <decorators>
package table

import (
	"github.com/ilhamster/instrumentviz/category"
	"github.com/ilhamster/instrumentviz/util"
)

const (
	cellKey          = "table_cell"
	formattedCellKey = "table_formatted_cell"

	rowHeightPxKey = "table_row_height_px"
	fontSizePxKey  = "table_font_size_px"
)

// RenderSettings is a collection of rendering settings for tables.
type RenderSettings struct {
	// The height of a row in pixels.
	RowHeightPx int64
	// The table text font size in pixels.
	FontSizePx int64
}

func (rs *RenderSettings) define() util.PropertyUpdate {
	if rs == nil {
		return util.EmptyUpdate
	}
	return util.Chain(
		util.IntegerProperty(rowHeightPxKey, rs.RowHeightPx),
		util.IntegerProperty(fontSizePxKey, rs.FontSizePx),
	)
}

// ColumnUpdate represents a table column: a category (the column's unique
// ID, display name, and description) with arbitrary column properties.
type ColumnUpdate struct {
	cat        *category.Category
	properties []util.PropertyUpdate
}

// Column returns a new Column with the specified category and properties.
func Column(cat *category.Category, properties ...util.PropertyUpdate) *ColumnUpdate {
	return &ColumnUpdate{
		cat:        cat,
		properties: append([]util.PropertyUpdate{cat.Define()}, properties...),
	}
}

func (cu *ColumnUpdate) define() util.PropertyUpdate {
	return util.Chain(cu.properties...)
}

// CellUpdate is a PropertyUpdate specifically annotating a cell.
type CellUpdate util.PropertyUpdate

func cell(column *ColumnUpdate, value util.PropertyUpdate, cellUpdates []util.PropertyUpdate) CellUpdate {
	return CellUpdate(util.Chain(
		category.Tag(column.cat),
		value,
		util.Chain(cellUpdates...),
	))
}

// DoubleCell returns a CellUpdate annotating a datum as a cell in the
// specified column holding the specified number.
func DoubleCell(column *ColumnUpdate, value float64, cellUpdates ...util.PropertyUpdate) CellUpdate {
	return cell(column, util.DoubleProperty(cellKey, value), cellUpdates)
}

// FormattedCell returns a CellUpdate annotating a datum as a cell in the
// specified column whose contents are the specified format string.  Any
// properties referenced by the format string should be among cellUpdates.
func FormattedCell(column *ColumnUpdate, format string, cellUpdates ...util.PropertyUpdate) CellUpdate {
	return cell(column, util.StringProperty(formattedCellKey, format), cellUpdates)
}

// Node represents a table under construction.
type Node struct {
	db util.DataBuilder
}

// New defines a new table in the provided DataBuilder, with the specified
// columns.
func New(db util.DataBuilder, renderSettings *RenderSettings, columns ...*ColumnUpdate) *Node {
	db.With(renderSettings.define())
	colGroup := db.Child()
	for _, column := range columns {
		colGroup.Child().With(column.define())
	}
	return &Node{
		db: db,
	}
}

// RowNode represents a row within a table.
type RowNode struct {
	db util.DataBuilder
}

// Row adds a new row holding the specified cells to the receiving table.
func (n *Node) Row(cells ...CellUpdate) *RowNode {
	db := n.db.Child()
	for _, cell := range cells {
		db.Child().With(util.PropertyUpdate(cell))
	}
	return &RowNode{
		db: db,
	}
}

// With annotates the receiving row with the provided properties.
func (rn *RowNode) With(properties ...util.PropertyUpdate) *RowNode {
	rn.db.With(properties...)
	return rn
}
