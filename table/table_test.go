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

package table

import (
	"testing"

	"github.com/ilhamster/instrumentviz/category"
	testutil "github.com/ilhamster/instrumentviz/test_util"
	"github.com/ilhamster/instrumentviz/util"
)

var (
	timeCol  = Column(category.New("time", "Time (s)", "Seconds since the cast began"))
	depthCol = Column(category.New("depth", "Depth (m)", "Depth below the surface"))
	noteCol  = Column(category.New("note", "Note", "Operator notes"))

	renderSettings = &RenderSettings{
		RowHeightPx: 20,
		FontSizePx:  14,
	}
)

func TestTable(t *testing.T) {
	for _, test := range []struct {
		description   string
		buildTabular  func(db util.DataBuilder)
		buildExplicit func(db testutil.TestDataBuilder)
	}{{
		description: "simple columns",
		buildTabular: func(db util.DataBuilder) {
			New(db, renderSettings, timeCol, depthCol, noteCol).Row(
				DoubleCell(timeCol, 0.5),
				DoubleCell(depthCol, 12),
				FormattedCell(noteCol, "surface"),
			)
		},
		buildExplicit: func(db testutil.TestDataBuilder) {
			db.With(
				util.IntegerProperty(rowHeightPxKey, 20),
				util.IntegerProperty(fontSizePxKey, 14),
			).Child(). // column definitions
					Child().With(timeCol.cat.Define()).
					AndChild().With(depthCol.cat.Define()).
					AndChild().With(noteCol.cat.Define()).
					Parent().Parent(). // back to table root
					Child().           // row 0
					Child().With(      // row 0 cell 0
				category.Tag(timeCol.cat),
				util.DoubleProperty(cellKey, 0.5),
			).AndChild().With( // row 0 cell 1
				category.Tag(depthCol.cat),
				util.DoubleProperty(cellKey, 12),
			).AndChild().With( // row 0 cell 2
				category.Tag(noteCol.cat),
				util.StringProperty(formattedCellKey, "surface"),
			)
		},
	}, {
		description: "format cell, decorate row and cell",
		buildTabular: func(db util.DataBuilder) {
			New(db, renderSettings, timeCol).Row(
				FormattedCell(timeCol,
					"$(minutes)m $(seconds)s",
					util.IntegerProperty("minutes", 2),
					util.IntegerProperty("seconds", 5),
				),
			).With(
				util.BoolProperty("highlighted", true),
			)
		},
		buildExplicit: func(db testutil.TestDataBuilder) {
			db.With(
				util.IntegerProperty(rowHeightPxKey, 20),
				util.IntegerProperty(fontSizePxKey, 14),
			).Child(). // column definitions
					Child().With(timeCol.cat.Define()).
					Parent().Parent(). // back to table root
					Child().With(      // row 0
				util.BoolProperty("highlighted", true),
			).
				Child().With( // row 0 cell 0
				category.Tag(timeCol.cat),
				util.StringProperty(formattedCellKey, "$(minutes)m $(seconds)s"),
				util.IntegerProperty("minutes", 2),
				util.IntegerProperty("seconds", 5),
			)
		},
	}, {
		description: "no render settings or rows",
		buildTabular: func(db util.DataBuilder) {
			New(db, nil, noteCol)
		},
		buildExplicit: func(db testutil.TestDataBuilder) {
			db.Child(). // column definitions
					Child().With(noteCol.cat.Define())
		},
	}} {
		t.Run(test.description, func(t *testing.T) {
			if err := testutil.CompareResponses(t, test.buildTabular, test.buildExplicit); err != nil {
				t.Fatalf("encountered unexpected error building the table: %s", err)
			}
		})
	}
}
