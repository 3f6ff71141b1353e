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
	"github.com/ilhamster/instrumentviz/category"
	"github.com/ilhamster/instrumentviz/table"
	"github.com/ilhamster/instrumentviz/util"
)

const (
	seriesColumnID = "series"
	xColumnID      = "x"
	yColumnID      = "y"

	seriesLabelKey = "series_label"
	dataIndexKey   = "data_index"
	// Shows, e.g., 'Spectrometer #3'.
	readingFormat = "$(" + seriesLabelKey + ") #$(" + dataIndexKey + ")"
)

var readingsRenderSettings = &table.RenderSettings{
	RowHeightPx: 20,
	FontSizePx:  14,
}

// BuildReadings describes, into db, a table of the readings within the
// receiver's visible x range, one row per reading.  Each row's series cell
// carries the reading's series label and index within the series, so that
// rows can be matched to plotted points.  The highlighted reading's row is
// flagged.
func (c *Chart) BuildReadings(db util.DataBuilder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seriesCol := table.Column(category.New(seriesColumnID, "Series", "The series a reading belongs to"))
	xCol := table.Column(category.New(xColumnID, c.labels.X, c.labels.X))
	yCol := table.Column(category.New(yColumnID, c.labels.Y, c.labels.Y))
	t := table.New(db, readingsRenderSettings, seriesCol, xCol, yCol)
	for seriesIdx, s := range c.series {
		for idx, p := range s.Points {
			if p.X < c.xView.Min || p.X > c.xView.Max {
				continue
			}
			highlighted := c.highlight != nil && c.highlight.Series == seriesIdx && c.highlight.DataIndex == idx
			t.Row(
				table.FormattedCell(seriesCol, readingFormat,
					util.StringProperty(seriesLabelKey, s.Label),
					util.IntegerProperty(dataIndexKey, int64(idx)),
				),
				table.DoubleCell(xCol, p.X),
				table.DoubleCell(yCol, p.Y),
			).With(util.If(highlighted, util.BoolProperty(highlightedKey, true)))
		}
	}
}
