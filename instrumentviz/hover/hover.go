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

// Package hover reacts to the pointer hovering over an instrument plot: the
// data point under the pointer is highlighted, and its values are shown on
// the status surface.
package hover

import (
	"fmt"
	"strconv"

	"github.com/google/safehtml/template"
	"github.com/ilhamster/instrumentviz/instrumentviz/message"
	"github.com/ilhamster/instrumentviz/instrumentviz/plot"
)

const valueFormat = `{{.XLabel}}: {{.X}}<br/>{{.YLabel}}: {{.Y}}`

var valueTemplate = template.Must(template.New("hover").Parse(valueFormat))

type values struct {
	XLabel, X string
	YLabel, Y string
}

// formatNumber formats v in the shortest representation that round-trips,
// such as '3' or '7.5'.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Event is a pointer hover over the plot.  Item is the data point under the
// pointer, or nil if there is none.
type Event struct {
	PX, PY float64
	Item   *plot.Item
}

// Coordinator highlights hovered points on a Session's current chart and
// reports their values to a Surface.
type Coordinator struct {
	session *plot.Session
	surface *message.Surface
}

// New returns a new Coordinator.
func New(session *plot.Session, surface *message.Surface) *Coordinator {
	return &Coordinator{
		session: session,
		surface: surface,
	}
}

// Hover handles the provided Event.  Events without an Item are ignored;
// otherwise, the Item replaces any highlighted point on the current chart,
// and the status surface shows its values.
func (c *Coordinator) Hover(ev Event) error {
	if ev.Item == nil {
		return nil
	}
	chart, labels, err := c.session.Snapshot()
	if err != nil {
		return err
	}
	chart.Unhighlight()
	if err := chart.Highlight(ev.Item.Series, ev.Item.Datapoint); err != nil {
		return fmt.Errorf("failed to highlight hovered point: %w", err)
	}
	msg, err := valueTemplate.ExecuteToHTML(values{
		XLabel: labels.X,
		X:      formatNumber(ev.Item.Datapoint.X),
		YLabel: labels.Y,
		Y:      formatNumber(ev.Item.Datapoint.Y),
	})
	if err != nil {
		return fmt.Errorf("failed to format hovered values: %w", err)
	}
	c.surface.SetMessage(msg)
	return nil
}

// HoverAt hit-tests the current chart at the provided canvas position and
// handles the resulting Event, returning true if a data point was hit.
func (c *Coordinator) HoverAt(px, py float64) (bool, error) {
	chart, err := c.session.Current()
	if err != nil {
		return false, err
	}
	item, ok := chart.HitTest(px, py)
	return ok, c.Hover(Event{PX: px, PY: py, Item: item})
}
