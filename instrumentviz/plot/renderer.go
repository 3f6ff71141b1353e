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
	"context"
	"errors"
	"fmt"

	"github.com/ilhamster/instrumentviz/instrumentviz/instrument"
)

// ErrNoAxisLabels is returned when no axis labels are known for an
// instrument.
var ErrNoAxisLabels = errors.New("no axis labels")

// InstrumentSource is implemented by types that can look up instruments by
// short name, such as *instrument.Catalog.
type InstrumentSource interface {
	Lookup(shortName string) (*instrument.Instrument, error)
}

// DefaultRenderer renders [x, y] datasets as a single-series line plot,
// installed into a Session.
type DefaultRenderer struct {
	session     *Session
	instruments InstrumentSource
	opts        Options
}

// NewDefaultRenderer returns a new DefaultRenderer installing its charts
// into session.  Axis labels and directions come from instruments; all
// other chart options come from opts.
func NewDefaultRenderer(session *Session, instruments InstrumentSource, opts Options) *DefaultRenderer {
	return &DefaultRenderer{
		session:     session,
		instruments: instruments,
		opts:        opts,
	}
}

// Render decodes data and installs a new Chart showing it, replacing the
// Session's prior chart.
func (dr *DefaultRenderer) Render(ctx context.Context, desc instrument.Descriptor, data instrument.Dataset) error {
	inst, err := dr.instruments.Lookup(desc.InstrumentName)
	if err != nil {
		return fmt.Errorf("%w for instrument '%s': %w", ErrNoAxisLabels, desc.InstrumentName, err)
	}
	points, err := data.Points()
	if err != nil {
		return err
	}
	labels := inst.PlotLabels()
	opts := dr.opts
	opts.ReverseX, opts.ReverseY = inst.ReverseX, inst.ReverseY
	chart := NewChart(labels, opts, Series{
		Label:  inst.DisplayName,
		Points: points,
	})
	dr.session.Replace(chart, labels, desc.Type)
	return nil
}
