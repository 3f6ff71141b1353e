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

// Package instrument defines the data an instrument viewer works with: the
// descriptor a caller selects a data product with, the dataset fetched for
// it, and the catalog of science instruments that supplies axis labels.
package instrument

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedDataset is returned when a dataset does not have the shape
	// a consumer expects.
	ErrMalformedDataset = errors.New("malformed dataset")
	// ErrUnknownInstrument is returned when an instrument name is not in a
	// Catalog.
	ErrUnknownInstrument = errors.New("unknown instrument")
)

// Descriptor identifies one instrument data product to visualize.  Type
// selects the renderer; InstrumentName selects the axis labels; DataURL is
// where the data is fetched from.
type Descriptor struct {
	Type           string `json:"type"`
	InstrumentName string `json:"instrument_name"`
	DataURL        string `json:"json_data_url"`
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%s@%s", d.Type, d.InstrumentName, d.DataURL)
}

// Dataset is a fetched data payload: raw, valid JSON whose shape depends on
// the renderer consuming it.
type Dataset json.RawMessage

// Empty returns true if the receiver holds no data: it is absent, null, an
// empty array, or an empty string.
func (d Dataset) Empty() bool {
	trimmed := bytes.TrimSpace(d)
	if len(trimmed) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return false
	}
	switch val := v.(type) {
	case nil:
		return true
	case []any:
		return len(val) == 0
	case string:
		return len(val) == 0
	}
	return false
}

// Point is a single [x, y] reading.
type Point struct {
	X, Y float64
}

// Points decodes the receiver as a sequence of [x, y] numeric pairs.
// Elements past the second in a pair are ignored.  A null reading, or a
// reading with a null coordinate, is a gap in the data and is omitted.
func (d Dataset) Points() ([]Point, error) {
	var pairs [][]*float64
	if err := json.Unmarshal(d, &pairs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataset, err)
	}
	ret := make([]Point, 0, len(pairs))
	for idx, pair := range pairs {
		if pair == nil {
			continue
		}
		if len(pair) < 2 {
			return nil, fmt.Errorf("%w: element %d has %d values, want 2", ErrMalformedDataset, idx, len(pair))
		}
		if pair[0] == nil || pair[1] == nil {
			continue
		}
		ret = append(ret, Point{X: *pair[0], Y: *pair[1]})
	}
	return ret, nil
}

// AxisLabels is the ordered (x, y) pair of axis labels for a plot.
type AxisLabels struct {
	X, Y string
}
