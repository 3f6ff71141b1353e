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

package instrument

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Instrument describes a science instrument: what it is, and the units and
// measurements that come out of it.
type Instrument struct {
	ShortName   string `json:"short_name"`
	DisplayName string `json:"display_name"`
	Active      bool   `json:"active"`
	Brand       string `json:"brand,omitempty"`
	Model       string `json:"model,omitempty"`
	SerialNum   string `json:"serial_num,omitempty"`
	XLabel      string `json:"x_label"`
	YLabel      string `json:"y_label"`
	XUnits      string `json:"x_units,omitempty"`
	YUnits      string `json:"y_units,omitempty"`
	ReverseX    bool   `json:"reverse_x,omitempty"`
	ReverseY    bool   `json:"reverse_y,omitempty"`
}

func withUnits(label, units string) string {
	if units == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, units)
}

// PlotLabels returns the receiver's axis labels, with units appended where
// known.
func (i *Instrument) PlotLabels() AxisLabels {
	return AxisLabels{
		X: withUnits(i.XLabel, i.XUnits),
		Y: withUnits(i.YLabel, i.YUnits),
	}
}

func (i *Instrument) String() string {
	return fmt.Sprintf("%s(%s): %s %s SN:%s", i.DisplayName, i.ShortName, i.Brand, i.Model, i.SerialNum)
}

// Catalog maps instrument short names to Instruments.  It is read-only once
// built, and so safe for concurrent use.
type Catalog struct {
	byName map[string]*Instrument
}

// NewCatalog returns a Catalog of the provided instruments, which must be
// non-nil.  Short names must be non-empty and unique.
func NewCatalog(instruments ...*Instrument) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]*Instrument, len(instruments)),
	}
	for idx, inst := range instruments {
		if inst == nil {
			return nil, fmt.Errorf("instrument %d is null", idx)
		}
		if inst.ShortName == "" {
			return nil, fmt.Errorf("instrument %q has no short name", inst.DisplayName)
		}
		if _, ok := c.byName[inst.ShortName]; ok {
			return nil, fmt.Errorf("multiple instruments named `%s`", inst.ShortName)
		}
		c.byName[inst.ShortName] = inst
	}
	return c, nil
}

type catalogFile struct {
	Instruments []*Instrument `json:"instruments"`
}

// ReadCatalog reads a Catalog from JSON of the form
// {"instruments": [{...}, ...]}.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	cf := &catalogFile{}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cf); err != nil {
		return nil, fmt.Errorf("failed to parse instrument catalog: %w", err)
	}
	return NewCatalog(cf.Instruments...)
}

// LoadCatalog reads a Catalog from the JSON file at path.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCatalog(f)
}

// Lookup returns the named Instrument.
func (c *Catalog) Lookup(shortName string) (*Instrument, error) {
	inst, ok := c.byName[shortName]
	if !ok {
		return nil, fmt.Errorf("%w `%s`", ErrUnknownInstrument, shortName)
	}
	return inst, nil
}

// Instruments returns all Instruments in the receiver, ordered by short
// name.
func (c *Catalog) Instruments() []*Instrument {
	ret := make([]*Instrument, 0, len(c.byName))
	for _, inst := range c.byName {
		ret = append(ret, inst)
	}
	sort.Slice(ret, func(a, b int) bool {
		return ret[a].ShortName < ret[b].ShortName
	})
	return ret
}
