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

// Package util defines the property tree that chart descriptions are built
// from, and the compact JSON encoding those descriptions are served in:
//
// DataResponseBuilder, for assembling one or more named DataSeries;
//
// DataBuilder, for adding properties and children to a Datum;
//
// {type}Property functions, returning PropertyUpdates that set a typed value
// under a key.
package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type valueType int

// Enumerated value types.  The numbering is part of the wire format; the
// blank values are reserved.
const (
	unsetValue valueType = iota
	_
	StringIndexValueType
	_
	StringIndicesValueType
	IntegerValueType
	_
	DoubleValueType
)

// V is a single typed value in a Datum.
type V struct {
	V any
	T valueType
}

// PrettyPrint returns the receiver, deterministically prettyprinted.
// String-index values print as the strings they index.  Only for use in
// tests.
func (v *V) PrettyPrint(st []string) string {
	var ret string
	var err error
	switch v.T {
	case unsetValue:
		ret = "unset"
	case StringIndexValueType:
		var strIdx int64
		strIdx, err = expectStringIndexValue(v)
		if err == nil {
			ret = "'" + st[strIdx] + "'"
		}
	case StringIndicesValueType:
		var strIdxs []int64
		strIdxs, err = expectStringIndicesValue(v)
		if err == nil {
			strs := make([]string, len(strIdxs))
			for idx, strIdx := range strIdxs {
				strs[idx] = st[strIdx]
			}
			ret = "[ '" + strings.Join(strs, "', '") + "' ]"
		}
	case IntegerValueType:
		var i int64
		i, err = expectIntegerValue(v)
		if err == nil {
			ret = strconv.FormatInt(i, 10)
		}
	case DoubleValueType:
		var d float64
		d, err = expectDoubleValue(v)
		if err == nil {
			ret = fmt.Sprintf("%.6f", d)
		}
	}
	if err != nil {
		return "error: " + err.Error()
	}
	return ret
}

// MarshalJSON encodes a V as the two-element array [type, value].
func (v *V) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{v.T, v.V})
}

func (v *V) fromAny(got []any) error {
	if len(got) != 2 {
		return fmt.Errorf("value must have exactly two elements, got %d", len(got))
	}
	t, err := got[0].(json.Number).Int64()
	if err != nil {
		return err
	}
	v.T = valueType(t)
	tv := got[1]
	switch v.T {
	case StringIndexValueType, IntegerValueType:
		v.V, err = tv.(json.Number).Int64()
	case StringIndicesValueType:
		nums := tv.([]any)
		ints := make([]int64, len(nums))
		for idx, num := range nums {
			if ints[idx], err = num.(json.Number).Int64(); err != nil {
				return err
			}
		}
		v.V = ints
	case DoubleValueType:
		v.V, err = tv.(json.Number).Float64()
	default:
		return fmt.Errorf("unsupported value type %d", t)
	}
	return err
}

// UnmarshalJSON decodes a V from its [type, value] encoding.
func (v *V) UnmarshalJSON(data []byte) error {
	var got []any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&got); err != nil {
		return err
	}
	return v.fromAny(got)
}

// Datum is a node in a chart description: a set of keyed properties, plus
// ordered children.  Property keys are string-table indices.
type Datum struct {
	Properties map[int64]*V
	Children   []*Datum
}

// PrettyPrint returns the receiver deterministically prettyprinted.
// Only for use in tests.
func (d *Datum) PrettyPrint(indent string, st []string) string {
	ret := []string{}
	keys := make([]int64, 0, len(d.Properties))
	for k := range d.Properties {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		return st[keys[a]] < st[keys[b]]
	})
	for _, k := range keys {
		ret = append(ret,
			fmt.Sprintf("%sProp '%s': %s", indent, st[k], d.Properties[k].PrettyPrint(st)),
		)
	}
	for _, child := range d.Children {
		ret = append(ret,
			fmt.Sprintf("%sChild:", indent),
			child.PrettyPrint(indent+"  ", st),
		)
	}
	return strings.Join(ret, "\n")
}

// MarshalJSON encodes a Datum as [properties, children], where properties
// is a key-ordered list of [key, V] pairs.
func (d *Datum) MarshalJSON() ([]byte, error) {
	keys := make([]int64, 0, len(d.Properties))
	for k := range d.Properties {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		return keys[a] < keys[b]
	})
	props := make([]any, len(keys))
	for idx, k := range keys {
		props[idx] = []any{k, d.Properties[k]}
	}
	return json.Marshal([]any{props, d.Children})
}

func (d *Datum) fromAny(sd []any) error {
	if len(sd) != 2 {
		return fmt.Errorf("datum must have exactly two elements, got %d", len(sd))
	}
	props := sd[0].([]any)
	children := sd[1].([]any)
	d.Properties = make(map[int64]*V, len(props))
	d.Children = make([]*Datum, len(children))
	for _, prop := range props {
		kv := prop.([]any)
		k, err := kv[0].(json.Number).Int64()
		if err != nil {
			return err
		}
		v := &V{}
		if err := v.fromAny(kv[1].([]any)); err != nil {
			return err
		}
		d.Properties[k] = v
	}
	for idx, childIf := range children {
		child := &Datum{}
		if err := child.fromAny(childIf.([]any)); err != nil {
			return err
		}
		d.Children[idx] = child
	}
	return nil
}

// UnmarshalJSON decodes a Datum from its [properties, children] encoding.
func (d *Datum) UnmarshalJSON(data []byte) error {
	sd := []any{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&sd); err != nil {
		return err
	}
	return d.fromAny(sd)
}

// DataSeries is a named tree of Datums.
type DataSeries struct {
	SeriesName string
	Root       *Datum
}

// PrettyPrint returns the receiver deterministically prettyprinted.
// Only for use in tests.
func (ds *DataSeries) PrettyPrint(indent string, st []string) string {
	return strings.Join([]string{
		fmt.Sprintf("%sSeries %s", indent, ds.SeriesName),
		indent + "  Root:",
		ds.Root.PrettyPrint(indent+"    ", st),
	}, "\n")
}

// Data is a complete response: its data series plus the string table their
// keys and string values index into.
type Data struct {
	StringTable []string
	DataSeries  []*DataSeries
}

// PrettyPrint returns the receiver deterministically prettyprinted.
// Only for use in tests.
func (d *Data) PrettyPrint() string {
	ret := []string{"Data:"}
	for _, series := range d.DataSeries {
		ret = append(ret, series.PrettyPrint("  ", d.StringTable))
	}
	return strings.Join(ret, "\n")
}

// stringTable interns strings, assigning each a stable index.  It is
// thread-safe.
type stringTable struct {
	stringsToIndices map[string]int64
	stringsByIndex   []string
	mu               sync.RWMutex
}

func newStringTable() *stringTable {
	return &stringTable{
		stringsToIndices: map[string]int64{},
	}
}

func (st *stringTable) stringIndex(str string) int64 {
	st.mu.RLock()
	idx, ok := st.stringsToIndices[str]
	st.mu.RUnlock()
	if ok {
		return idx
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	// Another writer may have interned str since the read lock was released.
	if idx, ok := st.stringsToIndices[str]; ok {
		return idx
	}
	idx = int64(len(st.stringsByIndex))
	st.stringsByIndex = append(st.stringsByIndex, str)
	st.stringsToIndices[str] = idx
	return idx
}

// errs accumulates errors raised while building a response.
type errs struct {
	mu   sync.Mutex
	errs []error
}

func (e *errs) add(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err)
}

func (e *errs) failed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs) > 0
}

func (e *errs) toError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.errs) == 0 {
		return nil
	}
	msgs := make([]string, len(e.errs))
	for idx, err := range e.errs {
		msgs[idx] = err.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, ", "))
}

// DataResponseBuilder assembles a Data response from one or more series.
type DataResponseBuilder struct {
	st   *stringTable
	errs *errs
	d    *Data
	mu   sync.Mutex
}

// NewDataResponseBuilder returns a new, empty DataResponseBuilder.
func NewDataResponseBuilder() *DataResponseBuilder {
	return &DataResponseBuilder{
		st:   newStringTable(),
		errs: &errs{},
		d: &Data{
			StringTable: []string{},
			DataSeries:  []*DataSeries{},
		},
	}
}

// DataBuilder is implemented by types that can assemble a Datum tree.
type DataBuilder interface {
	With(updates ...PropertyUpdate) DataBuilder
	Child() DataBuilder
}

// DataSeries adds a new series with the provided name to the response, and
// returns a DataBuilder for its root.  DataSeries is safe for concurrent use.
func (drb *DataResponseBuilder) DataSeries(seriesName string) DataBuilder {
	ret := newDatumBuilder(drb.errs, drb.st)
	drb.mu.Lock()
	drb.d.DataSeries = append(drb.d.DataSeries, &DataSeries{
		SeriesName: seriesName,
		Root:       ret.d,
	})
	drb.mu.Unlock()
	return ret
}

// Data completes and returns the Data under construction, or the first
// errors encountered while building it.
func (drb *DataResponseBuilder) Data() (*Data, error) {
	if drb.errs.failed() {
		return nil, drb.errs.toError()
	}
	drb.st.mu.RLock()
	drb.d.StringTable = append([]string{}, drb.st.stringsByIndex...)
	drb.st.mu.RUnlock()
	return drb.d, nil
}

// StringIndexValue returns a new V wrapping the provided string index.
func StringIndexValue(strIdx int64) *V {
	return &V{V: strIdx, T: StringIndexValueType}
}

// StringIndicesValue returns a new V wrapping the provided string indices.
func StringIndicesValue(strIdxs ...int64) *V {
	return &V{V: strIdxs, T: StringIndicesValueType}
}

// IntegerValue returns a new V wrapping the provided int64.
func IntegerValue(i int64) *V {
	return &V{V: i, T: IntegerValueType}
}

// DoubleValue returns a new V wrapping the provided float64.
func DoubleValue(f float64) *V {
	return &V{V: f, T: DoubleValueType}
}

func expectStringIndexValue(val *V) (int64, error) {
	if val.T != StringIndexValueType {
		return 0, fmt.Errorf("expected value type 'str_idx'")
	}
	return val.V.(int64), nil
}

func expectStringIndicesValue(val *V) ([]int64, error) {
	if val.T != StringIndicesValueType {
		return nil, fmt.Errorf("expected value type 'str_idxs'")
	}
	return val.V.([]int64), nil
}

func expectIntegerValue(val *V) (int64, error) {
	if val.T != IntegerValueType {
		return 0, fmt.Errorf("expected value type 'int'")
	}
	return val.V.(int64), nil
}

func expectDoubleValue(val *V) (float64, error) {
	if val.T != DoubleValueType {
		return 0, fmt.Errorf("expected value type 'dbl'")
	}
	return val.V.(float64), nil
}

// PropertyUpdate is a function that updates a provided datumBuilder.  A nil
// PropertyUpdate does nothing.
type PropertyUpdate func(db *datumBuilder) error

// EmptyUpdate is a PropertyUpdate that does nothing.
var EmptyUpdate PropertyUpdate = nil

// ErrorProperty fails the response under construction with err.
func ErrorProperty(err error) PropertyUpdate {
	return func(db *datumBuilder) error {
		return err
	}
}

type datumBuilder struct {
	errs *errs
	st   *stringTable
	d    *Datum
}

func newDatumBuilder(errs *errs, st *stringTable) *datumBuilder {
	return &datumBuilder{
		errs: errs,
		st:   st,
		d: &Datum{
			Properties: map[int64]*V{},
			Children:   []*Datum{},
		},
	}
}

// With applies the provided PropertyUpdates to the receiver in order,
// stopping at the first error.
func (db *datumBuilder) With(updates ...PropertyUpdate) DataBuilder {
	if db.errs.failed() {
		return db
	}
	for _, update := range updates {
		if update == nil {
			continue
		}
		if err := update(db); err != nil {
			db.errs.add(err)
			break
		}
	}
	return db
}

func (db *datumBuilder) Child() DataBuilder {
	child := newDatumBuilder(db.errs, db.st)
	db.d.Children = append(db.d.Children, child.d)
	return child
}

func (db *datumBuilder) set(key string, v *V) {
	db.d.Properties[db.st.stringIndex(key)] = v
}

// If applies du only if predicate is true.
func If(predicate bool, du PropertyUpdate) PropertyUpdate {
	if predicate {
		return du
	}
	return EmptyUpdate
}

// Chain applies the provided PropertyUpdates in order.
func Chain(updates ...PropertyUpdate) PropertyUpdate {
	return func(db *datumBuilder) error {
		db.With(updates...)
		return nil
	}
}

// StringProperty returns a PropertyUpdate setting a string property.
func StringProperty(key, value string) PropertyUpdate {
	return func(db *datumBuilder) error {
		keyIdx := db.st.stringIndex(key)
		db.d.Properties[keyIdx] = StringIndexValue(db.st.stringIndex(value))
		return nil
	}
}

// StringsProperty returns a PropertyUpdate setting a string slice property.
func StringsProperty(key string, values ...string) PropertyUpdate {
	return func(db *datumBuilder) error {
		keyIdx := db.st.stringIndex(key)
		idxs := make([]int64, len(values))
		for idx, val := range values {
			idxs[idx] = db.st.stringIndex(val)
		}
		db.d.Properties[keyIdx] = StringIndicesValue(idxs...)
		return nil
	}
}

// StringsPropertyExtended returns a PropertyUpdate appending to a string
// slice property, creating it if necessary.
func StringsPropertyExtended(key string, values ...string) PropertyUpdate {
	return func(db *datumBuilder) error {
		existing, ok := db.d.Properties[db.st.stringIndex(key)]
		if !ok {
			return StringsProperty(key, values...)(db)
		}
		idxs, err := expectStringIndicesValue(existing)
		if err != nil {
			return err
		}
		for _, val := range values {
			idxs = append(idxs, db.st.stringIndex(val))
		}
		existing.V = idxs
		return nil
	}
}

// IntegerProperty returns a PropertyUpdate setting an integer property.
func IntegerProperty(key string, value int64) PropertyUpdate {
	return func(db *datumBuilder) error {
		db.set(key, IntegerValue(value))
		return nil
	}
}

// BoolProperty returns a PropertyUpdate setting a flag, encoded as the
// integer 1 or 0.
func BoolProperty(key string, value bool) PropertyUpdate {
	var i int64
	if value {
		i = 1
	}
	return IntegerProperty(key, i)
}

// DoubleProperty returns a PropertyUpdate setting a double property.
func DoubleProperty(key string, value float64) PropertyUpdate {
	return func(db *datumBuilder) error {
		db.set(key, DoubleValue(value))
		return nil
	}
}
