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

// Package testutil provides helpers for testing chart description
// construction.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ilhamster/instrumentviz/util"
)

// UpdateComparator checks that a set of PropertyUpdates under test has the
// same effect on a Datum as a set of expected PropertyUpdates.
type UpdateComparator struct {
	got  []util.PropertyUpdate
	want []util.PropertyUpdate
}

// NewUpdateComparator returns a new, empty UpdateComparator.
func NewUpdateComparator() *UpdateComparator {
	return &UpdateComparator{}
}

// WithTestUpdates specifies the PropertyUpdates under test.
func (uc *UpdateComparator) WithTestUpdates(got ...util.PropertyUpdate) *UpdateComparator {
	uc.got = got
	return uc
}

// WithWantUpdates specifies the expected PropertyUpdates.
func (uc *UpdateComparator) WithWantUpdates(want ...util.PropertyUpdate) *UpdateComparator {
	uc.want = want
	return uc
}

// Compare applies both sets of updates to sibling Datums and compares them,
// returning a difference message and true if they differ.  String-table
// ordering is not significant.
func (uc *UpdateComparator) Compare(t *testing.T) (string, bool) {
	t.Helper()
	drb := util.NewDataResponseBuilder()
	series := drb.DataSeries("")
	series.Child().With(uc.got...)
	series.Child().With(uc.want...)
	data, err := drb.Data()
	if err != nil {
		t.Fatalf("failed to build comparison data: %s", err)
	}
	children := data.DataSeries[0].Root.Children
	diff := cmp.Diff(
		children[1].PrettyPrint("", data.StringTable),
		children[0].PrettyPrint("", data.StringTable))
	if diff != "" {
		return fmt.Sprintf("Got series %s, diff (-want +got):\n%s",
			data.DataSeries[0].PrettyPrint("", data.StringTable), diff), true
	}
	return "", false
}

// TestDataBuilder fluently assembles an expected Datum tree in tests.
type TestDataBuilder interface {
	With(updates ...util.PropertyUpdate) TestDataBuilder
	Child() TestDataBuilder
	AndChild() TestDataBuilder
	Parent() TestDataBuilder
}

type testDataBuilder struct {
	db     util.DataBuilder
	parent *testDataBuilder
}

// With applies the provided PropertyUpdates to the receiver in order.
func (tdb *testDataBuilder) With(updates ...util.PropertyUpdate) TestDataBuilder {
	tdb.db.With(updates...)
	return tdb
}

// Child adds a child to the receiver and returns a builder for it.
func (tdb *testDataBuilder) Child() TestDataBuilder {
	return &testDataBuilder{
		db:     tdb.db.Child(),
		parent: tdb,
	}
}

// AndChild adds a sibling of the receiver, or a child if the receiver is the
// root, and returns a builder for it.
func (tdb *testDataBuilder) AndChild() TestDataBuilder {
	if tdb.parent == nil {
		return tdb.Child()
	}
	return tdb.parent.Child()
}

// Parent returns the receiver's parent, or the receiver if it is the root.
func (tdb *testDataBuilder) Parent() TestDataBuilder {
	if tdb.parent == nil {
		return tdb
	}
	return tdb.parent
}

// CompareData reports a test error if got and want do not prettyprint
// identically.
func CompareData(t *testing.T, got, want *util.Data) {
	t.Helper()
	if diff := cmp.Diff(want.PrettyPrint(), got.PrettyPrint()); diff != "" {
		t.Errorf("Got data %s, diff (-want +got):\n%s", got.PrettyPrint(), diff)
	}
}

// CompareResponses builds two responses, one from the code under test and
// one from an explicit description, and compares them.  Each builder must
// be a func(util.DataBuilder) or a func(TestDataBuilder).  Returns any error
// raised while building either response.
func CompareResponses(t *testing.T, buildGot, buildWant any) error {
	t.Helper()
	build := func(fn any) (*util.Data, error) {
		drb := util.NewDataResponseBuilder()
		root := drb.DataSeries("")
		switch b := fn.(type) {
		case func(util.DataBuilder):
			b(root)
		case func(TestDataBuilder):
			b(&testDataBuilder{db: root})
		default:
			t.Fatalf("builder must be func(util.DataBuilder) or func(testutil.TestDataBuilder), got %T", fn)
		}
		return drb.Data()
	}
	got, err := build(buildGot)
	if err != nil {
		return err
	}
	want, err := build(buildWant)
	if err != nil {
		return err
	}
	CompareData(t, got, want)
	return nil
}
