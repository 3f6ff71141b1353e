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

package rendererregistry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ilhamster/instrumentviz/instrumentviz/instrument"
)

// countingRenderer records how many times it was invoked, per product type.
type countingRenderer struct {
	calls map[string]int
	err   error
}

func newCountingRenderer() *countingRenderer {
	return &countingRenderer{
		calls: map[string]int{},
	}
}

func (cr *countingRenderer) Render(ctx context.Context, desc instrument.Descriptor, data instrument.Dataset) error {
	cr.calls[desc.Type]++
	return cr.err
}

func TestDispatch(t *testing.T) {
	data := instrument.Dataset("[[1, 2]]")
	for _, test := range []struct {
		description      string
		registered       []string
		dispatched       []string
		wantDefaultCalls map[string]int
		wantCustomCalls  map[string]int
	}{{
		description:      "no registered types",
		dispatched:       []string{"spectrum", "xrf"},
		wantDefaultCalls: map[string]int{"spectrum": 1, "xrf": 1},
		wantCustomCalls:  map[string]int{},
	}, {
		description:      "registered types never reach the default",
		registered:       []string{"spectrum"},
		dispatched:       []string{"spectrum", "spectrum", "xrf"},
		wantDefaultCalls: map[string]int{"xrf": 1},
		wantCustomCalls:  map[string]int{"spectrum": 2},
	}, {
		description:      "empty type falls back",
		registered:       []string{"spectrum"},
		dispatched:       []string{""},
		wantDefaultCalls: map[string]int{"": 1},
		wantCustomCalls:  map[string]int{},
	}} {
		t.Run(test.description, func(t *testing.T) {
			def := newCountingRenderer()
			custom := newCountingRenderer()
			r := New(def)
			for _, productType := range test.registered {
				r.Register(productType, custom)
			}
			for _, productType := range test.dispatched {
				if err := r.Dispatch(context.Background(), instrument.Descriptor{Type: productType}, data); err != nil {
					t.Fatalf("Dispatch(%s) yielded unexpected error %s", productType, err)
				}
			}
			if diff := cmp.Diff(test.wantDefaultCalls, def.calls); diff != "" {
				t.Errorf("default renderer calls diff (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.wantCustomCalls, custom.calls); diff != "" {
				t.Errorf("custom renderer calls diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegisterOverwrites(t *testing.T) {
	var got string
	r := New(newCountingRenderer())
	r.Register("spectrum", RendererFunc(func(ctx context.Context, desc instrument.Descriptor, data instrument.Dataset) error {
		got = "first"
		return nil
	}))
	r.Register("spectrum", RendererFunc(func(ctx context.Context, desc instrument.Descriptor, data instrument.Dataset) error {
		got = "second"
		return nil
	}))
	if err := r.Dispatch(context.Background(), instrument.Descriptor{Type: "spectrum"}, nil); err != nil {
		t.Fatalf("Dispatch() yielded unexpected error %s", err)
	}
	if got != "second" {
		t.Errorf("Dispatch() invoked the %s renderer, want the second", got)
	}
	if diff := cmp.Diff([]string{"spectrum"}, r.Types()); diff != "" {
		t.Errorf("Types() diff (-want +got):\n%s", diff)
	}
}

func TestDispatchError(t *testing.T) {
	def := newCountingRenderer()
	def.err = errors.New("oops")
	if err := New(def).Dispatch(context.Background(), instrument.Descriptor{}, nil); !errors.Is(err, def.err) {
		t.Errorf("Dispatch() yielded error %v, want %v", err, def.err)
	}
}
