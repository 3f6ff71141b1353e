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

// Package rendererregistry provides Registry, which dispatches fetched
// instrument data to the renderer registered for its data-product type,
// falling back to a default renderer for types nobody registered.
package rendererregistry

import (
	"context"
	"sort"
	"sync"

	"github.com/ilhamster/instrumentviz/instrumentviz/instrument"
)

// Renderer is implemented by types that can visualize a data product.
// Renderers must support concurrent Render calls.
type Renderer interface {
	// Render visualizes the provided dataset, fetched for the provided
	// descriptor.  The dataset is non-empty.
	Render(ctx context.Context, desc instrument.Descriptor, data instrument.Dataset) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, desc instrument.Descriptor, data instrument.Dataset) error

// Render invokes the receiver.
func (rf RendererFunc) Render(ctx context.Context, desc instrument.Descriptor, data instrument.Dataset) error {
	return rf(ctx, desc, data)
}

// Registry maps data-product types to Renderers.  It is safe for concurrent
// use.
type Registry struct {
	defaultRenderer Renderer

	mu              sync.RWMutex
	renderersByType map[string]Renderer
}

// New returns a new Registry with no registered types, dispatching to
// defaultRenderer.
func New(defaultRenderer Renderer) *Registry {
	return &Registry{
		defaultRenderer: defaultRenderer,
		renderersByType: map[string]Renderer{},
	}
}

// Register registers renderer for the specified data-product type,
// replacing any renderer previously registered for it.
func (r *Registry) Register(productType string, renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderersByType[productType] = renderer
}

// Lookup returns the Renderer that Dispatch would use for productType, and
// whether it was registered for that type.
func (r *Registry) Lookup(productType string) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if renderer, ok := r.renderersByType[productType]; ok {
		return renderer, true
	}
	return r.defaultRenderer, false
}

// Dispatch renders data with the Renderer registered for desc.Type, or with
// the default Renderer if none is.  An unregistered type is not an error.
func (r *Registry) Dispatch(ctx context.Context, desc instrument.Descriptor, data instrument.Dataset) error {
	renderer, _ := r.Lookup(desc.Type)
	return renderer.Render(ctx, desc, data)
}

// Types returns the registered data-product types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.renderersByType))
	for productType := range r.renderersByType {
		ret = append(ret, productType)
	}
	sort.Strings(ret)
	return ret
}
