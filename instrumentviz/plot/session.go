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
	"errors"
	"sync"

	"github.com/ilhamster/instrumentviz/instrumentviz/instrument"
)

// ErrNoChart is returned when an operation needs a live chart but the
// Session has none.
var ErrNoChart = errors.New("no chart is shown")

// State is the state of a Session's plot.
type State int

// Session states.  A Session starts Empty, and each load moves it to
// Loading and then to one of Rendered, EmptyResult, or Error.
const (
	Empty State = iota
	Loading
	Rendered
	EmptyResult
	Error
)

var stateNames = map[State]string{
	Empty:       "empty",
	Loading:     "loading",
	Rendered:    "rendered",
	EmptyResult: "empty_result",
	Error:       "error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Session holds the single current Chart, along with its axis labels and
// the product type it was rendered for.  Installing a new Chart shuts down
// the previous one, so at most one Chart in a Session is ever alive.
// Session is safe for concurrent use.
type Session struct {
	mu          sync.Mutex
	chart       *Chart
	labels      instrument.AxisLabels
	productType string
	state       State
	generation  uint64
}

// NewSession returns a new, empty Session.
func NewSession() *Session {
	return &Session{}
}

// Replace installs c as the current chart, shutting down any prior chart.
func (s *Session) Replace(c *Chart, labels instrument.AxisLabels, productType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chart != nil && s.chart != c {
		s.chart.Shutdown()
	}
	s.chart = c
	s.labels = labels
	s.productType = productType
	s.generation++
}

// Dispose shuts down and forgets the current chart, if any.  The labels and
// product type of the disposed chart are retained until the next Replace.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chart != nil {
		s.chart.Shutdown()
		s.chart = nil
	}
}

// Current returns the current chart, or ErrNoChart if there is none.
func (s *Session) Current() (*Chart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chart == nil || !s.chart.Alive() {
		return nil, ErrNoChart
	}
	return s.chart, nil
}

// Snapshot returns the current chart along with the axis labels it was
// installed with, or ErrNoChart if there is none.
func (s *Session) Snapshot() (*Chart, instrument.AxisLabels, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chart == nil || !s.chart.Alive() {
		return nil, instrument.AxisLabels{}, ErrNoChart
	}
	return s.chart, s.labels, nil
}

// Labels returns the axis labels of the most recently installed chart.
func (s *Session) Labels() instrument.AxisLabels {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.labels
}

// ProductType returns the product type of the most recently installed
// chart.
func (s *Session) ProductType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productType
}

// Generation returns the number of charts ever installed in the receiver.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// SetState sets the receiver's state.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// State returns the receiver's state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
