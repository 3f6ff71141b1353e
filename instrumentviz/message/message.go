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

// Package message provides the single status line an instrument viewer
// shows its user: loading, empty-result, and failure notices, or the values
// under the pointer.
package message

import (
	"sync"

	"github.com/google/safehtml"
)

// Surface holds one status message.  The last write wins.  Surface is safe
// for concurrent use.
type Surface struct {
	mu      sync.RWMutex
	msg     safehtml.HTML
	version uint64
}

// New returns a new Surface showing no message.
func New() *Surface {
	return &Surface{}
}

// SetMessage replaces the shown message.
func (s *Surface) SetMessage(msg safehtml.HTML) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
	s.version++
}

// SetText replaces the shown message with the provided plain text.
func (s *Surface) SetText(text string) {
	s.SetMessage(safehtml.HTMLEscaped(text))
}

// ClearMessage empties the shown message.
func (s *Surface) ClearMessage() {
	s.SetMessage(safehtml.HTML{})
}

// Message returns the shown message.
func (s *Surface) Message() safehtml.HTML {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.msg
}

// Version returns the number of writes made to the receiver, allowing
// pollers to detect changes.
func (s *Surface) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
