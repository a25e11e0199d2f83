// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import "sync/atomic"

// LoopSignal is the "exit requested" flag of one loop execution.
//
// The owning loop resets it at the start of every iteration and reads it
// after the iteration body has fully completed. Any descendant may raise it.
// A nil *LoopSignal is valid and ignores Raise.
type LoopSignal struct {
	raised atomic.Bool
}

// NewLoopSignal returns an unset signal.
func NewLoopSignal() *LoopSignal {
	return &LoopSignal{}
}

// Raise requests exit. Safe for concurrent use.
func (s *LoopSignal) Raise() {
	if s != nil {
		s.raised.Store(true)
	}
}

// Raised reports whether exit was requested since the last Reset.
func (s *LoopSignal) Raised() bool {
	return s != nil && s.raised.Load()
}

// Reset clears the flag.
func (s *LoopSignal) Reset() {
	if s != nil {
		s.raised.Store(false)
	}
}
