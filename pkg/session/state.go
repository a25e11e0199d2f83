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

package session

import (
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/kadirpekel/tribunal/pkg/agent"
)

// MemoryState is an in-memory agent.State.
//
// All operations hold a single mutex, so each Get, Set and Append is
// linearizable and concurrent appends to one field are never lost.
type MemoryState struct {
	data map[string]any
	mu   sync.RWMutex
}

// NewMemoryState returns a state seeded with a copy of initial.
func NewMemoryState(initial map[string]any) *MemoryState {
	data := make(map[string]any, len(initial))
	for k, v := range initial {
		data[k] = copyValue(v)
	}
	return &MemoryState{data: data}
}

// Get returns the field value, or nil if the field was never written.
// Accumulator values are returned as a copy.
func (s *MemoryState) Get(key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyValue(s.data[key]), nil
}

// Set overwrites a field.
func (s *MemoryState) Set(key string, val any) error {
	s.mu.Lock()
	s.data[key] = copyValue(val)
	s.mu.Unlock()

	logMutation("State set", key, val)
	return nil
}

// Append adds value to the end of the accumulator field key, creating it
// if needed. A scalar already stored under key becomes the first element.
func (s *MemoryState) Append(key string, value string) error {
	s.mu.Lock()
	var list []string
	switch existing := s.data[key].(type) {
	case nil:
	case []string:
		list = existing
	case string:
		list = []string{existing}
	default:
		s.mu.Unlock()
		return fmt.Errorf("cannot append to field %q holding %T", key, existing)
	}
	s.data[key] = append(list, value)
	s.mu.Unlock()

	logMutation("State appended", key, value)
	return nil
}

// Delete removes a field.
func (s *MemoryState) Delete(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// All yields a snapshot of every field in key order.
func (s *MemoryState) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		s.mu.RLock()
		snapshot := make(map[string]any, len(s.data))
		for k, v := range s.data {
			snapshot[k] = copyValue(v)
		}
		s.mu.RUnlock()

		for _, k := range slices.Sorted(maps.Keys(snapshot)) {
			if !yield(k, snapshot[k]) {
				return
			}
		}
	}
}

func copyValue(v any) any {
	if list, ok := v.([]string); ok {
		return slices.Clone(list)
	}
	return v
}

func logMutation(msg, key string, value any) {
	slog.Info(msg, "field", key, "value", value)
}

var _ agent.State = (*MemoryState)(nil)
