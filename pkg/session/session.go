// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package session provides session management for Tribunal.
//
// A session is one run of a workflow. It owns:
//   - a unique identifier
//   - the app and user it belongs to
//   - the shared state store every agent of the run reads and writes
//   - the event history
//
// State is created empty (or from CreateRequest.State) when the session
// is created and is discarded with it.
package session

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/tribunal/pkg/agent"
)

// Session represents one run between a user and a workflow.
type Session interface {
	ID() string
	AppName() string
	UserID() string
	State() agent.State
	Events() agent.Events

	// LastUpdateTime returns when an event was last appended.
	LastUpdateTime() time.Time
}

// Service manages session lifecycle.
type Service interface {
	Get(ctx context.Context, req *GetRequest) (*GetResponse, error)
	Create(ctx context.Context, req *CreateRequest) (*CreateResponse, error)
	AppendEvent(ctx context.Context, session Session, event *agent.Event) error
	Delete(ctx context.Context, req *DeleteRequest) error
}

// GetRequest contains parameters for retrieving a session.
type GetRequest struct {
	AppName   string
	UserID    string
	SessionID string
}

// GetResponse contains the retrieved session.
type GetResponse struct {
	Session Session
}

// CreateRequest contains parameters for creating a session.
type CreateRequest struct {
	AppName   string
	UserID    string
	SessionID string // generated if empty
	State     map[string]any
}

// CreateResponse contains the created session.
type CreateResponse struct {
	Session Session
}

// DeleteRequest contains parameters for deleting a session.
type DeleteRequest struct {
	AppName   string
	UserID    string
	SessionID string
}

// ErrSessionNotFound is returned when a session doesn't exist.
var ErrSessionNotFound = errors.New("session not found")

// StateFactory creates the state store for a new session.
type StateFactory func(ctx context.Context, sessionID string) (agent.State, error)

// ServiceOption configures an in-memory service.
type ServiceOption func(*inMemoryService)

// WithStateFactory replaces the default in-memory state store.
func WithStateFactory(factory StateFactory) ServiceOption {
	return func(s *inMemoryService) {
		s.stateFactory = factory
	}
}

// InMemoryService returns a session service that keeps sessions in memory.
// State lives in memory too unless WithStateFactory says otherwise.
func InMemoryService(opts ...ServiceOption) Service {
	s := &inMemoryService{
		sessions: make(map[string]*memorySession),
		stateFactory: func(context.Context, string) (agent.State, error) {
			return NewMemoryState(nil), nil
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type inMemoryService struct {
	sessions     map[string]*memorySession
	stateFactory StateFactory
	mu           sync.RWMutex
}

func (s *inMemoryService) sessionKey(appName, userID, sessionID string) string {
	return appName + ":" + userID + ":" + sessionID
}

func (s *inMemoryService) Get(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[s.sessionKey(req.AppName, req.UserID, req.SessionID)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &GetResponse{Session: sess}, nil
}

func (s *inMemoryService) Create(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	state, err := s.stateFactory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create state for session %s: %w", sessionID, err)
	}
	for k, v := range req.State {
		if err := state.Set(k, v); err != nil {
			return nil, fmt.Errorf("failed to seed state key %q: %w", k, err)
		}
	}

	sess := &memorySession{
		id:             sessionID,
		appName:        req.AppName,
		userID:         req.UserID,
		state:          state,
		events:         &memoryEvents{},
		lastUpdateTime: time.Now(),
	}

	s.mu.Lock()
	s.sessions[s.sessionKey(req.AppName, req.UserID, sessionID)] = sess
	s.mu.Unlock()

	return &CreateResponse{Session: sess}, nil
}

func (s *inMemoryService) AppendEvent(ctx context.Context, session Session, event *agent.Event) error {
	s.mu.RLock()
	ms, ok := s.sessions[s.sessionKey(session.AppName(), session.UserID(), session.ID())]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	ms.appendEvent(event)
	return nil
}

func (s *inMemoryService) Delete(ctx context.Context, req *DeleteRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, s.sessionKey(req.AppName, req.UserID, req.SessionID))
	return nil
}

type memorySession struct {
	id             string
	appName        string
	userID         string
	state          agent.State
	events         *memoryEvents
	lastUpdateTime time.Time
	mu             sync.RWMutex
}

func (s *memorySession) ID() string           { return s.id }
func (s *memorySession) AppName() string      { return s.appName }
func (s *memorySession) UserID() string       { return s.userID }
func (s *memorySession) State() agent.State   { return s.state }
func (s *memorySession) Events() agent.Events { return s.events }

func (s *memorySession) LastUpdateTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdateTime
}

func (s *memorySession) appendEvent(event *agent.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.append(event)
	s.lastUpdateTime = time.Now()
}

type memoryEvents struct {
	events []*agent.Event
	mu     sync.RWMutex
}

func (e *memoryEvents) All() iter.Seq[*agent.Event] {
	return func(yield func(*agent.Event) bool) {
		e.mu.RLock()
		snapshot := append([]*agent.Event(nil), e.events...)
		e.mu.RUnlock()
		for _, ev := range snapshot {
			if !yield(ev) {
				return
			}
		}
	}
}

func (e *memoryEvents) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.events)
}

func (e *memoryEvents) At(i int) *agent.Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if i < 0 || i >= len(e.events) {
		return nil
	}
	return e.events[i]
}

func (e *memoryEvents) append(event *agent.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

var (
	_ Session       = (*memorySession)(nil)
	_ agent.Session = (*memorySession)(nil)
	_ agent.Events  = (*memoryEvents)(nil)
	_ Service       = (*inMemoryService)(nil)
)
