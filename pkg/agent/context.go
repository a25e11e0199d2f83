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

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/google/uuid"
)

/*
InvocationContext represents the context of an agent invocation.

An invocation starts with the user's message and ends when the root agent's
Run completes. It covers every agent call made on the way down the tree:

	┌──────────────────────── invocation ─────────────────────────┐
	┌─ court_clerk ─┐┌──────── historical_court_system ───────────┐
	                 ┌── trial_and_review (loop) ──┐┌─ writer ─┐
	                 [admirer ∥ critic] [judge] ...
*/
type InvocationContext interface {
	CallbackContext

	// Agent returns the agent being executed.
	Agent() Agent

	// Session returns the session for this invocation.
	Session() Session

	// LoopSignal returns the exit signal of the innermost enclosing loop,
	// or nil when the agent does not run inside a loop.
	LoopSignal() *LoopSignal

	// EndInvocation signals that the invocation should stop.
	EndInvocation()

	// Ended returns whether the invocation has been ended.
	Ended() bool
}

// ReadonlyContext provides read-only access to invocation data.
type ReadonlyContext interface {
	context.Context

	InvocationID() string
	AgentName() string
	UserContent() *Content
	ReadonlyState() ReadonlyState
	UserID() string
	AppName() string
	SessionID() string

	// Branch returns the agent hierarchy path, e.g. "court/trial/admirer".
	Branch() string
}

// CallbackContext provides state modification for callbacks and tools.
type CallbackContext interface {
	ReadonlyContext

	// State returns the shared, mutable run state.
	State() State
}

// Session represents one run of a workflow.
// Defined here to avoid circular imports with the session package.
type Session interface {
	ID() string
	AppName() string
	UserID() string
	State() State
	Events() Events
}

// ReadonlyState provides read-only access to session state.
//
// Get returns (nil, nil) for a field that was never written. Errors are
// reserved for backend failures.
type ReadonlyState interface {
	Get(key string) (any, error)
	All() iter.Seq2[string, any]
}

// State is the shared field store of a run.
//
// Scalar values are strings written with Set. Accumulator fields hold an
// ordered []string and grow through Append, which is atomic with respect to
// concurrent appenders on the same field.
type State interface {
	ReadonlyState
	Set(key string, value any) error
	Append(key string, value string) error
	Delete(key string) error
}

// Events provides access to session event history.
type Events interface {
	All() iter.Seq[*Event]
	Len() int
	At(i int) *Event
}

// InvocationContextParams contains parameters for creating an InvocationContext.
type InvocationContextParams struct {
	Agent       Agent
	Session     Session
	UserContent *Content
	Branch      string
	LoopSignal  *LoopSignal

	// InvocationID is inherited by child contexts. A new ID is generated
	// when empty.
	InvocationID string

	ended *atomic.Bool
}

// NewInvocationContext creates a new InvocationContext.
func NewInvocationContext(ctx context.Context, params InvocationContextParams) InvocationContext {
	invocationID := params.InvocationID
	if invocationID == "" {
		invocationID = uuid.NewString()
	}
	ended := params.ended
	if ended == nil {
		ended = new(atomic.Bool)
	}
	return &invocationContext{
		Context:      ctx,
		agent:        params.Agent,
		session:      params.Session,
		invocationID: invocationID,
		branch:       params.Branch,
		userContent:  params.UserContent,
		loopSignal:   params.LoopSignal,
		ended:        ended,
	}
}

// ChildParams returns params for running sub under parent. The child
// inherits the session, user content, loop signal, invocation ID and the
// ended flag.
func ChildParams(parent InvocationContext, sub Agent) InvocationContextParams {
	branch := sub.Name()
	if parent.Branch() != "" {
		branch = parent.Branch() + "/" + sub.Name()
	}
	return InvocationContextParams{
		Agent:        sub,
		Session:      parent.Session(),
		UserContent:  parent.UserContent(),
		Branch:       branch,
		LoopSignal:   parent.LoopSignal(),
		InvocationID: parent.InvocationID(),
		ended:        endedFlag(parent),
	}
}

func endedFlag(ctx InvocationContext) *atomic.Bool {
	if c, ok := ctx.(*invocationContext); ok {
		return c.ended
	}
	return nil
}

type invocationContext struct {
	context.Context

	agent        Agent
	session      Session
	invocationID string
	branch       string
	userContent  *Content
	loopSignal   *LoopSignal
	ended        *atomic.Bool
}

func (c *invocationContext) Agent() Agent            { return c.agent }
func (c *invocationContext) Session() Session        { return c.session }
func (c *invocationContext) InvocationID() string    { return c.invocationID }
func (c *invocationContext) Branch() string          { return c.branch }
func (c *invocationContext) UserContent() *Content   { return c.userContent }
func (c *invocationContext) LoopSignal() *LoopSignal { return c.loopSignal }
func (c *invocationContext) EndInvocation()          { c.ended.Store(true) }
func (c *invocationContext) Ended() bool             { return c.ended.Load() }

func (c *invocationContext) AgentName() string {
	if c.agent != nil {
		return c.agent.Name()
	}
	return ""
}

func (c *invocationContext) ReadonlyState() ReadonlyState {
	if c.session != nil {
		return c.session.State()
	}
	return nil
}

func (c *invocationContext) State() State {
	if c.session != nil {
		return c.session.State()
	}
	return nil
}

func (c *invocationContext) UserID() string {
	if c.session != nil {
		return c.session.UserID()
	}
	return ""
}

func (c *invocationContext) AppName() string {
	if c.session != nil {
		return c.session.AppName()
	}
	return ""
}

func (c *invocationContext) SessionID() string {
	if c.session != nil {
		return c.session.ID()
	}
	return ""
}

var (
	_ InvocationContext = (*invocationContext)(nil)
	_ CallbackContext   = (*invocationContext)(nil)
)
