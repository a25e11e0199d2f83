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

// Package tool defines interfaces for tools that agents can invoke.
//
// A tool performs at most one class of side effect per call: it mutates
// the shared state, performs external I/O, or signals the enclosing loop.
//
// # Errors
//
// A tool reports misuse by the model (malformed or missing arguments) by
// returning an error wrapping ErrInvalidArgs. The calling agent feeds such
// errors back to the model as a failed tool result. Any other error is
// unrecoverable and fails the calling agent's step.
//
// # Creating Tools
//
//	// Typed function tool
//	t, err := functiontool.New(functiontool.Config{...}, fn)
//
//	// Built-in tools
//	statetool.AppendToState()
//	filetool.NewWriteFile(filetool.Config{...})
//	controltool.ExitLoop()
package tool

import (
	"errors"

	"github.com/kadirpekel/tribunal/pkg/agent"
)

var (
	// ErrInvalidArgs marks tool misuse: arguments of the wrong shape.
	ErrInvalidArgs = errors.New("invalid tool arguments")

	// ErrUnknownTool marks a call to a tool the agent does not have.
	ErrUnknownTool = errors.New("unknown tool")
)

// Tool defines the base interface for a tool.
type Tool interface {
	// Name returns the unique name of the tool.
	Name() string

	// Description tells the model when to use the tool.
	Description() string
}

// CallableTool extends Tool with synchronous execution.
type CallableTool interface {
	Tool

	// Call executes the tool with the given arguments.
	Call(ctx Context, args map[string]any) (map[string]any, error)

	// Schema returns the JSON schema for the tool's parameters.
	Schema() map[string]any
}

// Context provides the execution context for a tool.
type Context interface {
	agent.CallbackContext

	// FunctionCallID returns the model-assigned ID of this invocation.
	FunctionCallID() string

	// Actions returns the event actions recorded by this invocation.
	Actions() *agent.EventActions

	// LoopSignal returns the exit signal of the enclosing loop, or nil.
	LoopSignal() *agent.LoopSignal
}

// NewContext returns a Context for one invocation of a tool by the agent
// running under inv.
func NewContext(inv agent.InvocationContext, functionCallID string) Context {
	return &callContext{
		CallbackContext: inv,
		functionCallID:  functionCallID,
		actions:         &agent.EventActions{StateDelta: make(map[string]any)},
		signal:          inv.LoopSignal(),
	}
}

type callContext struct {
	agent.CallbackContext
	functionCallID string
	actions        *agent.EventActions
	signal         *agent.LoopSignal
}

func (c *callContext) FunctionCallID() string        { return c.functionCallID }
func (c *callContext) Actions() *agent.EventActions  { return c.actions }
func (c *callContext) LoopSignal() *agent.LoopSignal { return c.signal }

// Definition describes a tool to a model.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToDefinition builds the Definition of t.
func ToDefinition(t CallableTool) Definition {
	return Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Schema(),
	}
}

// ToolCall is a model's request to invoke a tool.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}
