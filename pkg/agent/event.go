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

package agent

import (
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"
)

const (
	// AuthorUser marks events that carry the user's input.
	AuthorUser = "user"

	// AuthorSystem marks events generated by the framework itself.
	AuthorSystem = "system"
)

// Event represents one step of a run, yielded by Agent.Run.
type Event struct {
	ID           string
	Timestamp    time.Time
	InvocationID string

	// Branch is the agent path that produced the event.
	Branch string

	// Author is the producing agent's name, AuthorUser or AuthorSystem.
	Author string

	// Message carries the content (text and data parts).
	Message *a2a.Message

	// Actions captures side effects (state changes, escalation).
	Actions EventActions

	// Partial indicates a streaming chunk, not a complete event.
	Partial bool

	// TurnComplete marks the final event of an agent's turn.
	TurnComplete bool

	ErrorCode    string
	ErrorMessage string

	ToolCalls   []ToolCallState
	ToolResults []ToolResultState

	// CustomMetadata holds composite-specific data such as loop outcomes.
	CustomMetadata map[string]any
}

// ToolCallState represents a tool invocation requested by a model.
type ToolCallState struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResultState represents the outcome of a tool invocation.
type ToolResultState struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// NewEvent creates a new event with generated ID and current timestamp.
func NewEvent(invocationID string) *Event {
	return &Event{
		ID:           uuid.NewString(),
		Timestamp:    time.Now(),
		InvocationID: invocationID,
		Actions:      EventActions{StateDelta: make(map[string]any)},
	}
}

// EventActions represents side effects attached to an event.
type EventActions struct {
	// StateDelta contains the field changes made while producing the event.
	StateDelta map[string]any

	// SkipSummarization ends the model turn after a tool result.
	SkipSummarization bool

	// Escalate asks the enclosing loop to exit.
	Escalate bool
}

// IsFinalResponse reports whether the event ends an agent's turn.
func (e *Event) IsFinalResponse() bool {
	if e.Actions.SkipSummarization {
		return true
	}
	if e.Partial {
		return false
	}
	return len(e.ToolCalls) == 0 && len(e.ToolResults) == 0
}

// TextContent concatenates the text parts of the event's message.
func (e *Event) TextContent() string {
	if e.Message == nil {
		return ""
	}
	var text string
	for _, part := range e.Message.Parts {
		if tp, ok := part.(a2a.TextPart); ok {
			text += tp.Text
		}
	}
	return text
}

// Content is a convenience type for building message content.
type Content struct {
	Parts []a2a.Part
	Role  a2a.MessageRole
}

// NewTextContent creates content with a single text part.
func NewTextContent(text string, role a2a.MessageRole) *Content {
	return &Content{
		Parts: []a2a.Part{a2a.TextPart{Text: text}},
		Role:  role,
	}
}

// ToMessage converts Content to an a2a.Message.
func (c *Content) ToMessage() *a2a.Message {
	if c == nil {
		return nil
	}
	return a2a.NewMessage(c.Role, c.Parts...)
}

// Text concatenates the text parts of the content.
func (c *Content) Text() string {
	if c == nil {
		return ""
	}
	var text string
	for _, part := range c.Parts {
		if tp, ok := part.(a2a.TextPart); ok {
			text += tp.Text
		}
	}
	return text
}
