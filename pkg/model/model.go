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

// Package model defines the LLM interface used by leaf agents.
//
// The conversation is a list of a2a messages. Tool requests and tool
// results travel as a2a.DataPart values tagged "tool_use" and "tool_result";
// provider adapters translate them to their native function-call format.
package model

import (
	"context"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/kadirpekel/tribunal/pkg/tool"
)

// LLM is the interface for language models.
type LLM interface {
	// Name returns the model identifier.
	Name() string

	// Provider returns the provider type.
	Provider() Provider

	// GenerateContent produces one complete response for req. Errors are
	// returned after the adapter's own transport handling; retries with
	// backoff are layered on with WithRetry.
	GenerateContent(ctx context.Context, req *Request) (*Response, error)

	// Close releases any resources held by the LLM.
	Close() error
}

// Provider identifies the LLM provider.
type Provider string

const (
	ProviderGemini   Provider = "gemini"
	ProviderScripted Provider = "scripted"
)

// Request contains the input for an LLM call.
type Request struct {
	// Messages is the conversation so far.
	Messages []*a2a.Message

	// Tools available for the model to call.
	Tools []tool.Definition

	// Config contains generation configuration.
	Config *GenerateConfig

	// SystemInstruction is the rendered instruction of the calling agent.
	SystemInstruction string
}

// GenerateConfig contains configuration for generation.
type GenerateConfig struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// Clone returns a deep copy of c.
func (c *GenerateConfig) Clone() *GenerateConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Temperature != nil {
		temp := *c.Temperature
		clone.Temperature = &temp
	}
	if c.MaxTokens != nil {
		maxTok := *c.MaxTokens
		clone.MaxTokens = &maxTok
	}
	if c.TopP != nil {
		topP := *c.TopP
		clone.TopP = &topP
	}
	return &clone
}

// Temperature returns a pointer to t for use in GenerateConfig.
func Temperature(t float64) *float64 {
	return &t
}

// Response contains the result of an LLM call.
type Response struct {
	Content      *Content
	ToolCalls    []tool.ToolCall
	Usage        *Usage
	FinishReason FinishReason
}

// Content represents the content of a response.
type Content struct {
	Parts []a2a.Part
	Role  a2a.MessageRole
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// FinishReason indicates why generation stopped.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonContent   FinishReason = "content_filter"
	FinishReasonError     FinishReason = "error"
)

// TextContent extracts text from a response.
func (r *Response) TextContent() string {
	if r == nil || r.Content == nil {
		return ""
	}
	var text string
	for _, part := range r.Content.Parts {
		if tp, ok := part.(a2a.TextPart); ok {
			text += tp.Text
		}
	}
	return text
}

// HasToolCalls returns whether the response requests tool invocations.
func (r *Response) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// ToMessage converts a Response to an a2a.Message including its tool
// requests as tool_use parts.
func (r *Response) ToMessage() *a2a.Message {
	if r == nil {
		return nil
	}
	var parts []a2a.Part
	role := a2a.MessageRoleAgent
	if r.Content != nil {
		parts = append(parts, r.Content.Parts...)
		if r.Content.Role != "" {
			role = r.Content.Role
		}
	}
	for _, tc := range r.ToolCalls {
		parts = append(parts, ToolUsePart(tc))
	}
	return a2a.NewMessage(role, parts...)
}
