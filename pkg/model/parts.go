package model

import (
	"github.com/a2aproject/a2a-go/a2a"

	"github.com/kadirpekel/tribunal/pkg/tool"
)

const (
	partTypeToolUse    = "tool_use"
	partTypeToolResult = "tool_result"
)

// ToolResult is the outcome of one tool call as seen by the model.
type ToolResult struct {
	ToolCallID string
	ToolName   string
	Content    string
	IsError    bool
}

// ToolUsePart encodes a tool request as a data part.
func ToolUsePart(tc tool.ToolCall) a2a.DataPart {
	return a2a.DataPart{Data: map[string]any{
		"type":      partTypeToolUse,
		"id":        tc.ID,
		"name":      tc.Name,
		"arguments": tc.Args,
	}}
}

// ToolResultPart encodes a tool result as a data part.
func ToolResultPart(r ToolResult) a2a.DataPart {
	return a2a.DataPart{Data: map[string]any{
		"type":         partTypeToolResult,
		"tool_call_id": r.ToolCallID,
		"tool_name":    r.ToolName,
		"content":      r.Content,
		"is_error":     r.IsError,
	}}
}

// AsToolUse decodes a part produced by ToolUsePart.
func AsToolUse(part a2a.Part) (tool.ToolCall, bool) {
	data, ok := dataOf(part, partTypeToolUse)
	if !ok {
		return tool.ToolCall{}, false
	}
	tc := tool.ToolCall{}
	tc.ID, _ = data["id"].(string)
	tc.Name, _ = data["name"].(string)
	tc.Args, _ = data["arguments"].(map[string]any)
	return tc, true
}

// AsToolResult decodes a part produced by ToolResultPart.
func AsToolResult(part a2a.Part) (ToolResult, bool) {
	data, ok := dataOf(part, partTypeToolResult)
	if !ok {
		return ToolResult{}, false
	}
	r := ToolResult{}
	r.ToolCallID, _ = data["tool_call_id"].(string)
	r.ToolName, _ = data["tool_name"].(string)
	r.Content, _ = data["content"].(string)
	r.IsError, _ = data["is_error"].(bool)
	return r, true
}

func dataOf(part a2a.Part, partType string) (map[string]any, bool) {
	var data map[string]any
	switch p := part.(type) {
	case a2a.DataPart:
		data = p.Data
	case *a2a.DataPart:
		if p != nil {
			data = p.Data
		}
	}
	if data == nil {
		return nil, false
	}
	t, _ := data["type"].(string)
	return data, t == partType
}
