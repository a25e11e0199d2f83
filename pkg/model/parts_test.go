package model

import (
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tribunal/pkg/tool"
)

func TestToolParts(t *testing.T) {
	call := tool.ToolCall{ID: "c1", Name: "exit_loop", Args: map[string]any{}}

	tc, ok := AsToolUse(ToolUsePart(call))
	require.True(t, ok)
	assert.Equal(t, call, tc)

	p := ToolUsePart(call)
	tc, ok = AsToolUse(&p)
	require.True(t, ok)
	assert.Equal(t, "exit_loop", tc.Name)

	_, ok = AsToolResult(ToolUsePart(call))
	assert.False(t, ok, "tool_use part must not decode as a result")

	_, ok = AsToolUse(a2a.TextPart{Text: "hello"})
	assert.False(t, ok)
}

func TestResponseToMessage(t *testing.T) {
	resp := &Response{
		Content: &Content{Parts: []a2a.Part{a2a.TextPart{Text: "thinking"}}},
		ToolCalls: []tool.ToolCall{
			{ID: "1", Name: "append_to_state", Args: map[string]any{"field": "pos_data"}},
		},
	}

	msg := resp.ToMessage()
	require.Len(t, msg.Parts, 2)
	assert.Equal(t, a2a.MessageRoleAgent, msg.Role)
	assert.Equal(t, "thinking", resp.TextContent())
	tc, ok := AsToolUse(msg.Parts[1])
	require.True(t, ok)
	assert.Equal(t, "append_to_state", tc.Name)
}

func TestGenerateConfigClone(t *testing.T) {
	orig := &GenerateConfig{Temperature: Temperature(0.2)}
	clone := orig.Clone()
	*clone.Temperature = 0.9
	assert.InDelta(t, 0.2, *orig.Temperature, 1e-9)
	assert.Nil(t, (*GenerateConfig)(nil).Clone())
}
