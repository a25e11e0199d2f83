package court

import (
	"log/slog"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/model"
)

// LogModelRequest logs the rendered instruction and latest message sent
// to the model.
func LogModelRequest(ctx agent.CallbackContext, req *model.Request) (*model.Response, error) {
	var last string
	if n := len(req.Messages); n > 0 {
		last = messageText(req.Messages[n-1])
	}
	slog.Info("Model request",
		"agent", ctx.AgentName(),
		"instruction", req.SystemInstruction,
		"last_message", last,
		"tools", len(req.Tools))
	return nil, nil
}

// LogModelResponse logs the model's answer and the tools it asked for.
func LogModelResponse(ctx agent.CallbackContext, resp *model.Response, err error) (*model.Response, error) {
	if err != nil {
		slog.Warn("Model call failed", "agent", ctx.AgentName(), "error", err)
		return nil, nil
	}
	var calls []string
	for _, tc := range resp.ToolCalls {
		calls = append(calls, tc.Name)
	}
	slog.Info("Model response",
		"agent", ctx.AgentName(),
		"text", resp.TextContent(),
		"tool_calls", calls)
	return nil, nil
}

func messageText(msg *a2a.Message) string {
	if msg == nil {
		return ""
	}
	var text string
	for _, p := range msg.Parts {
		if tp, ok := p.(a2a.TextPart); ok {
			text += tp.Text
		} else if r, ok := model.AsToolResult(p); ok {
			text += r.ToolName + ": " + r.Content
		}
	}
	return text
}
