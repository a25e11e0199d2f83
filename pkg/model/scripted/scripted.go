// Package scripted provides a deterministic model.LLM that replays a
// fixed sequence of responses. It stands in for a real provider in tests
// and in dry runs, so decisions such as "exit the loop now" can be chosen
// by the caller.
package scripted

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/kadirpekel/tribunal/pkg/model"
	"github.com/kadirpekel/tribunal/pkg/tool"
)

// ErrExhausted is returned once every step has been consumed and no
// fallback is set.
var ErrExhausted = errors.New("script exhausted")

// Step produces the response to one model call.
type Step func(req *model.Request) (*model.Response, error)

// LLM replays steps in order, one per GenerateContent call.
type LLM struct {
	name     string
	mu       sync.Mutex
	steps    []Step
	next     int
	fallback Step
	requests []*model.Request
}

// New returns a scripted model.
func New(name string, steps ...Step) *LLM {
	return &LLM{name: name, steps: steps}
}

// WithFallback sets the step used after the script runs out.
func (l *LLM) WithFallback(step Step) *LLM {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fallback = step
	return l
}

// Then appends steps to the script.
func (l *LLM) Then(steps ...Step) *LLM {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, steps...)
	return l
}

func (l *LLM) Name() string             { return l.name }
func (l *LLM) Provider() model.Provider { return model.ProviderScripted }
func (l *LLM) Close() error             { return nil }

// GenerateContent runs the next step.
func (l *LLM) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.requests = append(l.requests, req)
	var step Step
	if l.next < len(l.steps) {
		step = l.steps[l.next]
		l.next++
	} else {
		step = l.fallback
	}
	l.mu.Unlock()

	if step == nil {
		return nil, model.Permanent(fmt.Errorf("%s: %w", l.name, ErrExhausted))
	}
	return step(req)
}

// Requests returns every request received so far.
func (l *LLM) Requests() []*model.Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*model.Request(nil), l.requests...)
}

// Remaining returns the number of unconsumed steps.
func (l *LLM) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.steps) - l.next
}

// Reply answers with plain text and no tool calls.
func Reply(text string) Step {
	return func(*model.Request) (*model.Response, error) {
		return TextResponse(text), nil
	}
}

// CallTool requests a single tool invocation.
func CallTool(name string, args map[string]any) Step {
	return CallTools(tool.ToolCall{Name: name, Args: args})
}

// CallTools requests several tool invocations in one response. Missing
// call IDs are filled in.
func CallTools(calls ...tool.ToolCall) Step {
	return func(req *model.Request) (*model.Response, error) {
		out := make([]tool.ToolCall, len(calls))
		for i, c := range calls {
			if c.ID == "" {
				c.ID = fmt.Sprintf("call_%d_%d", len(req.Messages), i)
			}
			out[i] = c
		}
		return &model.Response{
			Content:      &model.Content{Role: a2a.MessageRoleAgent},
			ToolCalls:    out,
			FinishReason: model.FinishReasonToolCalls,
		}, nil
	}
}

// Fail makes the call fail with err.
func Fail(err error) Step {
	return func(*model.Request) (*model.Response, error) {
		return nil, err
	}
}

// TextResponse builds a final text response.
func TextResponse(text string) *model.Response {
	return &model.Response{
		Content: &model.Content{
			Parts: []a2a.Part{a2a.TextPart{Text: text}},
			Role:  a2a.MessageRoleAgent,
		},
		FinishReason: model.FinishReasonStop,
	}
}

// LastToolResults returns the tool results carried by the last message of
// req, if any.
func LastToolResults(req *model.Request) []model.ToolResult {
	if req == nil || len(req.Messages) == 0 {
		return nil
	}
	var results []model.ToolResult
	for _, part := range req.Messages[len(req.Messages)-1].Parts {
		if r, ok := model.AsToolResult(part); ok {
			results = append(results, r)
		}
	}
	return results
}

var _ model.LLM = (*LLM)(nil)
