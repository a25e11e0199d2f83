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

package llmagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/model"
	"github.com/kadirpekel/tribunal/pkg/observability"
	"github.com/kadirpekel/tribunal/pkg/tool"
)

// defaultPrompt opens the conversation when the run carries no user content.
const defaultPrompt = "Proceed with your instructions."

// flow is one run of the model/tool loop. The conversation is local to
// the run; agents exchange information through state, not history.
type flow struct {
	agent    *llmAgent
	messages []*a2a.Message
}

func newFlow(a *llmAgent) *flow {
	return &flow{agent: a}
}

// Run executes the loop until the model gives a final response, a tool
// ends the turn, or a step fails.
func (f *flow) Run(ctx agent.InvocationContext) iter.Seq2[*agent.Event, error] {
	return func(yield func(*agent.Event, error) bool) {
		a := f.agent
		start := time.Now()
		spanCtx, span := a.tracer.StartAgentRun(ctx, a.Name(), ctx.Branch(), ctx.InvocationID())

		var runErr error
		defer func() {
			a.metrics.RecordAgentRun(spanCtx, a.Name(), time.Since(start), runErr)
			observability.RecordError(span, runErr)
			span.End()
		}()
		fail := func(err error) {
			runErr = err
			yield(nil, err)
		}

		f.messages = []*a2a.Message{initialMessage(ctx)}

		for step := 0; step < a.maxSteps; step++ {
			if err := ctx.Err(); err != nil {
				fail(&agent.RunError{Agent: a.Name(), Err: err})
				return
			}
			if ctx.Ended() {
				return
			}

			done, err := f.runOneStep(ctx, spanCtx, yield)
			if err != nil {
				fail(err)
				return
			}
			if done {
				return
			}
		}

		fail(&agent.RunError{Agent: a.Name(), Err: fmt.Errorf("%w (%d)", ErrMaxStepsExceeded, a.maxSteps)})
	}
}

// runOneStep performs one model call and executes the tools it requested.
// done reports that the turn is over; a stopped consumer also ends it.
func (f *flow) runOneStep(ctx agent.InvocationContext, spanCtx context.Context, yield func(*agent.Event, error) bool) (done bool, err error) {
	a := f.agent

	systemInstruction, err := a.instruction.Render(ctx)
	if err != nil {
		return true, &agent.RunError{Agent: a.Name(), Err: fmt.Errorf("render instruction: %w", err)}
	}

	req := &model.Request{
		Messages:          append([]*a2a.Message(nil), f.messages...),
		Tools:             a.tools.Definitions(),
		Config:            a.generateConfig.Clone(),
		SystemInstruction: systemInstruction,
	}

	resp, err := f.callLLMWithCallbacks(ctx, spanCtx, req)
	if err != nil {
		return true, &agent.RunError{Agent: a.Name(), Err: err}
	}
	if resp == nil {
		resp = &model.Response{FinishReason: model.FinishReasonStop}
	}
	populateFunctionCallIDs(resp)

	modelEvent := f.buildModelResponseEvent(ctx, resp)
	f.messages = append(f.messages, modelEvent.Message)

	if !resp.HasToolCalls() {
		if a.outputKey != "" {
			text := resp.TextContent()
			if err := ctx.State().Set(a.outputKey, text); err != nil {
				return true, &agent.RunError{Agent: a.Name(), Err: fmt.Errorf("save output: %w", err)}
			}
			modelEvent.Actions.StateDelta[a.outputKey] = text
		}
		yield(modelEvent, nil)
		return true, nil
	}

	if !yield(modelEvent, nil) {
		return true, nil
	}

	toolEvent, err := f.handleToolCalls(ctx, spanCtx, resp)
	if err != nil {
		return true, err
	}
	f.messages = append(f.messages, toolEvent.Message)
	if !yield(toolEvent, nil) {
		return true, nil
	}

	// A tool such as exit_loop ends the turn without another model call.
	return toolEvent.Actions.SkipSummarization, nil
}

// callLLMWithCallbacks handles before/after callbacks and the LLM call.
func (f *flow) callLLMWithCallbacks(ctx agent.InvocationContext, spanCtx context.Context, req *model.Request) (*model.Response, error) {
	a := f.agent

	for _, cb := range a.beforeModelCallbacks {
		resp, err := cb(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("before-model callback failed: %w", err)
		}
		if resp != nil {
			return resp, nil
		}
	}

	llmCtx, span := a.tracer.StartLLMCall(spanCtx, a.Name(), a.model.Name())
	start := time.Now()
	resp, llmErr := a.model.GenerateContent(llmCtx, req)

	var in, out int
	if resp != nil && resp.Usage != nil {
		in, out = resp.Usage.PromptTokens, resp.Usage.CompletionTokens
		observability.AddLLMUsage(span, in, out)
	}
	a.metrics.RecordLLMCall(llmCtx, a.model.Name(), time.Since(start), in, out, llmErr)
	observability.RecordError(span, llmErr)
	span.End()

	for _, cb := range a.afterModelCallbacks {
		cbResp, err := cb(ctx, resp, llmErr)
		if err != nil {
			return nil, fmt.Errorf("after-model callback failed: %w", err)
		}
		if cbResp != nil {
			resp, llmErr = cbResp, nil
			break
		}
	}

	if llmErr != nil {
		return nil, fmt.Errorf("model call failed: %w", llmErr)
	}
	return resp, nil
}

// buildModelResponseEvent creates an event from an LLM response.
func (f *flow) buildModelResponseEvent(ctx agent.InvocationContext, resp *model.Response) *agent.Event {
	event := agent.NewEvent(ctx.InvocationID())
	event.Author = f.agent.Name()
	event.Branch = ctx.Branch()
	event.Message = resp.ToMessage()
	event.TurnComplete = !resp.HasToolCalls()

	for _, tc := range resp.ToolCalls {
		event.ToolCalls = append(event.ToolCalls, agent.ToolCallState{
			ID:   tc.ID,
			Name: tc.Name,
			Args: tc.Args,
		})
	}
	if resp.FinishReason != "" {
		event.CustomMetadata = map[string]any{"finish_reason": string(resp.FinishReason)}
	}
	return event
}

// handleToolCalls executes tool calls in order and returns the merged
// tool response event.
func (f *flow) handleToolCalls(ctx agent.InvocationContext, spanCtx context.Context, resp *model.Response) (*agent.Event, error) {
	a := f.agent

	var resultParts []a2a.Part
	var results []agent.ToolResultState
	merged := &agent.EventActions{StateDelta: make(map[string]any)}

	for _, tc := range resp.ToolCalls {
		var content string
		var isError bool

		t, lookupErr := a.tools.Lookup(tc.Name)
		if lookupErr != nil {
			content, isError = misuse(a.Name(), tc, lookupErr), true
		} else {
			toolCtx := tool.NewContext(ctx, tc.ID)
			result, err := f.callTool(spanCtx, t, tc, toolCtx)
			switch {
			case errors.Is(err, tool.ErrInvalidArgs):
				content, isError = misuse(a.Name(), tc, err), true
			case err != nil:
				return nil, &agent.RunError{Agent: a.Name(), Tool: tc.Name, Err: err}
			default:
				content = formatToolResult(result)
				mergeEventActions(merged, toolCtx.Actions())
			}
		}

		results = append(results, agent.ToolResultState{
			ToolCallID: tc.ID,
			Name:       tc.Name,
			Content:    content,
			IsError:    isError,
		})
		resultParts = append(resultParts, model.ToolResultPart(model.ToolResult{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Content:    content,
			IsError:    isError,
		}))
	}

	event := agent.NewEvent(ctx.InvocationID())
	event.Author = a.Name()
	event.Branch = ctx.Branch()
	event.ToolResults = results
	event.Message = a2a.NewMessage(a2a.MessageRoleUser, resultParts...)
	event.Actions = *merged
	event.TurnComplete = merged.SkipSummarization
	return event, nil
}

// callTool executes a tool with tracing and metrics.
func (f *flow) callTool(spanCtx context.Context, t tool.CallableTool, tc tool.ToolCall, toolCtx tool.Context) (map[string]any, error) {
	a := f.agent
	traceCtx, span := a.tracer.StartToolExecution(spanCtx, a.Name(), t.Name(), tc.ID)
	defer span.End()

	start := time.Now()
	args := tc.Args
	if args == nil {
		args = map[string]any{}
	}
	result, err := t.Call(toolCtx, args)
	a.metrics.RecordToolCall(traceCtx, t.Name(), time.Since(start), err)
	observability.RecordError(span, err)

	slog.Debug("Tool executed",
		"agent", a.Name(),
		"tool", t.Name(),
		"call_id", tc.ID,
		"error", err)
	return result, err
}

// misuse logs a rejected tool call and renders the error for the model.
func misuse(agentName string, tc tool.ToolCall, err error) string {
	slog.Warn("Tool call rejected",
		"agent", agentName,
		"tool", tc.Name,
		"call_id", tc.ID,
		"error", err)
	return fmt.Sprintf("Error: %v", err)
}

func initialMessage(ctx agent.InvocationContext) *a2a.Message {
	if uc := ctx.UserContent(); uc != nil && strings.TrimSpace(uc.Text()) != "" {
		return a2a.NewMessage(a2a.MessageRoleUser, uc.Parts...)
	}
	return a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: defaultPrompt})
}

// formatToolResult renders a tool result map for the model.
func formatToolResult(result map[string]any) string {
	if result == nil {
		return "{}"
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}

// mergeEventActions merges actions from tool execution.
func mergeEventActions(base, other *agent.EventActions) {
	if other == nil {
		return
	}
	if other.SkipSummarization {
		base.SkipSummarization = true
	}
	if other.Escalate {
		base.Escalate = true
	}
	for k, v := range other.StateDelta {
		base.StateDelta[k] = v
	}
}

// clientFunctionCallIDPrefix marks function call IDs generated locally.
const clientFunctionCallIDPrefix = "tribunal-"

// populateFunctionCallIDs ensures all tool calls have IDs so results can
// be matched to calls.
func populateFunctionCallIDs(resp *model.Response) {
	for i := range resp.ToolCalls {
		if resp.ToolCalls[i].ID == "" {
			resp.ToolCalls[i].ID = clientFunctionCallIDPrefix + uuid.NewString()
		}
	}
}
