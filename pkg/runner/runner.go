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

// Package runner executes a workflow tree within a session.
//
// The Runner handles:
//   - Session creation and retrieval
//   - Tree validation (unique agent names)
//   - Event streaming and persistence
//   - Run reports summarizing loop outcomes, written files and final state
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/agent/workflowagent"
	"github.com/kadirpekel/tribunal/pkg/observability"
	"github.com/kadirpekel/tribunal/pkg/session"
)

// Config contains the configuration for creating a Runner.
type Config struct {
	// AppName identifies the application.
	AppName string

	// Agent is the root agent for execution.
	Agent agent.Agent

	// SessionService manages session lifecycle.
	SessionService session.Service

	// Metrics records the root agent's runs. Optional.
	Metrics observability.Metrics

	// Tracer wraps each invocation in a span. Optional.
	Tracer *observability.Tracer
}

// Runner orchestrates agent execution within sessions.
type Runner struct {
	appName        string
	rootAgent      agent.Agent
	sessionService session.Service
	parents        map[string]agent.Agent
	metrics        observability.Metrics
	tracer         *observability.Tracer
}

// New creates a new Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.Agent == nil {
		return nil, fmt.Errorf("root agent is required")
	}
	if cfg.SessionService == nil {
		return nil, fmt.Errorf("session service is required")
	}

	parents, err := agent.BuildParentMap(cfg.Agent)
	if err != nil {
		return nil, fmt.Errorf("failed to build agent tree: %w", err)
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observability.NoopTracer()
	}

	return &Runner{
		appName:        cfg.AppName,
		rootAgent:      cfg.Agent,
		sessionService: cfg.SessionService,
		parents:        parents,
		metrics:        observability.OrNoop(cfg.Metrics),
		tracer:         tracer,
	}, nil
}

// Run executes the root agent for content within the session, yielding
// events. The session is created when it does not exist. Non-partial
// events are persisted before they are yielded.
func (r *Runner) Run(ctx context.Context, userID, sessionID string, content *agent.Content) iter.Seq2[*agent.Event, error] {
	return func(yield func(*agent.Event, error) bool) {
		sess, err := r.getOrCreateSession(ctx, userID, sessionID)
		if err != nil {
			yield(nil, err)
			return
		}
		r.run(ctx, sess, content, yield)
	}
}

func (r *Runner) run(ctx context.Context, sess session.Session, content *agent.Content, yield func(*agent.Event, error) bool) {
	invCtx := agent.NewInvocationContext(ctx, agent.InvocationContextParams{
		Agent:       r.rootAgent,
		Session:     sess,
		UserContent: content,
		Branch:      r.rootAgent.Name(),
	})

	if err := r.appendUserMessage(ctx, sess, content, invCtx.InvocationID()); err != nil {
		yield(nil, err)
		return
	}

	spanCtx, span := r.tracer.Start(ctx, observability.SpanInvocation,
		attribute.String(observability.AttrAgentName, r.rootAgent.Name()),
		attribute.String(observability.AttrInvocationID, invCtx.InvocationID()),
	)
	start := time.Now()
	var runErr error
	defer func() {
		r.metrics.RecordAgentRun(spanCtx, r.rootAgent.Name(), time.Since(start), runErr)
		observability.RecordError(span, runErr)
		span.End()
	}()

	slog.Info("Run started",
		"agent", r.rootAgent.Name(),
		"session_id", sess.ID(),
		"invocation_id", invCtx.InvocationID())

	for event, err := range r.rootAgent.Run(invCtx) {
		if err != nil {
			runErr = err
			yield(nil, err)
			return
		}
		if event == nil {
			continue
		}

		if state, iterations, ok := workflowagent.LoopOutcome(event); ok {
			span.SetAttributes(
				attribute.String(observability.AttrLoopState, string(state)),
				attribute.Int(observability.AttrLoopIteration, iterations),
			)
		}

		if !event.Partial {
			if err := r.sessionService.AppendEvent(ctx, sess, event); err != nil {
				runErr = fmt.Errorf("failed to persist event: %w", err)
				yield(nil, runErr)
				return
			}
		}

		if !yield(event, nil) {
			return
		}
	}
}

// LoopResult is the outcome of one loop agent.
type LoopResult struct {
	State      workflowagent.LoopState
	Iterations int
}

// Report summarizes a finished run.
type Report struct {
	SessionID string

	// Events is the number of events produced.
	Events int

	// Loops holds the last outcome of every loop agent, keyed by name.
	Loops map[string]LoopResult

	// Files lists paths reported by successful tool calls.
	Files []string

	// Reply is the last text produced by an agent.
	Reply string

	// State is a snapshot of the run state when the run ended. After a
	// failure it is kept for diagnostics only.
	State map[string]any

	// FailedAgent and FailedTool identify the failing unit, if any.
	FailedAgent string
	FailedTool  string
}

// Execute runs the root agent to completion in a fresh session and
// summarizes the run. On failure the partial report is returned together
// with the error.
func (r *Runner) Execute(ctx context.Context, userID string, content *agent.Content) (*Report, error) {
	resp, err := r.sessionService.Create(ctx, &session.CreateRequest{
		AppName: r.appName,
		UserID:  userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess := resp.Session

	report := &Report{
		SessionID: sess.ID(),
		Loops:     make(map[string]LoopResult),
	}

	var runErr error
	r.run(ctx, sess, content, func(ev *agent.Event, err error) bool {
		if err != nil {
			runErr = err
			return false
		}
		report.observe(ev)
		return true
	})

	report.State = make(map[string]any)
	for k, v := range sess.State().All() {
		report.State[k] = v
	}

	if runErr != nil {
		report.FailedAgent, report.FailedTool, _ = agent.FailedAgent(runErr)
		slog.Error("Run failed",
			"session_id", sess.ID(),
			"agent", report.FailedAgent,
			"tool", report.FailedTool,
			"error", runErr)
		return report, runErr
	}

	slog.Info("Run finished", "session_id", sess.ID(), "events", report.Events)
	return report, nil
}

func (rep *Report) observe(ev *agent.Event) {
	rep.Events++
	if ev.Author != agent.AuthorUser {
		if text := ev.TextContent(); text != "" {
			rep.Reply = text
		}
	}
	if state, iterations, ok := workflowagent.LoopOutcome(ev); ok {
		rep.Loops[ev.Author] = LoopResult{State: state, Iterations: iterations}
	}
	for _, res := range ev.ToolResults {
		if res.IsError {
			continue
		}
		var payload struct {
			Path string `json:"path"`
		}
		if json.Unmarshal([]byte(res.Content), &payload) == nil && payload.Path != "" {
			rep.Files = append(rep.Files, payload.Path)
		}
	}
}

// FindAgent searches for an agent by name in the runner's agent tree.
func (r *Runner) FindAgent(name string) agent.Agent {
	return agent.FindAgent(r.rootAgent, name)
}

// Parent returns the parent of the named agent, or nil for the root.
func (r *Runner) Parent(name string) agent.Agent {
	return r.parents[name]
}

// RootAgent returns the root agent.
func (r *Runner) RootAgent() agent.Agent {
	return r.rootAgent
}

// AppName returns the application name.
func (r *Runner) AppName() string {
	return r.appName
}

func (r *Runner) getOrCreateSession(ctx context.Context, userID, sessionID string) (session.Session, error) {
	if sessionID != "" {
		resp, err := r.sessionService.Get(ctx, &session.GetRequest{
			AppName:   r.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
		if err == nil && resp != nil {
			return resp.Session, nil
		}
	}

	createResp, err := r.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   r.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return createResp.Session, nil
}

func (r *Runner) appendUserMessage(ctx context.Context, sess session.Session, content *agent.Content, invocationID string) error {
	if content == nil {
		return nil
	}

	event := agent.NewEvent(invocationID)
	event.Author = agent.AuthorUser
	event.Message = content.ToMessage()

	return r.sessionService.AppendEvent(ctx, sess, event)
}
