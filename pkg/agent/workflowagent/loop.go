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

package workflowagent

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/observability"
)

// LoopState is the lifecycle state of one loop execution.
type LoopState string

const (
	LoopRunning               LoopState = "running"
	LoopExited                LoopState = "exited"
	LoopIterationLimitReached LoopState = "iteration_limit_reached"
)

// LimitPolicy decides what reaching MaxIterations means for the caller.
type LimitPolicy string

const (
	// LimitAccept treats the limit as a normal completion.
	LimitAccept LimitPolicy = "accept"

	// LimitFlag completes normally and sets FlagKey to "true" in state so
	// later agents can tell the loop did not converge.
	LimitFlag LimitPolicy = "flag"

	// LimitFail fails the loop with ErrIterationLimit.
	LimitFail LimitPolicy = "fail"
)

// DefaultFlagKey is the state field written under LimitFlag.
const DefaultFlagKey = "loop_exhausted"

// Metadata keys of the loop's final event.
const (
	MetadataLoopState      = "loop_state"
	MetadataLoopIterations = "loop_iterations"
)

// ErrIterationLimit is returned under LimitFail when the loop runs out of
// iterations without an exit request.
var ErrIterationLimit = errors.New("loop iteration limit reached")

// LoopConfig defines the configuration for a LoopAgent.
type LoopConfig struct {
	// Name is the agent name.
	Name string

	// Description describes what the agent does.
	Description string

	// SubAgents form the body, run in sequence once per iteration.
	SubAgents []agent.Agent

	// MaxIterations bounds the number of body executions. Must be at least 1.
	MaxIterations uint

	// LimitPolicy applies when MaxIterations is reached.
	// Default: LimitAccept
	LimitPolicy LimitPolicy

	// FlagKey is the state field set under LimitFlag.
	// Default: "loop_exhausted"
	FlagKey string

	// Metrics counts iterations. Nil disables it.
	Metrics observability.Metrics
}

// NewLoop creates a LoopAgent.
//
// Every iteration resets the loop's exit signal, runs the sub-agents in
// sequence to completion and then inspects the signal: raised means
// Exited; otherwise the loop either starts the next iteration or, after
// MaxIterations, stops in IterationLimitReached. A failed iteration fails
// the loop.
func NewLoop(cfg LoopConfig) (agent.Agent, error) {
	if cfg.MaxIterations == 0 {
		return nil, fmt.Errorf("loop %q: max iterations must be at least 1", cfg.Name)
	}
	switch cfg.LimitPolicy {
	case "":
		cfg.LimitPolicy = LimitAccept
	case LimitAccept, LimitFlag, LimitFail:
	default:
		return nil, fmt.Errorf("loop %q: invalid limit policy %q (valid: accept, flag, fail)", cfg.Name, cfg.LimitPolicy)
	}
	if cfg.FlagKey == "" {
		cfg.FlagKey = DefaultFlagKey
	}
	metrics := observability.OrNoop(cfg.Metrics)

	return agent.New(agent.Config{
		Name:        cfg.Name,
		Description: cfg.Description,
		SubAgents:   cfg.SubAgents,
		Run: func(ctx agent.InvocationContext) iter.Seq2[*agent.Event, error] {
			return runLoop(ctx, cfg, metrics)
		},
	})
}

func runLoop(ctx agent.InvocationContext, cfg LoopConfig, metrics observability.Metrics) iter.Seq2[*agent.Event, error] {
	return func(yield func(*agent.Event, error) bool) {
		name := ctx.Agent().Name()
		// Each execution owns its signal, so nested loops never see each
		// other's exit requests.
		signal := agent.NewLoopSignal()
		state := LoopRunning
		iteration := 0

		for state == LoopRunning {
			if ctx.Ended() {
				return
			}
			iteration++
			signal.Reset()
			metrics.RecordLoopIteration(ctx, name)
			slog.Debug("Loop iteration started", "agent", name, "iteration", iteration)

			for _, sub := range ctx.Agent().SubAgents() {
				if err := ctx.Err(); err != nil {
					yield(nil, fmt.Errorf("%s: iteration %d: %w", name, iteration, err))
					return
				}
				if err := forward(childContext(ctx, sub, signal), sub, yield); err != nil {
					if !errors.Is(err, errStopped) {
						yield(nil, fmt.Errorf("%s: iteration %d: %w", name, iteration, err))
					}
					return
				}
			}

			switch {
			case signal.Raised():
				state = LoopExited
			case iteration >= int(cfg.MaxIterations):
				state = LoopIterationLimitReached
			}
		}

		slog.Info("Loop finished",
			"agent", name,
			"state", string(state),
			"iterations", iteration)

		event := agent.NewEvent(ctx.InvocationID())
		event.Author = name
		event.Branch = ctx.Branch()
		event.TurnComplete = true
		event.CustomMetadata = map[string]any{
			MetadataLoopState:      string(state),
			MetadataLoopIterations: iteration,
		}

		if state == LoopIterationLimitReached {
			switch cfg.LimitPolicy {
			case LimitFlag:
				if err := ctx.State().Set(cfg.FlagKey, "true"); err != nil {
					yield(nil, fmt.Errorf("%s: set %s: %w", name, cfg.FlagKey, err))
					return
				}
				event.Actions.StateDelta[cfg.FlagKey] = "true"
			case LimitFail:
				if !yield(event, nil) {
					return
				}
				yield(nil, &agent.RunError{Agent: name, Err: fmt.Errorf("%w after %d iterations", ErrIterationLimit, iteration)})
				return
			}
		}

		yield(event, nil)
	}
}

// LoopOutcome extracts the final state and iteration count from a loop's
// final event. ok is false for any other event.
func LoopOutcome(ev *agent.Event) (state LoopState, iterations int, ok bool) {
	if ev == nil || ev.CustomMetadata == nil {
		return "", 0, false
	}
	s, ok := ev.CustomMetadata[MetadataLoopState].(string)
	if !ok {
		return "", 0, false
	}
	iterations, _ = ev.CustomMetadata[MetadataLoopIterations].(int)
	return LoopState(s), iterations, true
}
