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
)

// SequentialConfig defines the configuration for a SequentialAgent.
type SequentialConfig struct {
	// Name is the agent name.
	Name string

	// Description describes what the agent does.
	Description string

	// SubAgents are the agents to run in sequence.
	SubAgents []agent.Agent
}

// NewSequential creates a SequentialAgent.
func NewSequential(cfg SequentialConfig) (agent.Agent, error) {
	return agent.New(agent.Config{
		Name:        cfg.Name,
		Description: cfg.Description,
		SubAgents:   cfg.SubAgents,
		Run: func(ctx agent.InvocationContext) iter.Seq2[*agent.Event, error] {
			return runSequential(ctx, ctx.LoopSignal())
		},
	})
}

// runSequential runs the current agent's children in order. Children see
// signal as their enclosing loop signal.
func runSequential(ctx agent.InvocationContext, signal *agent.LoopSignal) iter.Seq2[*agent.Event, error] {
	return func(yield func(*agent.Event, error) bool) {
		name := ctx.Agent().Name()
		for _, sub := range ctx.Agent().SubAgents() {
			if ctx.Ended() {
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, fmt.Errorf("%s: %w", name, err))
				return
			}

			slog.Debug("Running sub-agent", "agent", name, "sub_agent", sub.Name())
			if err := forward(childContext(ctx, sub, signal), sub, yield); err != nil {
				if !errors.Is(err, errStopped) {
					yield(nil, fmt.Errorf("%s: %w", name, err))
				}
				return
			}
		}
	}
}
