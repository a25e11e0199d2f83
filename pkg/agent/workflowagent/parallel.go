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

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/tribunal/pkg/agent"
)

// ParallelConfig defines the configuration for a ParallelAgent.
type ParallelConfig struct {
	// Name is the agent name.
	Name string

	// Description describes what the agent does.
	Description string

	// SubAgents are the agents to run in parallel.
	SubAgents []agent.Agent
}

// NewParallel creates a ParallelAgent.
//
// All sub-agents start at once and share the session state. Events are
// forwarded in arrival order. When children fail, the others still run to
// completion and the failures are joined into one error naming each child.
func NewParallel(cfg ParallelConfig) (agent.Agent, error) {
	return agent.New(agent.Config{
		Name:        cfg.Name,
		Description: cfg.Description,
		SubAgents:   cfg.SubAgents,
		Run:         runParallel,
	})
}

// result holds an event from a sub-agent.
type result struct {
	event *agent.Event
}

func runParallel(ctx agent.InvocationContext) iter.Seq2[*agent.Event, error] {
	return func(yield func(*agent.Event, error) bool) {
		var (
			// A plain group: one child's failure must not cancel the others.
			group   errgroup.Group
			subs    = ctx.Agent().SubAgents()
			errs    = make([]error, len(subs))
			done    = make(chan struct{})
			results = make(chan result)
			name    = ctx.Agent().Name()
		)

		slog.Debug("Starting parallel sub-agents", "agent", name, "count", len(subs))
		for i, sub := range subs {
			subCtx := childContext(ctx, sub, ctx.LoopSignal())
			group.Go(func() error {
				if err := runSubAgent(subCtx, sub, results, done); err != nil {
					errs[i] = fmt.Errorf("%s: %w", sub.Name(), err)
					return errs[i]
				}
				return nil
			})
		}

		go func() {
			_ = group.Wait()
			close(results)
		}()

		stopped := false
		for res := range results {
			if stopped {
				continue
			}
			if !yield(res.event, nil) {
				stopped = true
				close(done)
			}
		}
		if stopped {
			return
		}

		if err := errors.Join(errs...); err != nil {
			yield(nil, fmt.Errorf("%s: %w", name, err))
		}
	}
}

func runSubAgent(ctx agent.InvocationContext, ag agent.Agent, results chan<- result, done <-chan struct{}) error {
	for event, err := range ag.Run(ctx) {
		if err != nil {
			return err
		}
		if event == nil {
			continue
		}
		select {
		case <-done:
			return nil
		case results <- result{event: event}:
		}
	}
	return nil
}
