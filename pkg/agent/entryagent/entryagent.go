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

// Package entryagent provides the root agent of a run: it captures the
// caller's message as the topic, publishes it to state and hands control to
// a single sub-workflow.
//
// Example:
//
//	clerk, _ := entryagent.New(entryagent.Config{
//	    Name:     "court_clerk",
//	    TopicKey: "TOPIC",
//	    Derived: map[string]entryagent.DeriveFunc{
//	        "verdict_filename": court.VerdictFilename,
//	    },
//	    Workflow: historicalCourt,
//	})
package entryagent

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/model"
)

// DefaultTopicKey is the state field the topic is written to.
const DefaultTopicKey = "TOPIC"

// DefaultGreeting is shown when no topic was given and no greeter model is
// configured.
const DefaultGreeting = "Welcome to the historical court. Which historical topic or figure should be put on trial?"

// ErrNoTopic is returned when the caller's message is empty.
var ErrNoTopic = errors.New("no topic given")

// DeriveFunc computes a state field from the topic.
type DeriveFunc func(topic string) string

// Config configures the entry agent.
type Config struct {
	// Name is the agent name.
	Name string

	// Description describes what the agent does.
	Description string

	// TopicKey is the state field receiving the topic.
	// Default: "TOPIC"
	TopicKey string

	// Derived fields are written next to the topic before the workflow
	// starts, so instructions can reference them.
	Derived map[string]DeriveFunc

	// Workflow runs once the topic is recorded. Required.
	Workflow agent.Agent

	// Greeter produces the greeting when the topic is empty. Optional.
	Greeter model.LLM

	// GreetingInstruction is the system instruction sent to Greeter.
	GreetingInstruction string

	// GenerateConfig applies to the greeting call.
	GenerateConfig *model.GenerateConfig
}

type entryAgent struct {
	cfg Config
}

// New creates the entry agent.
func New(cfg Config) (agent.Agent, error) {
	if cfg.Workflow == nil {
		return nil, fmt.Errorf("entry agent %q: workflow is required", cfg.Name)
	}
	if cfg.TopicKey == "" {
		cfg.TopicKey = DefaultTopicKey
	}
	if _, clash := cfg.Derived[cfg.TopicKey]; clash {
		return nil, fmt.Errorf("entry agent %q: derived field %q shadows the topic", cfg.Name, cfg.TopicKey)
	}

	e := &entryAgent{cfg: cfg}
	return agent.New(agent.Config{
		Name:        cfg.Name,
		Description: cfg.Description,
		SubAgents:   []agent.Agent{cfg.Workflow},
		Run:         e.run,
	})
}

func (e *entryAgent) run(ctx agent.InvocationContext) iter.Seq2[*agent.Event, error] {
	return func(yield func(*agent.Event, error) bool) {
		name := ctx.Agent().Name()
		topic := strings.TrimSpace(ctx.UserContent().Text())

		if topic == "" {
			ev, err := e.greet(ctx)
			if err != nil {
				yield(nil, &agent.RunError{Agent: name, Err: err})
				return
			}
			if !yield(ev, nil) {
				return
			}
			yield(nil, &agent.RunError{Agent: name, Err: ErrNoTopic})
			return
		}

		ev, err := e.recordTopic(ctx, topic)
		if err != nil {
			yield(nil, &agent.RunError{Agent: name, Err: err})
			return
		}
		if !yield(ev, nil) {
			return
		}

		sub := e.cfg.Workflow
		slog.Debug("Handing off to workflow", "agent", name, "workflow", sub.Name(), "topic", topic)
		subCtx := agent.NewInvocationContext(ctx, agent.ChildParams(ctx, sub))
		for ev, err := range sub.Run(subCtx) {
			if err != nil {
				yield(nil, fmt.Errorf("%s: %w", name, err))
				return
			}
			if ev == nil {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// recordTopic writes the topic and the derived fields to state.
func (e *entryAgent) recordTopic(ctx agent.InvocationContext, topic string) (*agent.Event, error) {
	ev := agent.NewEvent(ctx.InvocationID())
	ev.Author = ctx.Agent().Name()
	ev.Branch = ctx.Branch()
	ev.Message = a2a.NewMessage(a2a.MessageRoleAgent,
		a2a.TextPart{Text: fmt.Sprintf("The court will now examine: %s", topic)})

	if err := ctx.State().Set(e.cfg.TopicKey, topic); err != nil {
		return nil, fmt.Errorf("set %s: %w", e.cfg.TopicKey, err)
	}
	ev.Actions.StateDelta[e.cfg.TopicKey] = topic

	for _, key := range slices.Sorted(maps.Keys(e.cfg.Derived)) {
		val := e.cfg.Derived[key](topic)
		if err := ctx.State().Set(key, val); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
		ev.Actions.StateDelta[key] = val
	}
	return ev, nil
}

func (e *entryAgent) greet(ctx agent.InvocationContext) (*agent.Event, error) {
	text := DefaultGreeting
	if e.cfg.Greeter != nil {
		resp, err := e.cfg.Greeter.GenerateContent(ctx, &model.Request{
			SystemInstruction: e.cfg.GreetingInstruction,
			Messages:          []*a2a.Message{a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: "Hello."})},
			Config:            e.cfg.GenerateConfig.Clone(),
		})
		if err != nil {
			return nil, fmt.Errorf("greeting failed: %w", err)
		}
		if t := strings.TrimSpace(resp.TextContent()); t != "" {
			text = t
		}
	}

	ev := agent.NewEvent(ctx.InvocationID())
	ev.Author = ctx.Agent().Name()
	ev.Branch = ctx.Branch()
	ev.Message = a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: text})
	ev.TurnComplete = true
	return ev, nil
}
