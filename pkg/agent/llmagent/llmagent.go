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

// Package llmagent provides the model-backed leaf agent.
//
// An LLM agent renders its instruction from run state, calls its model and
// executes the tools the model asks for, feeding results back until the
// model answers without tool requests. Tool misuse (unknown tool, malformed
// arguments) is reported back to the model as a failed tool result; any
// other tool error, and any model error that survives the model's own
// retry policy, fails the agent's step with an *agent.RunError.
//
// # Usage
//
//	judge, err := llmagent.New(llmagent.Config{
//	    Name:        "judge",
//	    Model:       llm,
//	    Instruction: "Topic: { TOPIC? }\nEvidence for: { pos_data? }",
//	    Tools:       []tool.CallableTool{controltool.ExitLoop(), statetool.AppendToState()},
//	})
package llmagent

import (
	"errors"
	"fmt"
	"iter"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/instruction"
	"github.com/kadirpekel/tribunal/pkg/model"
	"github.com/kadirpekel/tribunal/pkg/observability"
	"github.com/kadirpekel/tribunal/pkg/tool"
)

// DefaultMaxSteps bounds the model calls of one run.
const DefaultMaxSteps = 100

// ErrMaxStepsExceeded is returned when the model keeps requesting tools
// past the configured step limit.
var ErrMaxStepsExceeded = errors.New("tool-call step limit exceeded")

// Config contains the configuration for an LLM agent.
type Config struct {
	// Name must be unique within the agent tree.
	Name string

	// Description is informational.
	Description string

	// Model is the LLM to use for generation.
	Model model.LLM

	// Instruction guides the agent's behavior. Placeholders such as
	// { TOPIC? } are resolved from state before every model call.
	Instruction string

	// GenerateConfig contains LLM generation settings.
	GenerateConfig *model.GenerateConfig

	// Tools available to the agent. Names must be unique.
	Tools []tool.CallableTool

	// OutputKey saves the agent's final text to this state field.
	OutputKey string

	// MaxSteps is a safety limit on model calls per run.
	// Default: 100
	MaxSteps int

	// BeforeModelCallbacks run before each LLM call.
	BeforeModelCallbacks []BeforeModelCallback

	// AfterModelCallbacks run after each LLM call.
	AfterModelCallbacks []AfterModelCallback

	// Metrics records run, model and tool telemetry. Nil disables it.
	Metrics observability.Metrics

	// Tracer wraps runs, model calls and tool calls in spans. Nil disables it.
	Tracer *observability.Tracer
}

// BeforeModelCallback runs before an LLM call.
// Return non-nil Response to skip the actual LLM call.
type BeforeModelCallback func(ctx agent.CallbackContext, req *model.Request) (*model.Response, error)

// AfterModelCallback runs after an LLM call.
// Return non-nil Response to replace the LLM response.
type AfterModelCallback func(ctx agent.CallbackContext, resp *model.Response, err error) (*model.Response, error)

// llmAgent implements agent.Agent with LLM capabilities.
type llmAgent struct {
	agent.Agent

	model          model.LLM
	instruction    *instruction.Template
	generateConfig *model.GenerateConfig
	tools          *tool.Registry
	outputKey      string
	maxSteps       int

	beforeModelCallbacks []BeforeModelCallback
	afterModelCallbacks  []AfterModelCallback

	metrics observability.Metrics
	tracer  *observability.Tracer
}

// New creates a new LLM-based agent.
func New(cfg Config) (agent.Agent, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("agent %q: model is required", cfg.Name)
	}

	registry, err := tool.NewRegistry(cfg.Tools...)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", cfg.Name, err)
	}

	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observability.NoopTracer()
	}

	a := &llmAgent{
		model:                cfg.Model,
		instruction:          instruction.New(cfg.Instruction),
		generateConfig:       cfg.GenerateConfig,
		tools:                registry,
		outputKey:            cfg.OutputKey,
		maxSteps:             maxSteps,
		beforeModelCallbacks: cfg.BeforeModelCallbacks,
		afterModelCallbacks:  cfg.AfterModelCallbacks,
		metrics:              observability.OrNoop(cfg.Metrics),
		tracer:               tracer,
	}

	baseAgent, err := agent.New(agent.Config{
		Name:        cfg.Name,
		Description: cfg.Description,
		Run:         a.run,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create base agent: %w", err)
	}

	a.Agent = baseAgent
	return a, nil
}

func (a *llmAgent) run(ctx agent.InvocationContext) iter.Seq2[*agent.Event, error] {
	return newFlow(a).Run(ctx)
}
