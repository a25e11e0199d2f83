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

package agent

import (
	"fmt"
	"iter"
)

// Agent is a node in a workflow tree.
type Agent interface {
	// Name is unique within a tree.
	Name() string

	// Description tells humans and models what the agent does.
	Description() string

	// Run executes the agent and yields the events it produces.
	// A non-nil error ends the agent's run as failed.
	Run(InvocationContext) iter.Seq2[*Event, error]

	// SubAgents returns the agent's children in declaration order.
	SubAgents() []Agent
}

// RunFunc is the body of an agent built with New.
type RunFunc func(InvocationContext) iter.Seq2[*Event, error]

// Config configures an agent built with New.
type Config struct {
	Name        string
	Description string
	SubAgents   []Agent
	Run         RunFunc
}

// New builds an Agent from a Config.
func New(cfg Config) (Agent, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if cfg.Run == nil {
		return nil, fmt.Errorf("agent %q: run function is required", cfg.Name)
	}

	seen := make(map[string]bool, len(cfg.SubAgents))
	for _, sub := range cfg.SubAgents {
		if sub == nil {
			return nil, fmt.Errorf("agent %q: nil sub-agent", cfg.Name)
		}
		if seen[sub.Name()] {
			return nil, fmt.Errorf("agent %q: duplicate sub-agent %q", cfg.Name, sub.Name())
		}
		seen[sub.Name()] = true
	}

	return &baseAgent{
		name:        cfg.Name,
		description: cfg.Description,
		subAgents:   cfg.SubAgents,
		run:         cfg.Run,
	}, nil
}

type baseAgent struct {
	name        string
	description string
	subAgents   []Agent
	run         RunFunc
}

func (a *baseAgent) Name() string        { return a.name }
func (a *baseAgent) Description() string { return a.description }
func (a *baseAgent) SubAgents() []Agent  { return a.subAgents }

func (a *baseAgent) Run(ctx InvocationContext) iter.Seq2[*Event, error] {
	return a.run(ctx)
}

// Walk visits root and all of its descendants depth-first.
// Returning false from fn stops the walk.
func Walk(root Agent, fn func(Agent) bool) bool {
	if root == nil {
		return true
	}
	if !fn(root) {
		return false
	}
	for _, sub := range root.SubAgents() {
		if !Walk(sub, fn) {
			return false
		}
	}
	return true
}

// FindAgent returns the agent named name in the tree rooted at root, or nil.
func FindAgent(root Agent, name string) Agent {
	var found Agent
	Walk(root, func(a Agent) bool {
		if a.Name() == name {
			found = a
			return false
		}
		return true
	})
	return found
}

// BuildParentMap maps every agent name in the tree to its parent.
// Names must be unique across the whole tree.
func BuildParentMap(root Agent) (map[string]Agent, error) {
	parents := make(map[string]Agent)
	seen := map[string]bool{root.Name(): true}

	var visit func(parent Agent) error
	visit = func(parent Agent) error {
		for _, sub := range parent.SubAgents() {
			if seen[sub.Name()] {
				return fmt.Errorf("duplicate agent name %q in tree", sub.Name())
			}
			seen[sub.Name()] = true
			parents[sub.Name()] = parent
			if err := visit(sub); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return parents, nil
}
