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

// Package functiontool creates tools from typed Go functions.
//
// The parameter schema is generated from the Args struct tags, and incoming
// arguments are checked against it before the function runs. Missing
// required fields, unknown fields and values of the wrong type are reported
// as tool.ErrInvalidArgs so the model can correct itself.
//
//	type AppendArgs struct {
//	    Field    string `json:"field" jsonschema:"required,description=State field to append to"`
//	    Response string `json:"response" jsonschema:"required,description=Text to append"`
//	}
//
//	t, err := functiontool.New(
//	    functiontool.Config{Name: "append_to_state", Description: "..."},
//	    func(ctx tool.Context, args AppendArgs) (map[string]any, error) {
//	        ...
//	    },
//	)
package functiontool

import (
	"fmt"

	"github.com/kadirpekel/tribunal/pkg/tool"
)

// Config defines the configuration for a function tool.
type Config struct {
	// Name is the unique identifier for this tool (required).
	Name string

	// Description is shown to the model (required).
	Description string
}

// New creates a CallableTool from a typed function.
func New[Args any](cfg Config, fn func(tool.Context, Args) (map[string]any, error)) (tool.CallableTool, error) {
	return NewWithValidation(cfg, fn, nil)
}

// NewWithValidation creates a CallableTool whose decoded arguments are
// passed through validate before fn runs. A validation error is reported as
// tool misuse.
func NewWithValidation[Args any](
	cfg Config,
	fn func(tool.Context, Args) (map[string]any, error),
	validate func(Args) error,
) (tool.CallableTool, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: function is required", cfg.Name)
	}

	schema, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", cfg.Name, err)
	}

	return &functionTool[Args]{
		config:   cfg,
		fn:       fn,
		validate: validate,
		schema:   schema,
	}, nil
}

type functionTool[Args any] struct {
	config   Config
	fn       func(tool.Context, Args) (map[string]any, error)
	validate func(Args) error
	schema   map[string]any
}

func (t *functionTool[Args]) Name() string           { return t.config.Name }
func (t *functionTool[Args]) Description() string    { return t.config.Description }
func (t *functionTool[Args]) Schema() map[string]any { return t.schema }

// Call decodes args into Args and runs the function.
func (t *functionTool[Args]) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	if missing := missingRequired(t.schema, args); len(missing) > 0 {
		return nil, fmt.Errorf("%w for %s: missing required %v", tool.ErrInvalidArgs, t.config.Name, missing)
	}

	var typedArgs Args
	if err := decodeArgs(args, &typedArgs); err != nil {
		return nil, fmt.Errorf("%w for %s: %v", tool.ErrInvalidArgs, t.config.Name, err)
	}

	if t.validate != nil {
		if err := t.validate(typedArgs); err != nil {
			return nil, fmt.Errorf("%w for %s: %v", tool.ErrInvalidArgs, t.config.Name, err)
		}
	}

	return t.fn(ctx, typedArgs)
}

func validateConfig(cfg Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if cfg.Description == "" {
		return fmt.Errorf("tool description is required")
	}
	return nil
}

var _ tool.CallableTool = (*functionTool[struct{}])(nil)
