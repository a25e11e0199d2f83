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

// Package config loads the tribunal configuration.
//
// A configuration file is optional. Values go through the same pipeline
// whether they come from a file or not:
//
//	parse YAML -> expand ${VAR} / ${VAR:-default} -> decode -> SetDefaults -> Validate
//
// CLI flags are applied by the caller after loading and before Validate
// is run again.
package config

import (
	"fmt"

	"github.com/kadirpekel/tribunal/pkg/observability"
)

// Config is the root configuration.
type Config struct {
	// Model selects and configures the model used by every agent.
	Model ModelConfig `yaml:"model,omitempty"`

	// Court configures the historical court workflow.
	Court CourtConfig `yaml:"court,omitempty"`

	// State selects the run state backend.
	State StateConfig `yaml:"state,omitempty"`

	// Observability configures metrics and tracing.
	Observability observability.Config `yaml:"observability,omitempty"`

	// Logger configures logging.
	Logger LoggerConfig `yaml:"logger,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies default values to every section.
func (c *Config) SetDefaults() {
	c.Model.SetDefaults()
	c.Court.SetDefaults()
	c.State.SetDefaults()
	c.Observability.SetDefaults()
	c.Logger.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.Court.Validate(); err != nil {
		return fmt.Errorf("court: %w", err)
	}
	if err := c.State.Validate(); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	return nil
}
