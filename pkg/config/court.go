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

package config

import "fmt"

// Limit policies for the trial loop.
const (
	LimitPolicyAccept = "accept"
	LimitPolicyFlag   = "flag"
	LimitPolicyFail   = "fail"
)

// CourtConfig configures the historical court workflow.
//
// Example:
//
//	court:
//	  max_iterations: 4
//	  output_dir: historical_verdicts
//	  limit_policy: flag
//	  wikipedia:
//	    enabled: true
type CourtConfig struct {
	// MaxIterations bounds the investigate-and-judge loop.
	// Default: 4
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// OutputDir is the directory the verdict is written to, relative to
	// the working directory.
	// Default: historical_verdicts
	OutputDir string `yaml:"output_dir,omitempty"`

	// LimitPolicy decides what happens when the judge never closes the
	// investigation: accept, flag or fail.
	// Default: accept
	LimitPolicy string `yaml:"limit_policy,omitempty"`

	// FlagKey is the state field set to "true" under the flag policy.
	// Default: loop_exhausted
	FlagKey string `yaml:"flag_key,omitempty"`

	// InvestigatorTemperature applies to the admirer, critic and writer.
	// Default: 0.2
	InvestigatorTemperature *float64 `yaml:"investigator_temperature,omitempty"`

	// JudgeTemperature applies to the judge and the clerk.
	// Default: 0
	JudgeTemperature *float64 `yaml:"judge_temperature,omitempty"`

	// Wikipedia configures the investigators' search tool.
	Wikipedia WikipediaConfig `yaml:"wikipedia,omitempty"`
}

// WikipediaConfig configures the wikipedia tool.
type WikipediaConfig struct {
	// Enabled gives the investigators the wikipedia tool.
	// Default: true
	Enabled *bool `yaml:"enabled,omitempty"`

	// BaseURL is the MediaWiki API endpoint.
	// Default: https://en.wikipedia.org/w/api.php
	BaseURL string `yaml:"base_url,omitempty"`

	// MaxResults bounds the pages summarised per search.
	// Default: 3
	MaxResults int `yaml:"max_results,omitempty"`
}

// SetDefaults applies default values to CourtConfig.
func (c *CourtConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 4
	}
	if c.OutputDir == "" {
		c.OutputDir = "historical_verdicts"
	}
	if c.LimitPolicy == "" {
		c.LimitPolicy = LimitPolicyAccept
	}
	if c.FlagKey == "" {
		c.FlagKey = "loop_exhausted"
	}
	if c.InvestigatorTemperature == nil {
		c.InvestigatorTemperature = ptr(0.2)
	}
	if c.JudgeTemperature == nil {
		c.JudgeTemperature = ptr(0.0)
	}
	c.Wikipedia.SetDefaults()
}

// Validate checks the court configuration.
func (c *CourtConfig) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1")
	}
	switch c.LimitPolicy {
	case LimitPolicyAccept, LimitPolicyFlag, LimitPolicyFail:
	default:
		return fmt.Errorf("invalid limit_policy %q (valid: accept, flag, fail)", c.LimitPolicy)
	}
	for name, t := range map[string]*float64{
		"investigator_temperature": c.InvestigatorTemperature,
		"judge_temperature":        c.JudgeTemperature,
	} {
		if t != nil && (*t < 0 || *t > 2) {
			return fmt.Errorf("%s must be between 0 and 2", name)
		}
	}
	return nil
}

// SetDefaults applies default values to WikipediaConfig.
func (c *WikipediaConfig) SetDefaults() {
	if c.Enabled == nil {
		c.Enabled = ptr(true)
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://en.wikipedia.org/w/api.php"
	}
	if c.MaxResults == 0 {
		c.MaxResults = 3
	}
}

// IsEnabled reports whether the tool is on.
func (c *WikipediaConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func ptr[T any](v T) *T {
	return &v
}
