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

import (
	"fmt"
	"os"
	"time"
)

// Model providers.
const (
	ProviderGemini   = "gemini"
	ProviderScripted = "scripted"
)

// DefaultModelName is used when neither the config nor $MODEL names one.
const DefaultModelName = "gemini-2.5-flash"

// ModelConfig configures the LLM.
//
// Example:
//
//	model:
//	  provider: gemini
//	  name: ${MODEL}
//	  api_key: ${GOOGLE_API_KEY}
//	  retry:
//	    attempts: 6
//	    initial_delay: 1s
type ModelConfig struct {
	// Provider is "gemini" or "scripted". The scripted provider replays a
	// canned court session and needs no network access.
	// Default: gemini
	Provider string `yaml:"provider,omitempty"`

	// Name is the model identifier.
	// Default: $MODEL, then gemini-2.5-flash
	Name string `yaml:"name,omitempty"`

	// APIKey authenticates against the provider.
	// Default: $GOOGLE_API_KEY, then $GEMINI_API_KEY
	APIKey string `yaml:"api_key,omitempty"`

	// MaxTokens limits the response length. Zero leaves it to the model.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Retry bounds retries of failed model calls.
	Retry RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig configures model call retries.
type RetryConfig struct {
	// Attempts is the total number of calls, including the first.
	// Default: 6
	Attempts int `yaml:"attempts,omitempty"`

	// InitialDelay is the wait before the first retry; later waits double.
	// Default: 1s
	InitialDelay time.Duration `yaml:"initial_delay,omitempty"`

	// MaxDelay caps the wait between attempts.
	// Default: 30s
	MaxDelay time.Duration `yaml:"max_delay,omitempty"`
}

// SetDefaults applies default values to ModelConfig.
func (c *ModelConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	if c.Name == "" {
		c.Name = os.Getenv("MODEL")
	}
	if c.Name == "" {
		c.Name = DefaultModelName
	}
	if c.APIKey == "" {
		c.APIKey = GetProviderAPIKey(c.Provider)
	}
	c.Retry.SetDefaults()
}

// Validate checks the model configuration.
func (c *ModelConfig) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("api_key is required for provider %q (set GOOGLE_API_KEY)", c.Provider)
		}
	case ProviderScripted:
	default:
		return fmt.Errorf("invalid provider %q (valid: %s, %s)", c.Provider, ProviderGemini, ProviderScripted)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	return c.Retry.Validate()
}

// SetDefaults applies default values to RetryConfig.
func (c *RetryConfig) SetDefaults() {
	if c.Attempts == 0 {
		c.Attempts = 6
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = time.Second
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 30 * time.Second
	}
}

// Validate checks the retry configuration.
func (c *RetryConfig) Validate() error {
	if c.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1")
	}
	if c.InitialDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	return nil
}
