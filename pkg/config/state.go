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
	"time"
)

// State backends.
const (
	StateBackendMemory = "memory"
	StateBackendRedis  = "redis"
)

// StateConfig selects where run state lives.
//
// Example:
//
//	state:
//	  backend: redis
//	  redis:
//	    addr: ${REDIS_ADDR:-localhost:6379}
type StateConfig struct {
	// Backend is "memory" or "redis".
	// Default: memory
	Backend string `yaml:"backend,omitempty"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig configures the redis state backend.
type RedisConfig struct {
	// Addr is host:port of the server.
	// Default: localhost:6379
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`

	// Prefix namespaces every key.
	// Default: "tribunal:"
	Prefix string `yaml:"prefix,omitempty"`

	// TTL expires run state after the run. Zero keeps it.
	TTL time.Duration `yaml:"ttl,omitempty"`
}

// SetDefaults applies default values to StateConfig.
func (c *StateConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = StateBackendMemory
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "tribunal:"
	}
}

// Validate checks the state configuration.
func (c *StateConfig) Validate() error {
	switch c.Backend {
	case StateBackendMemory:
	case StateBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("redis.db must not be negative")
		}
	default:
		return fmt.Errorf("invalid backend %q (valid: memory, redis)", c.Backend)
	}
	return nil
}
