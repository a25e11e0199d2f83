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
	"strings"

	"github.com/kadirpekel/tribunal/pkg/logger"
)

// LoggerConfig is the logger section of the config file. CLI flags and the
// LOG_LEVEL, LOG_FILE and LOG_FORMAT environment variables take precedence
// over it.
//
//	logger:
//	  level: debug
//	  file: tribunal.log
//	  format: json
type LoggerConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level,omitempty"`

	// File receives the log instead of stderr.
	File string `yaml:"file,omitempty"`

	// Format is simple, verbose or json.
	Format string `yaml:"format,omitempty"`
}

var logFormats = []string{logger.FormatSimple, logger.FormatVerbose, logger.FormatJSON}

func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = logger.FormatSimple
	}
}

func (c *LoggerConfig) Validate() error {
	if _, err := logger.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", c.Level)
	}
	if c.Format == "" {
		return nil
	}
	for _, f := range logFormats {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid log format %q (valid: %s)", c.Format, strings.Join(logFormats, ", "))
}
