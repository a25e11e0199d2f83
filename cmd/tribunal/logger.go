package main

import (
	"os"

	"github.com/kadirpekel/tribunal/pkg/config"
	"github.com/kadirpekel/tribunal/pkg/logger"
)

const (
	// LogLevelEnvVar is the environment variable name for log level
	LogLevelEnvVar = "LOG_LEVEL"
	// LogFileEnvVar is the environment variable name for log file path
	LogFileEnvVar = "LOG_FILE"
	// LogFormatEnvVar is the environment variable name for log format
	LogFormatEnvVar = "LOG_FORMAT"
)

// setupLogger installs the logger.
// Priority: CLI flags > env vars > config file > defaults
func setupLogger(cli *CLI, cfg config.LoggerConfig) (func(), error) {
	cfg.SetDefaults()
	cfg = config.LoggerConfig{
		Level:  firstNonEmpty(cli.LogLevel, os.Getenv(LogLevelEnvVar), cfg.Level),
		File:   firstNonEmpty(cli.LogFile, os.Getenv(LogFileEnvVar), cfg.File),
		Format: firstNonEmpty(cli.LogFormat, os.Getenv(LogFormatEnvVar), cfg.Format),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return logger.Setup(cfg.Level, cfg.File, cfg.Format)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
