package app

import (
	"strings"

	"github.com/charlesng35/craftid/pkg/logger"
)

// ConfigureLogging initialises the global logger from the server configuration, defaulting to info.
// Non-production environments use the human readable console encoder.
func ConfigureLogging(server ServerConfig) error {
	level := strings.TrimSpace(server.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.InitWithOptions(logger.Options{
		Level:       level,
		Development: !server.IsProduction(),
	})
}
