package cmd

import "github.com/tphakala/aliendaw/internal/logger"

// GetLogger returns the CLI logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("cmd")
}
