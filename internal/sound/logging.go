package sound

import "github.com/tphakala/aliendaw/internal/logger"

// GetLogger returns the sound module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("sound")
}
