// Package observability wires the Prometheus registry and its HTTP handler.
package observability

import (
	"fmt"

	"github.com/tphakala/aliendaw/internal/logger"
)

func getLogger() logger.Logger {
	return logger.Global().Module("observability")
}

// handlerErrorLog adapts the module logger to promhttp.Logger.
type handlerErrorLog struct{}

func (handlerErrorLog) Println(v ...any) {
	getLogger().Warn("metrics handler error", logger.String("detail", fmt.Sprint(v...)))
}
