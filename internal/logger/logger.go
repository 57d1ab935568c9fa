package logger

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	mu   sync.RWMutex
	base = hclog.New(&hclog.LoggerOptions{
		Name:   "mediacatalog",
		Level:  hclog.Info,
		Output: os.Stderr,
	})
)

// Configure replaces the process logger. Format is "json" or "text".
func Configure(level, format string) {
	mu.Lock()
	defer mu.Unlock()

	base = hclog.New(&hclog.LoggerOptions{
		Name:       "mediacatalog",
		Level:      hclog.LevelFromString(strings.ToLower(level)),
		JSONFormat: strings.EqualFold(format, "json"),
		Output:     os.Stderr,
	})
}

// Get returns the current process logger.
func Get() hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Named returns a sub-logger for a component.
func Named(name string) hclog.Logger {
	return Get().Named(name)
}

// Standard returns a *log.Logger that writes through hclog, inferring the
// level from "[INFO]" style prefixes. Used for gorm and net/http.
func Standard() *log.Logger {
	return Get().StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})
}

// Info logs informational messages with key/value pairs
func Info(msg string, args ...interface{}) {
	Get().Info(msg, args...)
}

// Warn logs warning messages with key/value pairs
func Warn(msg string, args ...interface{}) {
	Get().Warn(msg, args...)
}

// Error logs error messages with key/value pairs
func Error(msg string, args ...interface{}) {
	Get().Error(msg, args...)
}

// Debug logs debug messages with key/value pairs
func Debug(msg string, args ...interface{}) {
	Get().Debug(msg, args...)
}
