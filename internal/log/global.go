package log

import "sync/atomic"

// defaultLogger backs the package-level logger used by components that were
// constructed without one.
var defaultLogger atomic.Pointer[Logger]

// SetDefaultLogger replaces the process-wide logger. A nil logger resets it,
// so the next DefaultLogger call builds a fresh one from DefaultConfig.
func SetDefaultLogger(logger *Logger) {
	defaultLogger.Store(logger)
}

// DefaultLogger returns the process-wide logger.
func DefaultLogger() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	defaultLogger.CompareAndSwap(nil, Default())
	return defaultLogger.Load()
}
