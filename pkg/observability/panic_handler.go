package observability

import (
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with the stack trace.
// Call it in a defer statement; after logging, the panic is not re-raised.
func RecoverPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		logPanic(logger, where, r)
	}
}

// RecoverPanicWithCallback recovers from a panic, logs it, and always runs the
// callback afterwards so cleanup (closing channels, releasing locks) happens
// whether or not a panic occurred.
func RecoverPanicWithCallback(logger *Logger, where string, callback func()) {
	if r := recover(); r != nil {
		logPanic(logger, where, r)
	}
	if callback != nil {
		callback()
	}
}

func logPanic(logger *Logger, where string, r interface{}) {
	if logger == nil {
		return
	}
	logger.WithField("panic", r).
		WithField("stack", string(debug.Stack())).
		WithField("where", where).
		Error("PANIC recovered")
}
