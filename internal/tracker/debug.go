package tracker

var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for tracker requests.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}
