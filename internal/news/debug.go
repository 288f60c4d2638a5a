package news

var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for NEWS file access.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}
