package cli

// Exit codes for the relnote CLI
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure covers every error: bad flags, missing metadata, a failed
	// tag, upload or mail.
	ExitFailure = 1
)
