package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

const spinnerDelay = 100 * time.Millisecond

// Indicator reports the outcome of named steps. On a TTY a spinner runs
// while the step is in flight; otherwise only the final status line is
// written.
type Indicator struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
}

// NewIndicator returns an Indicator writing to out.
func NewIndicator(out io.Writer, caps TerminalCapabilities) *Indicator {
	return &Indicator{out: out, caps: caps, symbols: SelectSymbols(caps)}
}

// Run executes fn under message and prints a check or failure marker.
// fn's error is returned unchanged.
func (i *Indicator) Run(message string, fn func() error) error {
	var s *spinner.Spinner
	if i.caps.IsTTY {
		s = spinner.New(spinner.CharSets[i.symbols.SpinnerSet], spinnerDelay, spinner.WithWriter(i.out))
		s.Suffix = " " + message
		s.Start()
	}

	err := fn()

	if s != nil {
		s.Stop()
	}

	marker := i.symbols.Checkmark
	if err != nil {
		marker = i.symbols.Failure
	}
	fmt.Fprintf(i.out, "%s %s\n", marker, message)
	return err
}
