package announce

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariel-frischer/relnote/internal/shell"
)

// Mailer hands a finished announcement to a sendmail-compatible command
// that reads the full message, headers included, from stdin.
type Mailer struct {
	Runner shell.Runner
	// Command is the program and its arguments, e.g. ["sendmail", "-t"].
	Command []string
	To      string
	From    string
}

// Message builds the RFC 822 message text.
func (m *Mailer) Message(subject, body string) string {
	var b strings.Builder
	if m.From != "" {
		fmt.Fprintf(&b, "From: %s\n", m.From)
	}
	fmt.Fprintf(&b, "To: %s\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\n")
	b.WriteString("\n")
	b.WriteString(strings.TrimLeft(body, "\n"))
	return b.String()
}

// Send mails body to the configured list. Failures are returned, never
// retried.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if len(m.Command) == 0 {
		return errors.New("mail command is not configured")
	}
	if m.To == "" {
		return errors.New("mail recipient is not configured")
	}

	cmd := shell.Command{
		Name:  m.Command[0],
		Args:  m.Command[1:],
		Stdin: m.Message(subject, body),
	}
	if _, err := m.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("sending announcement to %s: %w", m.To, err)
	}
	return nil
}
