package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// SectionStyle defines the color and icon for a changelog section.
type SectionStyle struct {
	Color *color.Color
	Icon  string
}

var sectionStyles = map[string]SectionStyle{
	HeaderChanges:      {Color: color.New(color.FgBlue), Icon: "~"},
	HeaderBugs:         {Color: color.New(color.FgYellow), Icon: "⚡"},
	HeaderTranslations: {Color: color.New(color.FgGreen), Icon: "✓"},
}

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Disable colors and icons
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

// FormatTerminal writes the changelog with colored section headers and
// wrapped entries. With Plain set the output equals Render.
func FormatTerminal(c *Changelog, w io.Writer, opts FormatOptions) error {
	if opts.Plain {
		return c.Render(w)
	}

	width := resolveWidth(opts.MaxWidth)
	bold := color.New(color.Bold).SprintFunc()
	if _, err := fmt.Fprintf(w, "%s\n", bold(c.Marker())); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, s := range ParseSections(c.String()) {
		if err := writeSection(s, w, width); err != nil {
			return fmt.Errorf("formatting %s: %w", s.Header, err)
		}
	}
	return nil
}

func writeSection(s Section, w io.Writer, width int) error {
	style := sectionStyles[s.Header]
	colored := style.Color.SprintFunc()

	if _, err := fmt.Fprintf(w, "\n%s %s\n", colored(style.Icon), colored(strings.TrimSuffix(s.Header, ":"))); err != nil {
		return err
	}

	const prefix = "  - "
	for _, entry := range s.Entries {
		var wrapped []string
		for _, line := range strings.Split(entry, "\n") {
			wrapped = append(wrapped, wrapText(line, width-len(prefix), "    "))
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, strings.Join(wrapped, "\n    ")); err != nil {
			return err
		}
	}
	return nil
}

func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth {
		return text
	}

	var lines []string
	remaining := text

	for len(remaining) > maxWidth {
		breakPoint := maxWidth
		for i := maxWidth - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], " ")
	}

	if len(remaining) > 0 {
		lines = append(lines, remaining)
	}

	return strings.Join(lines, "\n"+indent)
}
