package changelog

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkerPrefix starts the first line of every NEWS entry.
const MarkerPrefix = "NEW in "

// Section headers, in rendering order.
const (
	HeaderChanges      = "Changes:"
	HeaderBugs         = "Bugs fixed:"
	HeaderTranslations = "Translations:"
)

// Assemble groups the batch into the three NEWS sections. Entries keep
// record order. A bug record without any resolved reference falls back to
// a plain change with its original message.
func Assemble(version string, b *Batch) *Changelog {
	c := &Changelog{Version: version}
	if b == nil {
		return c
	}

	for _, r := range b.Records {
		switch r.Category {
		case Translation:
			c.Translations = append(c.Translations, Entry{Text: r.Summary, Author: r.Author, Ref: r.Ref})
		case Bug:
			resolved := r.ResolvedBugs()
			if len(resolved) == 0 {
				c.Changes = append(c.Changes, Entry{Text: r.Message, Author: r.Author, Ref: r.Ref})
				continue
			}
			for _, ref := range resolved {
				c.Bugs = append(c.Bugs, Entry{
					Text:   ref.Description,
					Author: ref.Author,
					Ref:    r.Ref,
					Bug:    ref.Number,
				})
			}
		default:
			c.Changes = append(c.Changes, Entry{Text: r.Message, Author: r.Author, Ref: r.Ref})
		}
	}

	return c
}

// Marker returns the "NEW in <version>" line.
func (c *Changelog) Marker() string {
	return MarkerPrefix + c.Version
}

// Render writes the plain-text NEWS entry. Empty sections produce no
// output at all, header included. The result is deterministic.
func (c *Changelog) Render(w io.Writer) error {
	marker := c.Marker()
	if _, err := fmt.Fprintf(w, "%s\n%s\n", marker, strings.Repeat("=", len(marker))); err != nil {
		return fmt.Errorf("rendering header: %w", err)
	}

	sections := []struct {
		header string
		lines  []string
	}{
		{HeaderChanges, c.changeLines()},
		{HeaderBugs, c.bugLines()},
		{HeaderTranslations, c.translationLines()},
	}

	first := true
	for _, s := range sections {
		if len(s.lines) == 0 {
			continue
		}
		if err := renderSection(w, s.header, s.lines, first); err != nil {
			return fmt.Errorf("rendering %s section: %w", strings.TrimSuffix(s.header, ":"), err)
		}
		first = false
	}

	return nil
}

// String renders the changelog to a string.
func (c *Changelog) String() string {
	var b strings.Builder
	// strings.Builder never returns a write error.
	_ = c.Render(&b)
	return b.String()
}

// Body returns the rendered sections without the marker and underline,
// trailing newlines trimmed. It is "" for an empty changelog.
func (c *Changelog) Body() string {
	parts := strings.SplitN(c.String(), "\n", 3)
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimRight(parts[2], "\n")
}

// YAML exports the structured changelog.
func (c *Changelog) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling changelog: %w", err)
	}
	return out, nil
}

func renderSection(w io.Writer, header string, lines []string, first bool) error {
	if !first {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, header+"\n"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Changelog) changeLines() []string {
	lines := make([]string, 0, len(c.Changes))
	for _, e := range c.Changes {
		lines = append(lines, "- "+indent(e.Text)+authorSuffix(e.Author)+".")
	}
	return lines
}

func (c *Changelog) bugLines() []string {
	lines := make([]string, 0, len(c.Bugs))
	for _, e := range c.Bugs {
		lines = append(lines, fmt.Sprintf("- Fixed #%s, %s%s", e.Bug, indent(e.Text), authorSuffix(e.Author)))
	}
	return lines
}

func (c *Changelog) translationLines() []string {
	lines := make([]string, 0, len(c.Translations))
	for _, e := range c.Translations {
		lines = append(lines, "- "+indent(e.Text)+authorSuffix(e.Author)+".")
	}
	return lines
}

func authorSuffix(author string) string {
	if author == "" {
		return ""
	}
	return " (" + author + ")"
}

// indent aligns continuation lines under the bullet text.
func indent(text string) string {
	return strings.ReplaceAll(text, "\n", "\n  ")
}
