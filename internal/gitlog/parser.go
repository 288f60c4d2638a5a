// Package gitlog turns the medium-format text of `git log <tag>..` into
// commit records. It knows nothing about categories or bug trackers; that
// is the changelog package's job.
package gitlog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Commit is one record parsed from a raw commit block.
type Commit struct {
	// Ref is the VCS identifier from the "commit " header.
	Ref string
	// Author is the display name from the "Author:" header, or the name
	// embedded as a trailing "(Name)" in the message.
	Author string
	// Date is the raw "Date:" text. It is informational only.
	Date string
	// Message holds the kept body lines joined by newlines.
	Message string
}

const (
	headerCommit = "commit "
	headerAuthor = "Author:"
	headerDate   = "Date:"
)

// trailerPrefixes are body lines carrying no user-facing content.
var trailerPrefixes = []string{
	"git-svn-id:",
	"Signed-off-by:",
	"From:",
	"Merge:",
}

var (
	// Legacy per-file ChangeLog headers: "2008-03-01  Jane Doe  <jane@x.org>"
	isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	// A bug reference inside parentheses is not an author name.
	bugRefPattern = regexp.MustCompile(`#\d`)
)

// Parse reads git log output and returns one Commit per "commit " header,
// in input order (newest first for plain `git log`).
func Parse(r io.Reader) ([]Commit, error) {
	var (
		commits []Commit
		current *Commit
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.HasPrefix(line, headerCommit) {
			if current != nil {
				commits = append(commits, finalize(*current))
			}
			current = &Commit{Ref: strings.TrimSpace(line[len(headerCommit):])}
			continue
		}

		if current == nil {
			// Anything before the first header (e.g. a pager banner) is noise.
			continue
		}

		parseLine(current, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading git log: %w", err)
	}

	if current != nil {
		commits = append(commits, finalize(*current))
	}

	logDebug("[gitlog] parsed %d commits", len(commits))
	return commits, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) ([]Commit, error) {
	return Parse(strings.NewReader(s))
}

// parseLine applies the header, trailer and body rules to one line.
func parseLine(c *Commit, line string) {
	switch {
	case strings.HasPrefix(line, headerAuthor):
		c.Author = parseAuthor(line[len(headerAuthor):])
		return
	case strings.HasPrefix(line, headerDate):
		c.Date = strings.TrimSpace(line[len(headerDate):])
		return
	}

	msg := strings.TrimSpace(line)
	if msg == "" || isTrailer(msg) {
		return
	}

	if strings.HasPrefix(msg, "*") {
		// "* src/foo.c (bar): Fix leak" collapses to "Fix leak".
		if idx := strings.Index(msg, ":"); idx >= 0 {
			msg = strings.TrimSpace(msg[idx+1:])
		}
		if msg == "" {
			return
		}
	} else if isoDatePrefix.MatchString(msg) {
		return
	}

	if c.Message != "" {
		c.Message += "\n"
	}
	c.Message += msg
}

// parseAuthor returns the text before the e-mail address.
func parseAuthor(s string) string {
	if idx := strings.Index(s, "<"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func isTrailer(msg string) bool {
	for _, prefix := range trailerPrefixes {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// finalize moves a trailing "(Name)" from the message into Author.
// "(#123)" and "(bug #7)" stay in the message. An empty "()" is dropped
// and the header author kept.
func finalize(c Commit) Commit {
	if !strings.HasSuffix(c.Message, ")") {
		return c
	}

	open := strings.LastIndex(c.Message, "(")
	if open < 0 {
		return c
	}

	inner := c.Message[open+1 : len(c.Message)-1]
	if bugRefPattern.MatchString(inner) {
		return c
	}

	name := strings.TrimSpace(inner)
	if name != "" {
		c.Author = name
	}
	c.Message = strings.TrimRight(c.Message[:open], " \t\n")
	return c
}
