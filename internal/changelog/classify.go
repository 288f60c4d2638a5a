package changelog

import (
	"regexp"
	"strings"

	"github.com/ariel-frischer/relnote/internal/gitlog"
)

var (
	bugNumberPattern = regexp.MustCompile(`#(\d+)`)
	// Captures the language between "...pdated" and "?ranslation".
	languagePattern = regexp.MustCompile(`(?is)^.*pdated(.*).ranslation`)
)

// Classify assigns exactly one category to a commit.
//
// The rule has two tiers and the order matters:
//
//  1. Translation: the lower-cased message mentions "translation" together
//     with "updated" or "added". Bug markers in such a message are ignored.
//  2. Bug: every "#" followed by digits yields a reference, duplicates
//     collapsed to their first occurrence.
//
// Anything else is Plain. Ref, Author and Date are never modified.
func Classify(c gitlog.Commit) Record {
	r := Record{Commit: c}

	if isTranslation(c.Message) {
		r.Category = Translation
		r.Summary = translationSummary(c.Message)
		return r
	}

	for _, n := range bugNumbers(c.Message) {
		r.Bugs = append(r.Bugs, BugReference{Number: n, Author: c.Author})
	}
	if len(r.Bugs) > 0 {
		r.Category = Bug
	}
	return r
}

// ClassifyAll classifies commits into a new Batch, preserving order.
// Commits whose message is empty after parsing contribute nothing.
func ClassifyAll(commits []gitlog.Commit) *Batch {
	b := &Batch{}
	for _, c := range commits {
		if strings.TrimSpace(c.Message) == "" {
			continue
		}
		b.Records = append(b.Records, Classify(c))
	}
	return b
}

func isTranslation(message string) bool {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "translation") {
		return false
	}
	return strings.Contains(lower, "updated") || strings.Contains(lower, "added")
}

// translationSummary normalizes "Updated French Translation" style messages.
// The literal message is kept when no language can be isolated.
func translationSummary(message string) string {
	m := languagePattern.FindStringSubmatch(message)
	if m == nil {
		return message
	}
	lang := strings.TrimSpace(m[1])
	if lang == "" {
		return message
	}
	return "Updated " + lang + " Translation"
}

// bugNumbers returns the distinct "#<digits>" numbers in message order.
func bugNumbers(message string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, m := range bugNumberPattern.FindAllStringSubmatch(message, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		out = append(out, m[1])
	}
	return out
}
