package changelog

import (
	"bufio"
	"strings"
)

// Section is one recovered block of a rendered NEWS entry.
type Section struct {
	Header  string
	Entries []string
}

// ParseSections recovers the sections present in rendered changelog text,
// in the order they appear. Continuation lines are folded back into their
// entry with "\n". Unknown lines outside a section are ignored.
func ParseSections(text string) []Section {
	var (
		sections []Section
		current  *Section
	)

	flush := func() {
		if current != nil {
			sections = append(sections, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case isSectionHeader(line):
			flush()
			current = &Section{Header: line}
		case strings.HasPrefix(line, MarkerPrefix):
			flush()
		case current == nil || line == "":
			continue
		case strings.HasPrefix(line, "- "):
			current.Entries = append(current.Entries, line[2:])
		case strings.HasPrefix(line, "  ") && len(current.Entries) > 0:
			last := len(current.Entries) - 1
			current.Entries[last] += "\n" + line[2:]
		}
	}
	flush()

	return sections
}

func isSectionHeader(line string) bool {
	switch line {
	case HeaderChanges, HeaderBugs, HeaderTranslations:
		return true
	}
	return false
}
