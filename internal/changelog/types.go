package changelog

import "github.com/ariel-frischer/relnote/internal/gitlog"

// Category is the classification assigned once to every record.
type Category int

const (
	// Plain is an ordinary change with no tracker reference.
	Plain Category = iota
	// Bug references at least one "#<digits>" tracker number.
	Bug
	// Translation is a localisation update. It never carries bug references.
	Translation
)

// String returns the lower-case category name used in YAML output.
func (c Category) String() string {
	switch c {
	case Bug:
		return "bug"
	case Translation:
		return "translation"
	default:
		return "plain"
	}
}

// BugReference is one "#<n>" occurrence inside a bug record.
type BugReference struct {
	Number string
	// Author is the author of the commit that introduced the reference.
	Author string
	// Description is the tracker summary; meaningful only when Resolved.
	Description string
	Resolved    bool
}

// Record is a parsed commit plus its classification.
type Record struct {
	gitlog.Commit

	Category Category
	Bugs     []BugReference
	// Summary is the normalized phrase for translation records.
	Summary string
}

// ResolvedBugs returns the references that received a tracker description.
func (r Record) ResolvedBugs() []BugReference {
	var out []BugReference
	for _, b := range r.Bugs {
		if b.Resolved {
			out = append(out, b)
		}
	}
	return out
}

// Entry is a single rendered line of a changelog section.
type Entry struct {
	Text   string `yaml:"text"`
	Author string `yaml:"author,omitempty"`
	Ref    string `yaml:"ref,omitempty"`
	// Bug is set for entries in the bugs section.
	Bug string `yaml:"bug,omitempty"`
}

// Changelog is the assembled NEWS entry for one version.
type Changelog struct {
	Version      string  `yaml:"version"`
	Changes      []Entry `yaml:"changes,omitempty"`
	Bugs         []Entry `yaml:"bugs_fixed,omitempty"`
	Translations []Entry `yaml:"translations,omitempty"`
}

// IsEmpty reports whether all three sections are empty.
func (c *Changelog) IsEmpty() bool {
	return len(c.Changes) == 0 && len(c.Bugs) == 0 && len(c.Translations) == 0
}

// Count returns the total number of entries across all sections.
func (c *Changelog) Count() int {
	return len(c.Changes) + len(c.Bugs) + len(c.Translations)
}
