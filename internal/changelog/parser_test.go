package changelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSections(t *testing.T) {
	text := `NEW in 1.0
==========
Changes:
- First line
  second line (A).
- Other (B).

Translations:
- Updated Welsh Translation (C).
`
	sections := ParseSections(text)
	require.Len(t, sections, 2)

	assert.Equal(t, HeaderChanges, sections[0].Header)
	assert.Equal(t, []string{"First line\nsecond line (A).", "Other (B)."}, sections[0].Entries)

	assert.Equal(t, HeaderTranslations, sections[1].Header)
	assert.Equal(t, []string{"Updated Welsh Translation (C)."}, sections[1].Entries)
}

func TestParseSections_StopsAtNextMarker(t *testing.T) {
	text := "NEW in 2\n========\nChanges:\n- new (A).\n\nNEW in 1\n========\nBugs fixed:\n- Fixed #1, old (B)\n"

	sections := ParseSections(text)
	require.Len(t, sections, 2)
	assert.Equal(t, []string{HeaderChanges, HeaderBugs}, headers(sections))
}

func TestParseSections_HeaderOnly(t *testing.T) {
	assert.Empty(t, ParseSections("NEW in 1\n========\n"))
	assert.Empty(t, ParseSections(""))
}

// Rendering then recovering the headers must give back exactly the
// non-empty categories of the batch, in fixed order.
func TestParseSections_RoundTrip(t *testing.T) {
	tests := map[string]struct {
		messages     []string
		descriptions map[string]string
		want         []string
	}{
		"nothing": {
			want: []string{},
		},
		"plain only": {
			messages: []string{"Tidy"},
			want:     []string{HeaderChanges},
		},
		"bug only": {
			messages:     []string{"Fix #1"},
			descriptions: map[string]string{"1": "crash"},
			want:         []string{HeaderBugs},
		},
		"unresolved bug is a change": {
			messages: []string{"Fix #1"},
			want:     []string{HeaderChanges},
		},
		"translation only": {
			messages: []string{"Updated Hindi translation"},
			want:     []string{HeaderTranslations},
		},
		"bug and translation": {
			messages:     []string{"Updated Hindi translation", "Fix #1\nwith details"},
			descriptions: map[string]string{"1": "crash"},
			want:         []string{HeaderBugs, HeaderTranslations},
		},
		"all three": {
			messages:     []string{"Updated Hindi translation", "Fix #1", "Tidy\nmore"},
			descriptions: map[string]string{"1": "crash"},
			want:         []string{HeaderChanges, HeaderBugs, HeaderTranslations},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			b := newBatch(tt.messages...)
			b.ApplyDescriptions(tt.descriptions)
			c := Assemble("1", b)

			sections := ParseSections(c.String())
			assert.Equal(t, tt.want, headers(sections))

			counts := map[string]int{
				HeaderChanges:      len(c.Changes),
				HeaderBugs:         len(c.Bugs),
				HeaderTranslations: len(c.Translations),
			}
			for _, s := range sections {
				assert.Len(t, s.Entries, counts[s.Header], s.Header)
			}
		})
	}
}

func headers(sections []Section) []string {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		out = append(out, s.Header)
	}
	return out
}
