// Package announce renders the release announcement and mails it.
package announce

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"
)

// Fields are the values substituted into the announcement template.
type Fields struct {
	Name     string
	Version  string
	Download string
	MD5Sums  string
	About    string
	Website  string
	// News may be empty when NEWS has no entry for Version.
	News   string
	Footer string
}

// DefaultTemplate is the announcement layout used when no template file is
// configured.
const DefaultTemplate = `
{{.Name}} {{.Version}} is now available for download from:
{{.Download}}

{{.MD5Sums}}

What is it?
===========
{{.About}}

Where can I find out more?
==========================
You can visit the project web site:
{{.Website}}

What's New?
===========
{{.News}}

{{.Footer}}
`

// Footer returns the signature block: the release date as "02 January 2006"
// followed by "<name> team".
func Footer(now time.Time, name string) string {
	return fmt.Sprintf("%s\n%s team", now.Format("02 January 2006"), name)
}

// Subject returns the mail subject for an announcement.
func Subject(f Fields) string {
	return fmt.Sprintf("ANNOUNCE: %s %s", f.Name, f.Version)
}

// Render fills tmpl with f. An empty tmpl uses DefaultTemplate. Unknown
// field references are errors.
func Render(f Fields, tmpl string) (string, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultTemplate
	}

	t, err := template.New("announcement").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, f); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// LoadTemplate reads a template file. An empty path returns DefaultTemplate.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return DefaultTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", path, err)
	}
	return string(data), nil
}
