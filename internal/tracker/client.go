// Package tracker talks to a Bugzilla-style bug tracker: one batched CSV
// bug-list query per run, and a scrape of the product page for the
// announcement's "What is it?" and web site fields.
package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ariel-frischer/relnote/internal/build"
)

// Descriptions maps a bug number to its short description.
type Descriptions map[string]string

// Client issues requests against one tracker instance.
type Client struct {
	BaseURL    string
	Statuses   []string
	Resolution string
	// WebsiteLabel is the text next to the project web site link on the
	// product page.
	WebsiteLabel string
	HTTPClient   *http.Client
	UserAgent    string
}

// Options configures NewClient.
type Options struct {
	BaseURL      string
	Statuses     []string
	Resolution   string
	WebsiteLabel string
}

// NewClient returns a Client for the given tracker. Requests carry no
// timeout of their own; the caller's context is the only bound.
func NewClient(opts Options) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(opts.BaseURL, "/"),
		Statuses:     opts.Statuses,
		Resolution:   opts.Resolution,
		WebsiteLabel: opts.WebsiteLabel,
		HTTPClient:   &http.Client{},
		UserAgent:    build.UserAgent(),
	}
}

// BugListURL builds the CSV bug-list query for the given numbers.
// Numbers are comma-joined and query-encoded, so the separator is sent
// as %2C.
func (c *Client) BugListURL(numbers []string) string {
	q := url.Values{}
	q.Set("ctype", "csv")
	if len(c.Statuses) > 0 {
		q.Set("bug_status", strings.Join(c.Statuses, ","))
	}
	if c.Resolution != "" {
		q.Set("resolution", c.Resolution)
	}
	q.Set("bug_id", strings.Join(numbers, ","))
	return c.BaseURL + "/buglist.cgi?" + q.Encode()
}

// ProductURL returns the product browse page for a tracker module.
func (c *Client) ProductURL(module string) string {
	return c.BaseURL + "/browse.cgi?" + url.Values{"product": {module}}.Encode()
}

// Query resolves all numbers with a single request. Duplicate numbers are
// sent once and an empty set sends nothing. Only rows for requested
// numbers are returned.
func (c *Client) Query(ctx context.Context, numbers []string) (Descriptions, error) {
	numbers = dedupe(numbers)
	if len(numbers) == 0 {
		return Descriptions{}, nil
	}

	endpoint := c.BugListURL(numbers)
	logDebug("[tracker] querying %d bugs: %s", len(numbers), endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying bug list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bug list query returned status %s", resp.Status)
	}

	wanted := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		wanted[n] = true
	}

	descriptions, err := parseBugList(resp.Body, wanted)
	if err != nil {
		return nil, fmt.Errorf("parsing bug list: %w", err)
	}

	logDebug("[tracker] resolved %d of %d bugs", len(descriptions), len(numbers))
	return descriptions, nil
}

func dedupe(numbers []string) []string {
	seen := make(map[string]bool, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
