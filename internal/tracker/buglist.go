package tracker

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names in the tracker's CSV export.
const (
	colBugID            = "bug_id"
	colShortShortDesc   = "short_short_desc"
	colShortDescription = "short_desc"
)

// columns maps the header row to field positions. It is built once per
// response.
type columns struct {
	id          int
	description int
}

func newColumns(header []string) (columns, error) {
	cols := columns{id: -1, description: -1}
	fallback := -1

	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case colBugID:
			cols.id = i
		case colShortShortDesc:
			cols.description = i
		case colShortDescription:
			fallback = i
		}
	}
	if cols.description < 0 {
		cols.description = fallback
	}

	if cols.id < 0 {
		return cols, fmt.Errorf("missing %q column", colBugID)
	}
	if cols.description < 0 {
		return cols, fmt.Errorf("missing %q column", colShortShortDesc)
	}
	return cols, nil
}

// row gives named access to one CSV record.
type row struct {
	cols   columns
	fields []string
}

func (r row) field(i int) string {
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) ID() string          { return r.field(r.cols.id) }
func (r row) Description() string { return r.field(r.cols.description) }

// parseBugList reads a CSV bug list, keeping only the wanted numbers.
func parseBugList(r io.Reader, wanted map[string]bool) (Descriptions, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty response")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := newColumns(header)
	if err != nil {
		return nil, err
	}

	out := make(Descriptions)
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		rec := row{cols: cols, fields: fields}
		id := rec.ID()
		if !wanted[id] {
			continue
		}
		out[id] = rec.Description()
	}

	return out, nil
}
