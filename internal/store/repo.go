package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
)

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown record store backend")

// RecordStore is a spreadsheet-like tabular store. Tables are addressed by
// name and hold rows keyed by column name. Rows are append-only.
type RecordStore interface {
	// Append adds rows to the end of table, creating the table (and any
	// columns it has not seen yet) as needed.
	Append(ctx context.Context, table string, rows ...Row) error

	// ReadAll returns every row of table in insertion order. A table that
	// does not exist yet reads as empty.
	ReadAll(ctx context.Context, table string) ([]Row, error)

	// Close releases the backend.
	Close() error
}

// Row is one record keyed by column name. Column lookups through Get are
// case-insensitive because spreadsheet headers are edited by hand.
type Row map[string]string

// Get returns the value of column, matching the name case-insensitively
// and ignoring surrounding whitespace. Missing columns read as "".
func (r Row) Get(column string) string {
	if v, ok := r[column]; ok {
		return v
	}
	want := strings.TrimSpace(column)
	for k, v := range r {
		if strings.EqualFold(strings.TrimSpace(k), want) {
			return v
		}
	}
	return ""
}

// Has reports whether column is present, case-insensitively.
func (r Row) Has(column string) bool {
	if _, ok := r[column]; ok {
		return true
	}
	for k := range r {
		if strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(column)) {
			return true
		}
	}
	return false
}

// mergeHeader returns header extended with any columns of rows it does not
// already contain (case-insensitive), preserving first-seen order. The
// boolean reports whether the header changed.
func mergeHeader(header []string, rows []Row) ([]string, bool) {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[strings.ToLower(strings.TrimSpace(h))] = true
	}

	out := append([]string(nil), header...)
	changed := false
	for _, row := range rows {
		for _, col := range slices.Sorted(maps.Keys(row)) {
			key := strings.ToLower(strings.TrimSpace(col))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, col)
			changed = true
		}
	}
	return out, changed
}

// rowValues lays row out along header.
func rowValues(header []string, row Row) []string {
	vals := make([]string, len(header))
	for i, h := range header {
		vals[i] = row.Get(h)
	}
	return vals
}

// rowFromValues builds a Row from a header and a (possibly short) value slice.
// Blank header cells are skipped.
func rowFromValues(header []string, vals []string) Row {
	row := make(Row, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		if i < len(vals) {
			row[h] = vals[i]
		} else {
			row[h] = ""
		}
	}
	return row
}
