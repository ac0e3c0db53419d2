// Package dataset loads the monthly trends CSV and serves per-column series.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/okian/trendcast/internal/domain/timeseries"
)

// DefaultIndexColumn is the header of the date column.
const DefaultIndexColumn = "Month"

// lessThanOne is the value Google Trends exports render as "<1".
const lessThanOne = 0.5

var dateLayouts = []string{
	"2006-01",
	"2006-01-02",
	"2006/01",
	"01/2006",
	"2006-01-02 15:04:05",
}

// Table is an immutable monthly-indexed set of numeric columns.
type Table struct {
	index   []time.Time
	order   []string
	columns map[string][]float64
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.index) }

// Columns returns the column names in file order.
func (t *Table) Columns() []string { return slices.Clone(t.order) }

// Index returns a copy of the month index.
func (t *Table) Index() []time.Time { return slices.Clone(t.index) }

// Copy returns a deep copy that shares nothing with t.
func (t *Table) Copy() *Table {
	out := &Table{
		index:   slices.Clone(t.index),
		order:   slices.Clone(t.order),
		columns: make(map[string][]float64, len(t.columns)),
	}
	for k, v := range t.columns {
		out.columns[k] = slices.Clone(v)
	}
	return out
}

// Series returns the named column as a series over the month index.
func (t *Table) Series(column string) (*timeseries.Series, error) {
	values, ok := t.columns[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	return timeseries.New(column, slices.Clone(t.index), slices.Clone(values))
}

// Parse reads a CSV with a date index column and numeric value columns.
// Preamble lines before the header (as in Google Trends exports) are skipped.
func Parse(r io.Reader, indexColumn string) (*Table, error) {
	if indexColumn == "" {
		indexColumn = DefaultIndexColumn
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		header []string
		idx    = -1
	)
	for header == nil {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no %q header", ErrMalformed, indexColumn)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		for i, h := range rec {
			if strings.TrimSpace(h) == indexColumn {
				header, idx = rec, i
				break
			}
		}
	}

	t := &Table{columns: make(map[string][]float64)}
	for i, h := range header {
		if i == idx {
			continue
		}
		name := strings.TrimSpace(h)
		t.order = append(t.order, name)
		t.columns[name] = nil
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, want %d", ErrMalformed, line, len(rec), len(header))
		}
		month, err := parseMonth(rec[idx])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, line, err)
		}
		t.index = append(t.index, month)

		col := 0
		for i, cell := range rec {
			if i == idx {
				continue
			}
			name := t.order[col]
			v, err := parseValue(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", ErrMalformed, line, name, err)
			}
			t.columns[name] = append(t.columns[name], v)
			col++
		}
	}
	return t, nil
}

func parseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0, errors.New("empty cell")
	case "<1":
		return lessThanOne, nil
	}
	return strconv.ParseFloat(s, 64)
}
