// Package tabfile reads and writes the flat-file artifacts the pipelines
// exchange: header-addressed CSV tables, indented JSON mappings, and the
// bracketed list literals stored inside manifest cells.
package tabfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table is an in-memory CSV table addressed by column name. Cells are
// kept as raw strings; interpretation is left to the caller.
type Table struct {
	Columns []string
	Rows    [][]string

	byName map[string]int
}

// NewTable returns an empty table with the given column order.
func NewTable(columns ...string) *Table {
	t := &Table{Columns: columns}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.byName = make(map[string]int, len(t.Columns))
	for i, name := range t.Columns {
		if _, ok := t.byName[name]; !ok {
			t.byName[name] = i
		}
	}
}

// Append adds one row. Short rows are padded with empty cells and long
// rows truncated so every row matches the header width.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	idx, ok := t.byName[name]
	return idx, ok
}

// MissingColumns returns the subset of names absent from the header,
// in the order given.
func (t *Table) MissingColumns(names ...string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := t.byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Value returns the cell at (row, column), or the empty string when the
// column is not present.
func (t *Table) Value(row int, column string) string {
	idx, ok := t.byName[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][idx]
}

// ReadCSV loads a CSV file into a Table. A leading byte-order mark is
// stripped; study-data exports saved on Windows frequently carry one.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// DecodeCSV parses CSV content from r. The first record is the header;
// ragged rows are normalized to the header width.
func DecodeCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := NewTable(header...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t.Append(record...)
	}
	return t, nil
}
