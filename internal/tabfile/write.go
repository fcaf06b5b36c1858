package tabfile

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"roster/internal/fileutil"
)

// EncodeCSV renders a table as CSV bytes, header first. The rendering is
// deterministic, so two encodings of equal tables compare byte-equal.
func EncodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes a table to path atomically with the given mode.
func WriteCSV(path string, t *Table, mode os.FileMode) error {
	data, err := EncodeCSV(t)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, mode)
}

// WriteJSON writes v as human-indented JSON (four spaces) to path
// atomically with the given mode.
func WriteJSON(path string, v any, mode os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	return fileutil.WriteFileAtomic(path, data, mode)
}
