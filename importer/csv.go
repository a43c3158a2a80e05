// ABOUTME: CSV reading for customer and variable uploads
// ABOUTME: Produces string tables keyed by header, with "None" cells read as empty
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// indexColumn is the unnamed index column a spreadsheet export leaves behind.
const indexColumn = "Unnamed: 0"

// Row maps a column header to its cell.
type Row map[string]string

// Table is a parsed upload: the header in file order and one Row per record.
type Table struct {
	Columns []string
	Rows    []Row
}

// Has reports whether the upload carried column name.
func (t *Table) Has(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Drop removes a column from the header and every row.
func (t *Table) Drop(name string) {
	cols := t.Columns[:0]
	for _, c := range t.Columns {
		if c != name {
			cols = append(cols, c)
		}
	}
	t.Columns = cols
	for _, r := range t.Rows {
		delete(r, name)
	}
}

// ReadCSV parses a header row followed by records. Short records are padded
// with empty cells.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	t := &Table{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		// Spreadsheet tools write the index column with an empty header.
		if h == "" && i == 0 {
			h = indexColumn
		}
		t.Columns = append(t.Columns, h)
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			cell := ""
			if i < len(record) {
				cell = cleanCell(record[i])
			}
			row[col] = cell
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// ReadCSVFile opens and parses path.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if isPlaceholder(s) {
		return ""
	}
	return s
}

// isPlaceholder matches the null markers spreadsheet exports write.
func isPlaceholder(s string) bool {
	switch s {
	case "None", "N/A", "NaN", "nan":
		return true
	}
	return false
}
