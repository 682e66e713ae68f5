package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table holds one parsed tabular report: a header row plus string cells.
// Cells are kept as raw strings; typing and coercion belong to the
// analysis normalizer.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// RowCount returns the number of data rows (header excluded).
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// LoadTable reads a report file into a Table, dispatching on extension.
// maxRows bounds the number of data rows read; pass <= 0 for no bound.
func LoadTable(path string, maxRows int) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path, maxRows)
	case ".xlsx", ".xlsm":
		return loadWorkbook(path, maxRows)
	default:
		return nil, fmt.Errorf("reports: unsupported format: %s", filepath.Ext(path))
	}
}

func loadCSV(path string, maxRows int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are normalized below
	t := &Table{Source: path}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reports: read csv: %w", err)
		}
		if t.Header == nil {
			t.Header = trimCells(rec)
			continue
		}
		t.Rows = append(t.Rows, padRow(rec, len(t.Header)))
		if maxRows > 0 && len(t.Rows) >= maxRows {
			break
		}
	}
	if t.Header == nil {
		return nil, fmt.Errorf("reports: empty report: %s", path)
	}
	return t, nil
}

func loadWorkbook(path string, maxRows int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("reports: workbook has no sheets: %s", path)
	}
	// Reports are exported as a single table on the first sheet.
	sheet := sheets[0]

	iter, err := f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	t := &Table{Source: path}
	for iter.Next() {
		vals, err := iter.Columns()
		if err != nil {
			return nil, err
		}
		vals = trimTrailingEmpties(vals)
		if t.Header == nil {
			if len(vals) == 0 {
				continue // skip leading blank rows
			}
			t.Header = trimCells(vals)
			continue
		}
		t.Rows = append(t.Rows, padRow(vals, len(t.Header)))
		if maxRows > 0 && len(t.Rows) >= maxRows {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if t.Header == nil {
		return nil, fmt.Errorf("reports: empty report: %s", path)
	}
	return t, nil
}

func trimCells(xs []string) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = strings.TrimSpace(x)
	}
	return out
}

// padRow normalizes a raw row to the header width so column lookups by
// index never go out of bounds.
func padRow(xs []string, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(xs); i++ {
		out[i] = strings.TrimSpace(xs[i])
	}
	return out
}

func trimTrailingEmpties(xs []string) []string {
	i := len(xs)
	for i > 0 {
		if strings.TrimSpace(xs[i-1]) != "" {
			break
		}
		i--
	}
	return xs[:i]
}
