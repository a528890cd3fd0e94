package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// requiredColumns are looked up by header name; any other column is ignored.
var requiredColumns = []string{"title", "calories", "protein", "fat"}

// rowReader yields raw records one at a time, returning io.EOF when done.
type rowReader interface {
	Read() ([]string, error)
}

// sliceRows adapts an in-memory table such as an XLSX sheet to rowReader.
type sliceRows struct {
	rows [][]string
	next int
}

func (s *sliceRows) Read() ([]string, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}

func newCSVReader(r io.Reader) rowReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// openRows opens path as CSV or, for .xlsx files, reads the first sheet.
// The returned close func must be called once reading is done.
func openRows(path string) (rowReader, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, errors.New("workbook has no sheets")
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
		}
		return &sliceRows{rows: rows}, func() error { return nil }, nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open csv: %w", err)
		}
		return newCSVReader(f), f.Close, nil
	}
}

// columnIndex maps each required column to its position in header.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(requiredColumns))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}
