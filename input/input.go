// Package input reads the THz column out of a spreadsheet export.
//
// Both .xlsx workbooks (first sheet) and .csv files are accepted. The first
// row is the header; the column whose header equals the required name
// supplies the readings in row order. Blank cells are skipped. Cells that
// do not parse as numbers become NaN so the mapper rejects and counts them
// instead of the read failing as a whole.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupported    = errors.New("input: unsupported file type")
	ErrColumnNotFound = errors.New("input: required column not found")
	ErrNoValues       = errors.New("input: no values in column")
)

// Column is the extracted reading column.
type Column struct {
	Name    string
	Sheet   string // empty for CSV
	Values  []float64
	Rows    int // data rows, header excluded
	Blank   int
	Invalid int // non-numeric cells, present in Values as NaN
}

var supported = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// IsSupported reports whether name has a readable extension.
func IsSupported(name string) bool {
	return supported[strings.ToLower(filepath.Ext(name))]
}

// ReadFile dispatches on the extension of path.
func ReadFile(path, column string) (*Column, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supported[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	defer f.Close()

	if ext == ".csv" {
		return ReadCSV(f, column)
	}
	return ReadXLSX(f, column)
}

// ReadXLSX reads column from the first sheet of a workbook.
func ReadXLSX(r io.Reader, column string) (*Column, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("input: open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrNoValues)
	}
	rows, err := wb.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("input: read sheet %q: %w", sheets[0], err)
	}

	col, err := extract(rows, column)
	if err != nil {
		return nil, err
	}
	col.Sheet = sheets[0]
	return col, nil
}

// ReadCSV reads column from comma separated text.
func ReadCSV(r io.Reader, column string) (*Column, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("input: parse csv: %w", err)
	}
	return extract(rows, column)
}

func extract(rows [][]string, column string) (*Column, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q (empty sheet)", ErrColumnNotFound, column)
	}

	idx := -1
	for i, h := range rows[0] {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	col := &Column{Name: column, Rows: len(rows) - 1}
	for _, row := range rows[1:] {
		if idx >= len(row) {
			col.Blank++
			continue
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			col.Blank++
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			v = math.NaN()
			col.Invalid++
		}
		col.Values = append(col.Values, v)
	}

	if len(col.Values) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoValues, column)
	}
	return col, nil
}
