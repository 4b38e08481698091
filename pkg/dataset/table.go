package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/risk"
	"github.com/oralsmart/riskctl/pkg/train"
)

const (
	// LabelColumn follows the feature columns in every table.
	LabelColumn = "risk_level"

	sheetName = "training"
)

// Row is one labeled, encoded assessment.
type Row struct {
	Vector features.Vector
	Label  risk.Label
}

// Table is a training table in schema column order.
type Table struct {
	Rows []Row
}

// Header returns the required table header.
func Header() []string {
	return append(features.Columns(), LabelColumn)
}

// Samples converts the table for training.
func (t *Table) Samples() []train.Sample {
	out := make([]train.Sample, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = train.Sample{Features: r.Vector.Slice(), Label: r.Label}
	}
	return out
}

// Counts returns the number of rows per label.
func (t *Table) Counts() map[risk.Label]int {
	m := make(map[risk.Label]int)
	for _, r := range t.Rows {
		m[r.Label]++
	}
	return m
}

func isXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// ReadTable reads a .csv or .xlsx training table.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening table %s: %w", path, err)
	}
	defer f.Close()
	if isXLSX(path) {
		return ReadXLSX(f)
	}
	return ReadCSV(f)
}

// WriteTable writes a .csv or .xlsx training table.
func WriteTable(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating table %s: %w", path, err)
	}
	if isXLSX(path) {
		err = WriteXLSX(f, t)
	} else {
		err = WriteCSV(f, t)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadCSV parses a CSV training table. The header must match Header exactly.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed csv: %w", risk.ErrData, err)
	}
	return parseRecords(records)
}

// WriteCSV writes the table with its header.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}
	rec := make([]string, features.Width+1)
	for _, r := range t.Rows {
		for i, v := range r.Vector {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		rec[features.Width] = r.Label.String()
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("error writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadXLSX parses the first sheet of a workbook as a training table.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse workbook: %w", risk.ErrData, err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", risk.ErrData)
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %w", risk.ErrData, err)
	}
	return parseRecords(rows)
}

// WriteXLSX writes the table to a single-sheet workbook.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	for col, h := range Header() {
		if err := setCell(f, col+1, 1, h); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(features.Width+1, 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, r := range t.Rows {
		row := i + 2
		for col, v := range r.Vector {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
		if err := setCell(f, features.Width+1, row, r.Label.String()); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}

func parseRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: table is empty", risk.ErrData)
	}
	want := Header()
	got := records[0]
	if !slices.Equal(got, want) {
		return nil, fmt.Errorf("%w: %s", risk.ErrData, headerMismatch(got, want))
	}

	t := &Table{Rows: make([]Row, 0, len(records)-1)}
	var errs []error
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) != len(want) {
			errs = append(errs, fmt.Errorf("row %d has %d columns, want %d", line, len(rec), len(want)))
			continue
		}
		var row Row
		ok := true
		for j := 0; j < features.Width; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("row %d column %s: %q is not a number", line, want[j], rec[j]))
				ok = false
				break
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				errs = append(errs, fmt.Errorf("row %d column %s: %q is not a finite number", line, want[j], rec[j]))
				ok = false
				break
			}
			row.Vector[j] = v
		}
		if !ok {
			continue
		}
		l, err := risk.ParseLabel(rec[features.Width])
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %q is not a risk level", line, rec[features.Width]))
			continue
		}
		row.Label = l
		t.Rows = append(t.Rows, row)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", risk.ErrData, errors.Join(errs...))
	}
	return t, nil
}

func headerMismatch(got, want []string) string {
	if len(got) != len(want) {
		return fmt.Sprintf("header has %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Sprintf("header column %d is %q, want %q", i+1, got[i], want[i])
		}
	}
	return "header mismatch"
}
