package grc

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "GRC"

// CSVWriter writes GRC rows as comma separated values, preceded by the header.
type CSVWriter struct {
	buf    *bufio.Writer
	csv    *csv.Writer
	header bool
	rows   int
}

// NewCSVWriter creates a buffered CSV writer. Call Flush when done.
func NewCSVWriter(w io.Writer) *CSVWriter {
	buf := bufio.NewWriter(w)
	return &CSVWriter{buf: buf, csv: csv.NewWriter(buf)}
}

// Write writes one row, and the header before the first one.
func (w *CSVWriter) Write(row []string) error {
	if len(row) != len(header) {
		return fmt.Errorf("row has %d fields, expected %d", len(row), len(header))
	}
	if err := w.writeHeader(); err != nil {
		return err
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of rows written, header excluded.
func (w *CSVWriter) Rows() int {
	return w.rows
}

func (w *CSVWriter) writeHeader() error {
	if w.header {
		return nil
	}
	if err := w.csv.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	w.header = true
	return nil
}

// Flush writes buffered rows to the underlying writer. A report without rows still gets the header.
func (w *CSVWriter) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.buf.Flush()
}

// WriteXLSX writes the header and rows to a single sheet spreadsheet at path.
func WriteXLSX(path string, rows [][]string) (err error) {
	f := excelize.NewFile()
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err = f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	for i, row := range append([][]string{header}, rows...) {
		if len(row) != len(header) {
			return fmt.Errorf("row %d has %d fields, expected %d", i, len(row), len(header))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err = f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	steps := []struct {
		msg string
		fn  func(*excelize.File) error
	}{
		{"styling header", styleHeader},
		{"freezing header", freezeHeader},
	}
	for _, step := range steps {
		if err = step.fn(f); err != nil {
			return fmt.Errorf("%s: %w", step.msg, err)
		}
	}

	if err = f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func styleHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err = f.SetCellStyle(sheetName, "A1", last, style); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheetName, "A", lastCol, 18)
}

func freezeHeader(f *excelize.File) error {
	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
