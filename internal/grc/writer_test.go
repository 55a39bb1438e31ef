package grc

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func testRows(t *testing.T) [][]string {
	t.Helper()
	return [][]string{
		MustFormatRow("GPS", "hpe", "l1", "July-2021", 1.5, WithStation("brux")),
		MustFormatRow("Galileo", "vpe", "e1", "July-2021", 2.25, WithStation("mas1")),
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	for _, row := range testRows(t) {
		if err := w.Write(row); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d records", len(records))
	}
	if records[0][0] != "Constellation" || records[0][16] != "Result" {
		t.Errorf("Expected header first, got %v", records[0])
	}
	if records[2][8] != "Maspalomas (Spain)" || records[2][16] != "2.25000" {
		t.Errorf("Unexpected row %v", records[2])
	}
	if w.Rows() != 2 {
		t.Errorf("Expected 2 rows, got %d", w.Rows())
	}

	if err = w.Write([]string{"short"}); err == nil {
		t.Errorf("Expected error for short row")
	}
}

func TestCSVWriter_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	if err := w.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected header only, got %d records", len(records))
	}
	if len(records[0]) != len(Header()) || records[0][0] != "Constellation" {
		t.Errorf("Expected header, got %v", records[0])
	}
	if w.Rows() != 0 {
		t.Errorf("Expected 0 rows, got %d", w.Rows())
	}

	// a second flush does not repeat the header
	if err = w.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected nothing more written, got %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grc.xlsx")
	if err := WriteXLSX(path, testRows(t)); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("Failed to read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[1][9] != "BRUX" || rows[1][16] != "1.50000" {
		t.Errorf("Unexpected row %v", rows[1])
	}
}
