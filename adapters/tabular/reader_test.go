package tabular

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write CSV fixture: %v", err)
	}
	return path
}

func TestReadCSVWithIndexColumn(t *testing.T) {
	path := writeCSV(t, "t,y,group\n1,10,0\n2,20,0\n3,30,1\n")

	frame, err := NewReader(path).Read("t")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if frame.Len() != 3 {
		t.Fatalf("Expected 3 rows, got %d", frame.Len())
	}
	if frame.IndexAt(0) != 1 || frame.IndexAt(2) != 3 {
		t.Errorf("Unexpected index: %v", frame.Index())
	}
	// The index column is not duplicated as a data column.
	if frame.HasColumn("t") {
		t.Error("Expected index column to be consumed")
	}
	y, err := frame.Column("y")
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}
	if y[1] != 20 {
		t.Errorf("Expected y[1] = 20, got %v", y[1])
	}
}

func TestReadCSVRowOrdered(t *testing.T) {
	path := writeCSV(t, "y\n5\n6\n7\n")

	frame, err := NewReader(path).Read("")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if frame.Len() != 3 {
		t.Fatalf("Expected 3 rows, got %d", frame.Len())
	}
	if frame.IndexAt(0) != 0 || frame.IndexAt(2) != 2 {
		t.Errorf("Expected a row-ordered index, got %v", frame.Index())
	}
}

func TestReadCSVTimestampIndex(t *testing.T) {
	path := writeCSV(t, "date,y\n2020-01-01,1\n2020-01-02,2\n")

	frame, err := NewReader(path).Read("date")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	day1, _ := time.Parse("2006-01-02", "2020-01-01")
	if frame.IndexAt(0) != float64(day1.Unix()) {
		t.Errorf("Expected epoch-seconds index, got %v", frame.IndexAt(0))
	}
	// Epoch conversion keeps the ordering.
	if frame.IndexAt(1) <= frame.IndexAt(0) {
		t.Errorf("Expected increasing index, got %v then %v", frame.IndexAt(0), frame.IndexAt(1))
	}
}

func TestReadCSVErrors(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.csv")).Read(""); err == nil {
		t.Error("Expected error for a missing file")
	}

	path := writeCSV(t, "y\n")
	if _, err := NewReader(path).Read(""); err == nil {
		t.Error("Expected error for a header-only file")
	}

	path = writeCSV(t, "y\nnot-a-number\n")
	if _, err := NewReader(path).Read(""); err == nil {
		t.Error("Expected error for a non-numeric value")
	}

	path = writeCSV(t, "y\n1\n")
	if _, err := NewReader(path).Read("nope"); err == nil {
		t.Error("Expected error for an unknown index column")
	}
}

func TestParseValue(t *testing.T) {
	if v, err := parseValue(" 2.5 "); err != nil || v != 2.5 {
		t.Errorf("Expected 2.5, got %v (%v)", v, err)
	}
	if _, err := parseValue("abc"); err == nil {
		t.Error("Expected error for a non-value")
	}
	ts, err := parseValue("2021-06-01 12:00:00")
	if err != nil {
		t.Fatalf("parseValue failed: %v", err)
	}
	want, _ := time.Parse("2006-01-02 15:04:05", "2021-06-01 12:00:00")
	if ts != float64(want.Unix()) {
		t.Errorf("Expected %v, got %v", float64(want.Unix()), ts)
	}
}
