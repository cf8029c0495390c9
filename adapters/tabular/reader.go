// Package tabular reads observed datasets from CSV and Excel files into
// frames. All values must be numeric or parseable timestamps; categorical
// variables are expected to arrive as numeric level codes.
package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/ports"
)

// Reader loads a CSV or XLSX file into a frame.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
}

var _ ports.DatasetReader = (*Reader)(nil)

// NewReader creates a reader for the given file; the type is inferred from
// the extension.
func NewReader(filePath string) *Reader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &Reader{filePath: filePath, fileType: fileType, sheet: "Sheet1"}
}

// WithSheet selects the Excel sheet to read (default Sheet1).
func (r *Reader) WithSheet(sheet string) *Reader {
	r.sheet = sheet
	return r
}

// Read loads the file. When indexColumn is non-empty that column becomes the
// frame's index (times are converted to epoch seconds); otherwise the frame
// is indexed by row order.
func (r *Reader) Read(indexColumn string) (*dataset.Frame, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	case "xlsx":
		rows, err = r.readXLSX()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	return frameFromRows(rows, indexColumn)
}

func (r *Reader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return records, nil
}

func (r *Reader) readXLSX() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", r.sheet, err)
	}
	return rows, nil
}

func frameFromRows(rows [][]string, indexColumn string) (*dataset.Frame, error) {
	if len(rows) < 2 {
		return nil, core.NewDataValidationError("file", "needs a header row and at least one data row")
	}
	header := rows[0]
	indexPos := -1
	if indexColumn != "" {
		for i, name := range header {
			if name == indexColumn {
				indexPos = i
				break
			}
		}
		if indexPos < 0 {
			return nil, core.NewColumnError(indexColumn)
		}
	}

	names := make([]string, 0, len(header))
	columns := make(map[string][]float64, len(header))
	for i, name := range header {
		if i == indexPos {
			continue
		}
		names = append(names, name)
		columns[name] = make([]float64, 0, len(rows)-1)
	}
	index := make([]float64, 0, len(rows)-1)

	for rowNum, row := range rows[1:] {
		for i, name := range header {
			if i >= len(row) {
				return nil, core.NewDataValidationError(name,
					fmt.Sprintf("missing value at data row %d", rowNum+1))
			}
			v, err := parseValue(row[i])
			if err != nil {
				return nil, core.NewDataValidationError(name,
					fmt.Sprintf("row %d: %v", rowNum+1, err))
			}
			if i == indexPos {
				index = append(index, v)
			} else {
				columns[name] = append(columns[name], v)
			}
		}
	}

	if indexPos < 0 {
		return dataset.NewRowOrdered(names, columns)
	}
	return dataset.New(index, names, columns)
}

// parseValue accepts numbers and common timestamp layouts; timestamps map
// to epoch seconds so they stay sortable alongside numeric indices.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.Unix()), nil
		}
	}
	return 0, fmt.Errorf("value %q is neither numeric nor a timestamp", s)
}
