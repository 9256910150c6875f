// Package spreadsheet reads uploaded claim sheets into raw cells and writes
// tabular results back out as .xlsx workbooks.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hitpa/claimupload/internal/claimxml"
	"github.com/xuri/excelize/v2"
)

// ErrUnreadable is returned when an upload cannot be parsed as a sheet.
var ErrUnreadable = errors.New("spreadsheet unreadable")

// ErrNoHeader is returned when the sheet has no header row.
var ErrNoHeader = errors.New("spreadsheet has no header row")

// Sheet is the content of one uploaded file: the header row and the data
// rows as raw cells.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []claimxml.Row
}

// Format is the file format of an upload.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the format from the file extension, defaulting to xlsx.
func DetectFormat(fileName string) Format {
	if strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}

// Read parses data according to the extension of fileName.
func Read(fileName string, data []byte) (*Sheet, error) {
	switch DetectFormat(fileName) {
	case FormatCSV:
		return ReadCSV(bytes.NewReader(data))
	default:
		return ReadXLSX(bytes.NewReader(data))
	}
}

// ReadXLSX reads the first worksheet of a workbook. Cell values are taken
// raw, so date cells arrive as serial numbers and long numbers keep the
// notation the workbook stored.
func ReadXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadable, name, err)
	}

	sheet, err := fromRecords(rows)
	if err != nil {
		return nil, err
	}
	sheet.Name = name
	return sheet, nil
}

// ReadCSV reads a comma-separated file with a header row. A UTF-8 byte
// order mark is skipped.
func ReadCSV(r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(textSource(r))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", ErrUnreadable, err)
	}
	return fromRecords(records)
}

// fromRecords splits the header row off and classifies every cell.
// Fully blank data rows are skipped.
func fromRecords(records [][]string) (*Sheet, error) {
	if len(records) == 0 || isBlank(records[0]) {
		return nil, ErrNoHeader
	}

	sheet := &Sheet{Headers: records[0]}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := claimxml.Row{Cells: make([]claimxml.Cell, len(rec))}
		for i, raw := range rec {
			row.Cells[i] = claimxml.ParseCell(raw)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
