package claimxml

import (
	"math"
	"strconv"
	"strings"
)

// CellKind identifies the kind of raw value a spreadsheet cell holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
)

// Cell is a raw spreadsheet value before cleaning.
type Cell struct {
	Kind CellKind
	// Text is the literal value as stored by the spreadsheet. For numbers it
	// keeps the stored notation (e.g. "1.23E+11").
	Text string
	// Number is set for CellNumber.
	Number float64
}

// EmptyCell returns a missing value.
func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

// TextCell returns a free-text value.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// NumberCell returns a numeric value whose stored text is the shortest
// decimal representation of f.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f, Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// ParseCell classifies a raw stored value: blank is empty, anything that
// parses as a finite float is a number and everything else is text.
func ParseCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return EmptyCell()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Cell{Kind: CellNumber, Number: f, Text: trimmed}
	}
	return TextCell(raw)
}

// IsMissing reports whether the cell counts as a missing value:
// empty, NaN, or text that is blank after trimming.
func (c Cell) IsMissing() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellNumber:
		return math.IsNaN(c.Number)
	default:
		return strings.TrimSpace(c.Text) == ""
	}
}

// String returns the trimmed string form of the cell.
func (c Cell) String() string {
	if c.IsMissing() {
		return ""
	}
	if c.Kind == CellNumber && c.Text == "" {
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return strings.TrimSpace(c.Text)
}

// Row is one spreadsheet data row, cells in header column order.
type Row struct {
	Cells []Cell
}

// Cell returns the cell under column i, or an empty cell when the row is
// shorter than the header row.
func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r.Cells) {
		return EmptyCell()
	}
	return r.Cells[i]
}
