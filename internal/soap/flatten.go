package soap

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// RecordElement is the element whose children become one table row.
const RecordElement = "RECORD"

// Table is a flattened response: one row per record element, one column per
// distinct child element name in first-seen order.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Cell returns the value of column in row i and whether the record had it.
func (t Table) Cell(i int, column string) (string, bool) {
	if i < 0 || i >= len(t.Rows) {
		return "", false
	}
	v, ok := t.Rows[i][column]
	return v, ok
}

// Values returns row i as a slice aligned with Columns; absent cells are
// empty strings.
func (t Table) Values(i int) []string {
	out := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = t.Rows[i][c]
	}
	return out
}

// Flatten extracts every RECORD element of doc, nested ones included, into
// a Table with rows in document order. A cell is the leading text of the
// record's immediate child, trimmed. Input that is not well-formed yields an
// empty table and the decoder error.
func Flatten(doc string) (Table, error) {
	t, err := flatten(doc)
	if err != nil {
		return Table{}, err
	}
	return t, nil
}

// recordFrame tracks one open RECORD element.
type recordFrame struct {
	row   int
	depth int

	child   string // open immediate child, "" between children
	leading bool   // no element has started inside child yet
	text    strings.Builder
}

func flatten(doc string) (Table, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))

	var (
		rows   []map[string]string
		keys   [][]string
		frames []*recordFrame
		depth  int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			for _, f := range frames {
				if f.child != "" && depth > f.depth+1 {
					f.leading = false
				}
			}
			if n := len(frames); n > 0 && depth == frames[n-1].depth+1 {
				f := frames[n-1]
				f.child = t.Name.Local
				f.leading = true
				f.text.Reset()
				if _, ok := rows[f.row][f.child]; !ok {
					rows[f.row][f.child] = ""
					keys[f.row] = append(keys[f.row], f.child)
				}
			}
			if t.Name.Local == RecordElement {
				frames = append(frames, &recordFrame{row: len(rows), depth: depth})
				rows = append(rows, make(map[string]string))
				keys = append(keys, nil)
			}
		case xml.CharData:
			for _, f := range frames {
				if f.child != "" && f.leading && depth == f.depth+1 {
					f.text.Write(t)
				}
			}
		case xml.EndElement:
			if n := len(frames); n > 0 && frames[n-1].depth == depth {
				frames = frames[:n-1]
			}
			for _, f := range frames {
				if f.child != "" && depth == f.depth+1 {
					rows[f.row][f.child] = strings.TrimSpace(f.text.String())
					f.child = ""
				}
			}
			depth--
		}
	}

	var table Table
	seen := make(map[string]bool)
	for i, row := range rows {
		for _, k := range keys[i] {
			if !seen[k] {
				seen[k] = true
				table.Columns = append(table.Columns, k)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
