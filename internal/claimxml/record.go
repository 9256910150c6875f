package claimxml

import (
	"errors"
	"fmt"
)

// ErrTagCollision is returned in strict mode when two headers of the same
// sheet normalize to one tag.
var ErrTagCollision = errors.New("tag collision")

// Field is one tag/value pair of a record.
type Field struct {
	Tag   string
	Value string
}

// Record is one row's cleaned fields in column order.
type Record struct {
	Fields []Field
}

// Set stores value under tag. An existing tag keeps its position and takes
// the new value (last write wins).
func (r *Record) Set(tag, value string) {
	for i := range r.Fields {
		if r.Fields[i].Tag == tag {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Tag: tag, Value: value})
}

// Document is the root container of all converted records.
type Document struct {
	Records []Record
}

// Len returns the number of records.
func (d Document) Len() int { return len(d.Records) }

// Converter turns spreadsheet rows into a Document.
type Converter struct {
	Policy Policy
	// StrictTags rejects sheets whose headers collide after normalization
	// instead of letting the later column overwrite the earlier one.
	StrictTags bool
}

// NewConverter returns a converter using DefaultPolicy.
func NewConverter() *Converter {
	return &Converter{Policy: DefaultPolicy()}
}

// Convert cleans every cell of every row. Each header produces exactly one
// field per record, even when the cleaned value is empty.
func (c *Converter) Convert(headers []string, rows []Row) (Document, error) {
	tags := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		tag := NormalizeTag(h)
		if prev, dup := seen[tag]; dup && c.StrictTags {
			return Document{}, fmt.Errorf("%w: columns %q and %q both map to %q",
				ErrTagCollision, headers[prev], h, tag)
		}
		seen[tag] = i
		tags[i] = tag
	}

	doc := Document{Records: make([]Record, 0, len(rows))}
	for _, row := range rows {
		rec := Record{Fields: make([]Field, 0, len(tags))}
		for i, tag := range tags {
			rec.Set(tag, c.Policy.Clean(tag, row.Cell(i)))
		}
		doc.Records = append(doc.Records, rec)
	}
	return doc, nil
}
