package claimxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// Element names of the insurer's input schema.
const (
	RootElement   = "INPUT"
	RecordElement = "RECORD"
)

// ErrNotClaimDocument is returned by Parse for input that is not an
// INPUT/RECORD document.
var ErrNotClaimDocument = errors.New("not a claim document")

// Serialize renders doc as UTF-8 XML without a declaration:
// <INPUT><RECORD><TAG>value</TAG>...</RECORD>...</INPUT>.
// An empty document renders as <INPUT></INPUT>.
func Serialize(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Encode writes doc to w. Tags that are not legal XML names are written
// under the name SafeElementName gives them.
func Encode(w io.Writer, doc Document) error {
	enc := xml.NewEncoder(w)

	root := xml.StartElement{Name: xml.Name{Local: RootElement}}
	if err := enc.EncodeToken(root); err != nil {
		return fmt.Errorf("encode root: %w", err)
	}

	for i, rec := range doc.Records {
		if err := encodeRecord(enc, rec); err != nil {
			return fmt.Errorf("encode record %d: %w", i+1, err)
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return fmt.Errorf("encode root: %w", err)
	}
	return enc.Flush()
}

func encodeRecord(enc *xml.Encoder, rec Record) error {
	start := xml.StartElement{Name: xml.Name{Local: RecordElement}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, f := range rec.Fields {
		el := xml.StartElement{Name: xml.Name{Local: SafeElementName(f.Tag)}}
		if err := enc.EncodeToken(el); err != nil {
			return err
		}
		if f.Value != "" {
			if err := enc.EncodeToken(xml.CharData(f.Value)); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// Parse reads a document produced by Serialize back into records.
// Field tags are the element names as written. Input without any element
// is not a claim document.
func Parse(r io.Reader) (Document, error) {
	dec := xml.NewDecoder(r)

	var (
		doc   Document
		rec   *Record
		field  *Field
		depth  int
		rooted bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrNotClaimDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				rooted = true
				if t.Name.Local != RootElement {
					return Document{}, fmt.Errorf("%w: root is <%s>, want <%s>", ErrNotClaimDocument, t.Name.Local, RootElement)
				}
			case 2:
				rec = &Record{}
			case 3:
				field = &Field{Tag: t.Name.Local}
			}
		case xml.CharData:
			if depth == 3 && field != nil {
				field.Value += string(t)
			}
		case xml.EndElement:
			switch depth {
			case 3:
				if rec != nil && field != nil {
					rec.Fields = append(rec.Fields, *field)
				}
				field = nil
			case 2:
				if rec != nil && t.Name.Local == RecordElement {
					doc.Records = append(doc.Records, *rec)
				}
				rec = nil
			}
			depth--
		}
	}
	if !rooted {
		return Document{}, fmt.Errorf("%w: no root element", ErrNotClaimDocument)
	}
	return doc, nil
}
