package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

var (
	// ErrResultTagNotFound is returned when the response envelope holds none
	// of the known result elements.
	ErrResultTagNotFound = errors.New("result tag not found in SOAP response")

	// ErrInnerPayload is returned when the unescaped payload is not
	// well-formed XML.
	ErrInnerPayload = errors.New("inner payload is not well-formed XML")
)

var (
	xmlDeclRe   = regexp.MustCompile(`<\?xml.*?\?>`)
	lineBreakRe = regexp.MustCompile(`(?i)<BR\s*/?>`)
	boldRe      = regexp.MustCompile(`(?i)</?B>`)
)

// Unwrapper extracts the inner XML payload from response envelopes.
type Unwrapper struct {
	results map[string]bool
}

// NewUnwrapper accepts any of the given result element names.
func NewUnwrapper(resultElements []string) *Unwrapper {
	u := &Unwrapper{results: make(map[string]bool, len(resultElements))}
	for _, r := range resultElements {
		u.results[r] = true
	}
	return u
}

// DefaultUnwrapper knows the result elements of DefaultServiceMap.
func DefaultUnwrapper() *Unwrapper {
	return NewUnwrapper(DefaultServiceMap("").ResultElements())
}

// Extract returns the decoded text of the first known result element in
// document order, with HTML entities unescaped a second time.
func (u *Unwrapper) Extract(raw string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", ErrResultTagNotFound
		}
		if err != nil {
			return "", fmt.Errorf("parse SOAP envelope: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || !u.results[start.Name.Local] {
			continue
		}

		text, err := elementText(dec)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", start.Name.Local, err)
		}
		return html.UnescapeString(text), nil
	}
}

// elementText collects the character data directly inside the element whose
// start tag was just read.
func elementText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return b.String(), nil
			}
			depth--
		case xml.CharData:
			if depth == 0 {
				b.Write(t)
			}
		}
	}
}

// CleanPayload repairs the service's payload so it parses: the declaration
// is dropped, \" becomes ", <BR/> becomes a newline and <B> markers go.
func CleanPayload(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(xmlDeclRe.ReplaceAllString(s, ""))
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = boldRe.ReplaceAllString(s, "")
	return s
}

// Unwrap extracts, cleans and pretty-prints the inner payload of raw.
func (u *Unwrapper) Unwrap(raw string) (string, error) {
	inner, err := u.Extract(raw)
	if err != nil {
		return "", err
	}
	pretty, err := PrettyPrint(CleanPayload(inner))
	if err != nil {
		return "", err
	}
	return pretty, nil
}

// Unwrap uses DefaultUnwrapper.
func Unwrap(raw string) (string, error) {
	return DefaultUnwrapper().Unwrap(raw)
}

// PrettyPrint re-indents a well-formed XML document with two spaces and a
// leading XML declaration. Whitespace-only text between elements is
// dropped. Malformed input yields ErrInnerPayload.
func PrettyPrint(doc string) (string, error) {
	if err := checkWellFormed(doc); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	dec := xml.NewDecoder(strings.NewReader(doc))
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInnerPayload, err)
		}

		switch t := tok.(type) {
		case xml.ProcInst:
			continue
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			tok = t.Copy()
		case xml.StartElement:
			tok = flattenPrefixes(t)
		case xml.EndElement:
			tok = xml.EndElement{Name: prefixed(t.Name)}
		}

		if err := enc.EncodeToken(tok); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInnerPayload, err)
		}
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func checkWellFormed(doc string) error {
	dec := xml.NewDecoder(strings.NewReader(doc))
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInnerPayload, err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawRoot = true
		}
	}
	if !sawRoot {
		return fmt.Errorf("%w: no root element", ErrInnerPayload)
	}
	return nil
}

// flattenPrefixes keeps namespace prefixes as written instead of letting the
// encoder invent its own.
func flattenPrefixes(t xml.StartElement) xml.StartElement {
	out := xml.StartElement{Name: prefixed(t.Name), Attr: make([]xml.Attr, len(t.Attr))}
	for i, a := range t.Attr {
		out.Attr[i] = xml.Attr{Name: prefixed(a.Name), Value: a.Value}
	}
	return out
}

func prefixed(n xml.Name) xml.Name {
	if n.Space == "" {
		return xml.Name{Local: n.Local}
	}
	return xml.Name{Local: n.Space + ":" + n.Local}
}
