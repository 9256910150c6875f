package spreadsheet

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textSource prepares CSV bytes for encoding/csv: a leading UTF-8 BOM is
// dropped and bytes that are not valid UTF-8 become '?'.
func textSource(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return &utf8Sanitizer{r: br}
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' while streaming.
// A multi-byte rune split across reads is held back until it completes.
type utf8Sanitizer struct {
	r     io.Reader
	chunk []byte
	raw   []byte // read but not yet decoded
	out   []byte // decoded but not yet returned
	err   error
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		if s.chunk == nil {
			s.chunk = make([]byte, 4096)
		}
		n, err := s.r.Read(s.chunk)
		s.raw = append(s.raw, s.chunk[:n]...)
		s.err = err
		s.decode(err != nil)
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// decode moves every complete rune from raw to out.
func (s *utf8Sanitizer) decode(atEOF bool) {
	i := 0
	for i < len(s.raw) {
		if b := s.raw[i]; b < utf8.RuneSelf {
			s.out = append(s.out, b)
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(s.raw[i:]) {
			break
		}
		r, size := utf8.DecodeRune(s.raw[i:])
		if r == utf8.RuneError && size == 1 {
			s.out = append(s.out, '?')
		} else {
			s.out = append(s.out, s.raw[i:i+size]...)
		}
		i += size
	}
	s.raw = append(s.raw[:0], s.raw[i:]...)
}
