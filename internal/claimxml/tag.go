package claimxml

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeTag converts a spreadsheet column header into a field tag:
// surrounding whitespace is trimmed, each run of spaces becomes a single
// underscore and the result is uppercased.
//
// NormalizeTag never fails. An empty header yields an empty tag.
func NormalizeTag(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(header))

	inSpaces := false
	for _, r := range header {
		if r == ' ' {
			if !inSpaces {
				b.WriteByte('_')
				inSpaces = true
			}
			continue
		}
		inSpaces = false
		b.WriteRune(r)
	}

	return strings.ToUpper(b.String())
}

// SafeElementName maps a tag to a legal XML element name.
// Legal names pass through unchanged. Otherwise invalid runes become '_'
// and a name that cannot start an element (empty, leading digit, '.', '-')
// is prefixed with '_'.
func SafeElementName(tag string) string {
	if isXMLName(tag) {
		return tag
	}

	var b strings.Builder
	b.Grow(len(tag) + 1)

	first, _ := utf8.DecodeRuneInString(tag)
	if tag == "" || !isNameStart(first) {
		b.WriteByte('_')
	}
	for _, r := range tag {
		if isNameChar(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isNameStart(r) {
				return false
			}
			continue
		}
		if !isNameChar(r) {
			return false
		}
	}
	return true
}

// Colons are excluded so tags never introduce namespace prefixes.
func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.' ||
		unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}
