package claimxml

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Output layouts for date fields.
const (
	DateLayout     = "02/01/2006"
	DateTimeLayout = "02/01/2006 15:04"
)

var (
	nonNumericRe     = regexp.MustCompile(`[^0-9.]`)
	restrictedTextRe = regexp.MustCompile(`[^\p{L}\p{N}\s.,]`)
)

// Policy holds the tag rules the cleaner applies. Tags are compared after
// normalization, so every entry must already be uppercase.
type Policy struct {
	NumericPrefix     string
	NumericExceptions []string

	DatePrefix string
	// TimeMarkers: a date tag containing any of these also carries HH:MM.
	TimeMarkers []string

	// RestrictedText lists free-text tags stripped down to letters, digits,
	// whitespace, commas and dots.
	RestrictedText []string
}

// DefaultPolicy returns the insurer's field rules.
func DefaultPolicy() Policy {
	return Policy{
		NumericPrefix:     "NUM_",
		NumericExceptions: []string{"NUM_IFSC_CODE"},
		DatePrefix:        "DAT_",
		TimeMarkers:       []string{"INTIMATION", "PREAUTH", "DISCHARGE"},
		RestrictedText: []string{
			"TXT_DIAGNOSIS_CODE_LEVEL1",
			"TXT_NAME_OF_HOSPITAL_CLINIC",
			"TXT_ADDRESS_OF_HOSPITAL_CLINIC",
		},
	}
}

// IsNumeric reports whether the numeric rule applies to tag.
func (p Policy) IsNumeric(tag string) bool {
	return p.NumericPrefix != "" && strings.HasPrefix(tag, p.NumericPrefix) && !slices.Contains(p.NumericExceptions, tag)
}

// IsDate reports whether the date rule applies to tag.
func (p Policy) IsDate(tag string) bool {
	return p.DatePrefix != "" && strings.HasPrefix(tag, p.DatePrefix)
}

// WantsTime reports whether a date tag is rendered with a time of day.
func (p Policy) WantsTime(tag string) bool {
	for _, m := range p.TimeMarkers {
		if strings.Contains(tag, m) {
			return true
		}
	}
	return false
}

// IsRestrictedText reports whether the restricted free-text rule applies.
func (p Policy) IsRestrictedText(tag string) bool {
	return slices.Contains(p.RestrictedText, tag)
}

// Clean returns the cleaned string value of cell for tag. Rules apply in
// order (missing, numeric, date, restricted text), each on top of the
// previous output. Clean never panics: a rule that cannot parse its input
// leaves the last good string in place.
func (p Policy) Clean(tag string, cell Cell) string {
	if cell.IsMissing() {
		return ""
	}
	value := cell.String()

	if p.IsNumeric(tag) {
		value = cleanNumeric(value)
	}

	if p.IsDate(tag) {
		value = formatDate(cell, p.WantsTime(tag))
	}

	if p.IsRestrictedText(tag) {
		value = strings.TrimSpace(restrictedTextRe.ReplaceAllString(value, ""))
	}

	return value
}

// Clean applies DefaultPolicy.
func Clean(tag string, cell Cell) string {
	return DefaultPolicy().Clean(tag, cell)
}

// cleanNumeric undoes scientific notation (spreadsheets turn long account
// numbers into 1.23E+11) and keeps only digits and dots.
func cleanNumeric(value string) string {
	if strings.ContainsAny(value, "eE") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			value = strconv.FormatFloat(f, 'f', 0, 64)
		}
	}
	return nonNumericRe.ReplaceAllString(value, "")
}

// formatDate renders a date cell, falling back to the raw string form.
func formatDate(cell Cell, withTime bool) string {
	t, err := ParseCellDate(cell)
	if err != nil {
		return cell.String()
	}
	if withTime {
		return t.Format(DateTimeLayout)
	}
	return t.Format(DateLayout)
}
