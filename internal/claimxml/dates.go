package claimxml

// dates.go turns spreadsheet date cells into time.Time values.
//
// Spreadsheets store dates two ways: as a serial day number formatted to
// look like a date, or as free text typed by the user. Serials count days
// from 1899-12-30 with the fraction holding the time of day. Text dates in
// this domain are written day-first (31/01/2024), so day-first layouts are
// tried first. A numeric date that cannot be day-first (01/13/2021) is read
// month-first.

import (
	"errors"
	"math"
	"strings"
	"time"
)

// SerialEpoch is day zero of spreadsheet date serials.
var SerialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ErrUnparsableDate is returned when no known layout matches.
var ErrUnparsableDate = errors.New("unparsable date")

// maxSerial bounds serials to year 9999 so the conversion cannot overflow.
const maxSerial = 2958465

var (
	dayFirstLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
		"2/1/2006 15:04", "02/01/2006 15:04", "02/01/2006 15:04:05", "2/1/2006 15:04:05",
		"02-01-2006 15:04", "02-01-2006 15:04:05",
		"2/1/2006 3:04 PM", "02/01/2006 03:04 PM", "02/01/2006 03:04:05 PM",
		"2-Jan-2006", "02-Jan-2006", "2 Jan 2006", "02 Jan 2006", "2 January 2006",
		"2-Jan-06", "02-Jan-06",
		"2/1/06", "02/01/06",
	}
	monthFirstLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
		"1/2/2006 15:04", "01/02/2006 15:04", "1/2/2006 15:04:05", "01/02/2006 15:04:05",
		"1-2-2006 15:04", "01-02-2006 15:04", "1-2-2006 15:04:05", "01-02-2006 15:04:05",
		"1/2/2006 3:04 PM", "01/02/2006 03:04 PM", "01/02/2006 03:04:05 PM",
	}
	isoLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339, time.RFC3339Nano,
		"20060102",
	}
	monthNameLayouts = []string{
		"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "Mon Jan 2 15:04:05 2006",
	}
)

// SerialToTime converts a spreadsheet date serial to a time.
// The fractional part is rounded to the nearest second.
func SerialToTime(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < -maxSerial || serial > maxSerial {
		return time.Time{}, ErrUnparsableDate
	}
	seconds := math.Round(serial * 86400)
	return SerialEpoch.Add(time.Duration(seconds) * time.Second), nil
}

// ParseDayFirst parses a free-text date, preferring day-before-month
// ordering for ambiguous numeric dates.
func ParseDayFirst(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, ErrUnparsableDate
	}

	for _, group := range [][]string{isoLayouts, dayFirstLayouts, monthFirstLayouts, monthNameLayouts} {
		for _, layout := range group {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, ErrUnparsableDate
}

// ParseCellDate interprets a cell as a date: numbers are serials, text is
// parsed day-first.
func ParseCellDate(c Cell) (time.Time, error) {
	switch c.Kind {
	case CellNumber:
		return SerialToTime(c.Number)
	case CellText:
		return ParseDayFirst(c.Text)
	default:
		return time.Time{}, ErrUnparsableDate
	}
}
