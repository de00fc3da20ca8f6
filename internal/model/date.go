package model

import (
	"strings"
	"time"
)

// DateLayout is the canonical day format for stored dates.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02-Jan-2006",
}

// ParseDate parses common date spellings found in job board exports.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SameDay reports whether a and b parse to the same calendar day. The second
// result is false when either side does not parse.
func SameDay(a, b string) (same bool, comparable bool) {
	ta, ok := ParseDate(a)
	if !ok {
		return false, false
	}
	tb, ok := ParseDate(b)
	if !ok {
		return false, false
	}
	return ta.Format(DateLayout) == tb.Format(DateLayout), true
}

// NormalizeDate renders a parseable date as YYYY-MM-DD and returns other
// values unchanged.
func NormalizeDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format(DateLayout)
	}
	return strings.TrimSpace(s)
}
