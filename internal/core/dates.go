package core

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the day-month-year convention used by vouchers and by the
// date_range output, e.g. "15-Oct-23".
const DateLayout = "02-Jan-06"

// monthsByPrefix maps lower-case three letter month prefixes to month numbers.
var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// genericLayouts are tried in order for strings without a hyphen.
// Ambiguous numeric forms are read month first; dayFirstLayouts only run when
// none of these match.
var genericLayouts = []string{
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006.01.02",
	"01.02.2006",
	"1.2.2006",
	"20060102",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2006",
	"January 2006",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006",
}

// dayFirstLayouts read numeric dates whose first field cannot be a month.
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2/1/06",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// dateStrategy is one named way of reading a date. The first strategy whose
// claims func accepts a value owns it: its parse result is final, even when
// it fails.
type dateStrategy struct {
	name   string
	claims func(Value) bool
	parse  func(Value) (time.Time, bool)
}

var dateStrategies = []dateStrategy{
	{name: "timestamp", claims: isTimestamp, parse: passThrough},
	{name: "day-mon-yy", claims: isHyphenated, parse: parseDayMonYY},
	{name: "generic", claims: isPlainString, parse: parseGeneric},
}

// ParseDate reads a calendar date from v. It reports false when v is empty,
// of an unsupported kind, or does not match the strategy that claims it.
func ParseDate(v Value) (time.Time, bool) {
	for _, s := range dateStrategies {
		if s.claims(v) {
			return s.parse(v)
		}
	}
	return time.Time{}, false
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func isTimestamp(v Value) bool {
	t, ok := v.Time()
	return ok && !t.IsZero()
}

func passThrough(v Value) (time.Time, bool) {
	t, _ := v.Time()
	return t, true
}

func isHyphenated(v Value) bool {
	s, ok := v.Str()
	return ok && s != "" && strings.Contains(s, "-")
}

func isPlainString(v Value) bool {
	s, ok := v.Str()
	return ok && s != ""
}

// parseDayMonYY reads exactly "D-Mon-YY" or "DD-Mon-YY". The two digit year is
// always placed in the 2000s.
func parseDayMonYY(v Value) (time.Time, bool) {
	s, _ := v.Str()
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	dayPart, monPart, yearPart := parts[0], parts[1], parts[2]

	if len(dayPart) < 1 || len(dayPart) > 2 || !allDigits(dayPart) {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(dayPart)

	month, ok := monthsByPrefix[strings.ToLower(monPart)]
	if !ok {
		return time.Time{}, false
	}

	if len(yearPart) != 2 || !allDigits(yearPart) {
		return time.Time{}, false
	}
	yy, _ := strconv.Atoi(yearPart)

	t := time.Date(2000+yy, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31-Feb becomes 03-Mar); reject it.
	if day < 1 || t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func parseGeneric(v Value) (time.Time, bool) {
	s, _ := v.Str()
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseLayouts(genericLayouts, s); ok {
		return t, true
	}
	return parseLayouts(dayFirstLayouts, s)
}

func parseLayouts(layouts []string, s string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
