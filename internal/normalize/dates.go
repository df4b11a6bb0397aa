package normalize

import (
	"strconv"
	"strings"
	"time"
)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-1-2 15:04",
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"02-Jan-2006",
	"02-Jan-06",
	time.RFC1123,
}

// ParseDate tries ISO-like layouts first. All-numeric dates delimited by
// "/" or "-" are then read as month-day-year and finally day-month-year,
// so "11-08-2016" is November 8. The boolean reports whether any attempt
// succeeded.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	parts, ok := numericParts(s)
	if !ok {
		return time.Time{}, false
	}
	if t, ok := civilDate(parts[2], parts[0], parts[1]); ok {
		return t, true
	}
	return civilDate(parts[2], parts[1], parts[0])
}

// MonthKey returns the YYYY-MM bucket for a date string.
func MonthKey(s string) (string, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format("2006-01"), true
}

func numericParts(s string) ([3]int, bool) {
	var out [3]int

	// Drop a trailing time component such as "1/2/2020 10:15".
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}

	sep := "/"
	if !strings.Contains(s, sep) {
		sep = "-"
	}
	fields := strings.Split(s, sep)
	if len(fields) != 3 {
		return out, false
	}
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	return out, true
}

func civilDate(year, month, day int) (time.Time, bool) {
	if year >= 0 && year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject it instead.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}
