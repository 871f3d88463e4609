package parser

import (
	"regexp"
	"strings"
	"time"
)

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// toISODate converts portal dates (MM/DD/YYYY, padded or not) to
// YYYY-MM-DD. Already-ISO values pass through; anything unparseable is
// returned unchanged so no data is lost.
func toISODate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, err := time.Parse("1/2/2006", s); err == nil {
		return t.Format("2006-01-02")
	}
	if isoDateRe.MatchString(s) {
		return s[:10]
	}
	return s
}

// FilingYear extracts the four-digit year from a filing date in either ISO
// or slash form. Returns 0 when no year can be determined.
func FilingYear(date string) int {
	date = strings.TrimSpace(date)
	if date == "" {
		return 0
	}
	if isoDateRe.MatchString(date) {
		if t, err := time.Parse("2006-01-02", date[:10]); err == nil {
			return t.Year()
		}
	}
	parts := strings.Split(date, "/")
	if len(parts) == 3 {
		if t, err := time.Parse("1/2/2006", date); err == nil {
			return t.Year()
		}
		if t, err := time.Parse("1/2/06", date); err == nil {
			return t.Year()
		}
	}
	return 0
}
