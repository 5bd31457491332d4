package http

import (
	"mime"
	"strings"
	"time"

	"tracker/internal/core"
)

// currentYearMonth is the report period used when none is requested.
func currentYearMonth(now time.Time) (year, month int) {
	return now.Year(), int(now.Month())
}

// parseYearMonth reads a "YYYY-MM" value, defaulting to the current month
// when it is empty.
func parseYearMonth(raw string, now time.Time) (year, month int, err error) {
	if strings.TrimSpace(raw) == "" {
		year, month = currentYearMonth(now)
		return year, month, nil
	}
	return core.ParseYearMonth(raw)
}

// sanitizeInput removes control characters other than tab and newlines
// and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// attachment builds a Content-Disposition value for a download.
func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
