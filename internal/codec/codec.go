// Package codec converts transaction collections to and from the CSV and
// JSON files the tracker exports and imports.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format is an interchange file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ErrParse matches every *ParseError.
var ErrParse = errors.New("parse failed")

// ErrUnknownFormat is returned for formats other than csv and json.
var ErrUnknownFormat = errors.New("unknown format")

// ParseError describes why an import was rejected. Line is 1-based and
// zero when the failure is not tied to a line.
type ParseError struct {
	Format Format
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse %s", e.Format)
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ParseFormat accepts "csv" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromFilename picks the format from a .csv or .json suffix.
func FormatFromFilename(name string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ExportFilename returns the download name for an export made at now,
// e.g. "expenses_2025-03-14.csv".
func ExportFilename(f Format, now time.Time) string {
	return fmt.Sprintf("expenses_%s.%s", now.UTC().Format("2006-01-02"), f)
}

// ContentType returns the MIME type of f.
func ContentType(f Format) string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}
