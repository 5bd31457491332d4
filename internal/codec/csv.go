package codec

import (
	"errors"
	"strings"

	"tracker/internal/core"
)

// csvHeader is written on export and skipped on import.
var csvHeader = []string{"Date", "Type", "Category", "Description", "Amount"}

const csvFields = 5

// ToCSV renders records as comma-separated text. Only the description is
// quoted and no field is escaped: a comma inside a category, or a quote or
// comma inside a description, produces a line that cannot be re-imported.
// The layout is kept for compatibility with existing exports.
func ToCSV(records []core.Transaction) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(csvHeader, ","))
	for _, t := range records {
		lines = append(lines, strings.Join([]string{
			t.Date,
			string(t.Type),
			t.Category,
			`"` + t.Description + `"`,
			t.Amount.String(),
		}, ","))
	}
	return strings.Join(lines, "\n")
}

// parseCSV splits every non-blank line after the header positionally.
// Any malformed line rejects the whole file.
func parseCSV(text string) ([]core.Input, error) {
	var (
		inputs     []core.Input
		headerSeen bool
	)
	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}

		values := strings.Split(line, ",")
		if len(values) != csvFields {
			return nil, &ParseError{
				Format: FormatCSV,
				Line:   lineNo,
				Reason: "expected 5 fields (Date,Type,Category,Description,Amount)",
			}
		}
		in := core.Input{
			Date:        strings.TrimSpace(values[0]),
			Type:        strings.TrimSpace(values[1]),
			Category:    strings.TrimSpace(values[2]),
			Description: strings.ReplaceAll(strings.TrimSpace(values[3]), `"`, ""),
			Amount:      strings.TrimSpace(values[4]),
		}
		if err := in.Validate(); err != nil {
			return nil, &ParseError{Format: FormatCSV, Line: lineNo, Reason: "invalid record", Err: err}
		}
		inputs = append(inputs, in)
	}
	if !headerSeen {
		return nil, &ParseError{Format: FormatCSV, Reason: "missing header line", Err: errors.New("empty file")}
	}
	return inputs, nil
}
