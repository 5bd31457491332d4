package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"tracker/internal/core"
)

// Export is the JSON export document.
type Export struct {
	ExportDate   string             `json:"exportDate"`
	Transactions []core.Transaction `json:"transactions"`
}

// exportDateLayout matches JavaScript's Date.prototype.toISOString.
const exportDateLayout = "2006-01-02T15:04:05.000Z"

// ToJSON wraps records in an export document stamped with now.
func ToJSON(records []core.Transaction, now time.Time) ([]byte, error) {
	if records == nil {
		records = []core.Transaction{}
	}
	doc := Export{
		ExportDate:   now.UTC().Format(exportDateLayout),
		Transactions: records,
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return out, nil
}

// importRecord is what an imported JSON record may carry. The id is read
// but never trusted.
type importRecord struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
}

// parseJSON accepts {"transactions": [...]} or a bare array.
func parseJSON(text string) ([]core.Input, error) {
	data := bytes.TrimSpace([]byte(text))
	if len(data) == 0 {
		return nil, &ParseError{Format: FormatJSON, Reason: "empty document"}
	}

	var records []importRecord
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, &ParseError{Format: FormatJSON, Reason: "malformed transaction array", Err: err}
		}
	case '{':
		var doc struct {
			Transactions *[]importRecord `json:"transactions"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, &ParseError{Format: FormatJSON, Reason: "malformed export document", Err: err}
		}
		if doc.Transactions == nil {
			return nil, &ParseError{Format: FormatJSON, Reason: `object has no "transactions" array`}
		}
		records = *doc.Transactions
	default:
		return nil, &ParseError{Format: FormatJSON, Reason: "expected an array or an object with transactions"}
	}

	inputs := make([]core.Input, 0, len(records))
	for i, r := range records {
		in := core.Input{
			Date:        r.Date,
			Type:        r.Type,
			Category:    r.Category,
			Description: r.Description,
			Amount:      r.Amount.String(),
		}
		if err := in.Validate(); err != nil {
			return nil, &ParseError{
				Format: FormatJSON,
				Reason: fmt.Sprintf("transaction %d is invalid", i+1),
				Err:    err,
			}
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}
