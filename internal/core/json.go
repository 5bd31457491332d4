package core

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// wireTransaction is the persisted and exported JSON shape. Amounts are
// written as bare JSON numbers; quoted numbers are accepted on read.
type wireTransaction struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	Type        TxType      `json:"type"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTransaction{
		ID:          t.ID,
		Date:        t.Date,
		Type:        t.Type,
		Category:    t.Category,
		Description: t.Description,
		Amount:      json.Number(t.Amount.String()),
	})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var w wireTransaction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amount := decimal.Zero
	if w.Amount != "" {
		d, err := decimal.NewFromString(w.Amount.String())
		if err != nil {
			return fmt.Errorf("transaction %q amount: %w", w.ID, err)
		}
		amount = d
	}
	*t = Transaction{
		ID:          w.ID,
		Date:        w.Date,
		Type:        w.Type,
		Category:    w.Category,
		Description: w.Description,
		Amount:      amount,
	}
	return nil
}
