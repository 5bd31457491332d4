package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayout is the only accepted date format for transactions (ISO-8601 calendar date).
const DateLayout = "2006-01-02"

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	TxType string

	// Transaction is a single income or expense record. It is never mutated
	// after creation; edits are modeled as delete + recreate.
	Transaction struct {
		ID          string
		Date        string
		Type        TxType
		Category    string
		Description string
		Amount      decimal.Decimal
	}

	// Input is the raw, unvalidated shape of a transaction as typed by a user
	// or read from an import file.
	Input struct {
		Date        string `validate:"required,isodate"`
		Type        string `validate:"required,oneof=income expense"`
		Category    string `validate:"required"`
		Description string `validate:"required"`
		Amount      string `validate:"required"`
	}
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidDate      = errors.New("invalid date (expected YYYY-MM-DD)")
	ErrInvalidType      = errors.New("invalid type (expected income or expense)")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
)

// FieldError ties a validation failure to the input field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (f FieldError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}{f.Field, f.Err.Error()})
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Field, f.Err))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes every ValidationError match ErrValidation and the sentinel of each field.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	for _, f := range e.Fields {
		if errors.Is(f.Err, target) {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// fieldSentinels maps Input struct fields to the error reported for them.
var fieldSentinels = map[string]error{
	"Date":        ErrInvalidDate,
	"Type":        ErrInvalidType,
	"Category":    ErrEmptyCategory,
	"Description": ErrEmptyDescription,
	"Amount":      ErrInvalidAmount,
}

// Normalize trims surrounding whitespace from every field.
func (in Input) Normalize() Input {
	return Input{
		Date:        strings.TrimSpace(in.Date),
		Type:        strings.TrimSpace(in.Type),
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Amount:      strings.TrimSpace(in.Amount),
	}
}

// Validate checks the normalized input and returns a *ValidationError
// naming every invalid field, or nil.
func (in Input) Validate() error {
	in = in.Normalize()
	var fields []FieldError
	seen := map[string]bool{}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate input: %w", err)
		}
		for _, fe := range verrs {
			name := fe.StructField()
			if seen[name] {
				continue
			}
			seen[name] = true
			fields = append(fields, FieldError{Field: name, Err: fieldSentinels[name]})
		}
	}
	if !seen["Amount"] {
		if _, err := ParseAmount(in.Amount); err != nil {
			fields = append(fields, FieldError{Field: "Amount", Err: err})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// NewTransaction validates the input and builds a Transaction carrying the given id.
func NewTransaction(id string, in Input) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}
	in = in.Normalize()
	amount, _ := ParseAmount(in.Amount)
	return Transaction{
		ID:          id,
		Date:        in.Date,
		Type:        TxType(in.Type),
		Category:    in.Category,
		Description: in.Description,
		Amount:      amount,
	}, nil
}

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Time returns the parsed calendar date and whether it was valid.
func (t Transaction) Time() (time.Time, bool) {
	d, err := ParseDate(t.Date)
	return d, err == nil
}

// Input converts the transaction back to its raw input form.
func (t Transaction) Input() Input {
	return Input{
		Date:        t.Date,
		Type:        string(t.Type),
		Category:    t.Category,
		Description: t.Description,
		Amount:      t.Amount.String(),
	}
}

func (tt TxType) IsValid() bool {
	return tt == Income || tt == Expense
}
