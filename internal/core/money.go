// Package core provides the transaction model, money parsing and the
// aggregations computed over transaction sets.
//
// This file contains the amount parsing and formatting helpers.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is prefixed to every formatted amount.
const DefaultCurrencySymbol = "₹"

// maxAmountExponent bounds the decimal exponent of a parsed amount.
const maxAmountExponent = 18

// ParseAmount converts a decimal string to a positive amount.
//
// Dot-separated decimals and exponent notation are accepted. A leading sign,
// an exponent beyond maxAmountExponent or a value that is not strictly
// positive is rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("1e3")   -> 1000, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatCurrency renders an amount with two decimals behind the symbol,
// e.g. "₹12.50" or "₹-3.00".
func FormatCurrency(symbol string, d decimal.Decimal) string {
	return symbol + d.StringFixed(2)
}
