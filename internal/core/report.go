package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyReport is the income/expense summary of one calendar month.
type MonthlyReport struct {
	Year              int              `json:"year"`
	Month             int              `json:"month"` // 1-12
	Income            decimal.Decimal  `json:"income"`
	Expense           decimal.Decimal  `json:"expense"`
	Net               decimal.Decimal  `json:"net"`
	CategoryBreakdown []CategoryAmount `json:"category_breakdown"`
	TransactionCount  int              `json:"transaction_count"`
}

// BuildReport summarizes the records dated within year and month (1-12).
// Months outside 1..12 and years below 1 are rejected, never clamped.
// Records with an unparseable date never match.
func BuildReport(records []Transaction, year, month int) (MonthlyReport, error) {
	if year < 1 {
		return MonthlyReport{}, ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return MonthlyReport{}, ErrInvalidMonth
	}

	var inMonth []Transaction
	for _, t := range records {
		d, ok := t.Time()
		if !ok {
			continue
		}
		if d.Year() == year && d.Month() == time.Month(month) {
			inMonth = append(inMonth, t)
		}
	}

	sum := Summarize(inMonth)
	return MonthlyReport{
		Year:              year,
		Month:             month,
		Income:            sum.Income,
		Expense:           sum.Expense,
		Net:               sum.Net,
		CategoryBreakdown: SortedBreakdown(ByCategory(inMonth)),
		TransactionCount:  len(inMonth),
	}, nil
}

// ParseYearMonth parses a "YYYY-MM" key as produced by a month picker.
func ParseYearMonth(s string) (year, month int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("empty month: %w", ErrInvalidMonth)
	}
	y, m, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("month %q: %w", s, ErrInvalidMonth)
	}
	year, err = strconv.Atoi(y)
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("year %q: %w", y, ErrInvalidYear)
	}
	month, err = strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month %q: %w", m, ErrInvalidMonth)
	}
	return year, month, nil
}

// Title returns the human label of the report period, e.g. "March 2025".
func (r MonthlyReport) Title() string {
	return fmt.Sprintf("%s %d", time.Month(r.Month).String(), r.Year)
}

// Format renders the report as plain text.
func (r MonthlyReport) Format(symbol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Monthly Report for %s\n\n", r.Title())
	fmt.Fprintf(&b, "Total Income: %s\n", FormatCurrency(symbol, r.Income))
	fmt.Fprintf(&b, "Total Expenses: %s\n", FormatCurrency(symbol, r.Expense))
	fmt.Fprintf(&b, "Net: %s\n\n", FormatCurrency(symbol, r.Net))
	b.WriteString("Category Breakdown:\n")
	for _, c := range r.CategoryBreakdown {
		fmt.Fprintf(&b, "%s: %s\n", c.Name, FormatCurrency(symbol, c.Amount))
	}
	fmt.Fprintf(&b, "\nTotal Transactions: %d", r.TransactionCount)
	return b.String()
}
