package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Summary holds the running totals shown above the transaction list.
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Summarize totals income and expense over records. An empty set yields zeros.
func Summarize(records []Transaction) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range records {
		switch t.Type {
		case Income:
			income = income.Add(t.Amount)
		case Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return Summary{Income: income, Expense: expense, Net: income.Sub(expense)}
}

// ByCategory sums expense amounts per category. Income records never
// contribute, so an empty map means there is nothing to chart.
func ByCategory(records []Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range records {
		if t.Type != Expense {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// SortedBreakdown orders a category mapping by amount descending, then by name.
func SortedBreakdown(totals map[string]decimal.Decimal) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Categories returns the distinct categories present in records, sorted.
func Categories(records []Transaction) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0)
	for _, t := range records {
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	sort.Strings(out)
	return out
}
