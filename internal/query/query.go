// Package query derives the visible transaction list from the store:
// category filter, text search, sort and pagination.
package query

import (
	"sort"
	"strings"
	"time"

	"tracker/internal/core"
)

// AllCategories disables category filtering.
const AllCategories = "all"

// SortKey selects the ordering of the derived view.
type SortKey string

const (
	SortNone       SortKey = "none"
	SortDateAsc    SortKey = "date_asc"
	SortDateDesc   SortKey = "date_desc"
	SortAmountAsc  SortKey = "amount_asc"
	SortAmountDesc SortKey = "amount_desc"
)

// ParseSortKey maps a raw key to a SortKey; unknown keys mean no sorting.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortDateAsc, SortDateDesc, SortAmountAsc, SortAmountDesc:
		return k
	default:
		return SortNone
	}
}

// Params are the inputs of the filter → search → sort pipeline.
type Params struct {
	Category string
	Search   string
	Sort     SortKey
}

// Apply runs the pipeline over records without modifying them.
// Category filtering happens first, then search, then a stable sort.
func Apply(records []core.Transaction, p Params) []core.Transaction {
	out := make([]core.Transaction, 0, len(records))
	needle := strings.ToLower(strings.TrimSpace(p.Search))
	for _, t := range records {
		if !matchCategory(t, p.Category) {
			continue
		}
		if needle != "" && !matchSearch(t, needle) {
			continue
		}
		out = append(out, t)
	}
	sortRecords(out, p.Sort)
	return out
}

func matchCategory(t core.Transaction, category string) bool {
	if category == "" || category == AllCategories {
		return true
	}
	return t.Category == category
}

// matchSearch expects a lower-cased needle.
func matchSearch(t core.Transaction, needle string) bool {
	if strings.Contains(strings.ToLower(t.Description), needle) {
		return true
	}
	return strings.Contains(t.Amount.String(), needle)
}

// minDate is where unparseable dates sort.
var minDate = time.Time{}

func dateOf(t core.Transaction) time.Time {
	if d, ok := t.Time(); ok {
		return d
	}
	return minDate
}

func sortRecords(records []core.Transaction, key SortKey) {
	var less func(a, b core.Transaction) bool
	switch key {
	case SortDateAsc:
		less = func(a, b core.Transaction) bool { return dateOf(a).Before(dateOf(b)) }
	case SortDateDesc:
		less = func(a, b core.Transaction) bool { return dateOf(a).After(dateOf(b)) }
	case SortAmountAsc:
		less = func(a, b core.Transaction) bool { return a.Amount.LessThan(b.Amount) }
	case SortAmountDesc:
		less = func(a, b core.Transaction) bool { return a.Amount.GreaterThan(b.Amount) }
	default:
		return
	}
	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
}
