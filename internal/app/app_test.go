package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"tracker/internal/cache"
	"tracker/internal/codec"
	"tracker/internal/core"
	"tracker/internal/query"
	"tracker/internal/storage"
	"tracker/internal/store"
)

func TestParamsTransitions(t *testing.T) {
	p := DefaultParams().WithPage(3)
	if p.Page != 3 {
		t.Fatalf("page = %d", p.Page)
	}
	if got := p.WithCategory("Food"); got.Page != 1 || got.Category != "Food" {
		t.Fatalf("category change: %+v", got)
	}
	if got := p.WithSearch("x"); got.Page != 1 || got.Search != "x" {
		t.Fatalf("search change: %+v", got)
	}
	if got := p.WithSort(query.SortAmountAsc); got.Page != 1 {
		t.Fatalf("sort change: %+v", got)
	}
	if got := p.WithPage(0); got.Page != 1 {
		t.Fatalf("page floor: %+v", got)
	}
	if p.Page != 3 {
		t.Fatalf("receiver mutated: %+v", p)
	}
}

func TestParamsNext(t *testing.T) {
	cur := DefaultParams().WithPage(2)

	cases := []struct {
		name string
		req  Params
		want Params
	}{
		{"page only", Params{Category: "all", Sort: query.SortDateDesc, Page: 4},
			Params{Category: "all", Sort: query.SortDateDesc, Page: 4}},
		{"filter change wins over page", Params{Category: "Food", Sort: query.SortDateDesc, Page: 4},
			Params{Category: "Food", Sort: query.SortDateDesc, Page: 1}},
		{"search change", Params{Category: "all", Search: "tea", Sort: query.SortDateDesc, Page: 2},
			Params{Category: "all", Search: "tea", Sort: query.SortDateDesc, Page: 1}},
		{"empty request keeps state", Params{},
			Params{Category: "all", Sort: query.SortDateDesc, Page: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cur.Next(tc.req); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParamsNextFromFirstPage(t *testing.T) {
	start := DefaultParams()

	cases := []struct {
		name string
		req  Params
		want Params
	}{
		{"category change ignores requested page", Params{Category: "Food", Sort: query.SortDateDesc, Page: 3},
			Params{Category: "Food", Sort: query.SortDateDesc, Page: 1}},
		{"search change ignores requested page", Params{Category: "all", Search: "tea", Sort: query.SortDateDesc, Page: 2},
			Params{Category: "all", Search: "tea", Sort: query.SortDateDesc, Page: 1}},
		{"sort change ignores requested page", Params{Category: "all", Sort: query.SortAmountAsc, Page: 2},
			Params{Category: "all", Sort: query.SortAmountAsc, Page: 1}},
		{"page only", Params{Category: "all", Sort: query.SortDateDesc, Page: 2},
			Params{Category: "all", Sort: query.SortDateDesc, Page: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := start.Next(tc.req); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func newState(t *testing.T, pageSize int) (*State, *cache.LRUCache[View]) {
	t.Helper()
	kv := storage.NewMemoryKV()
	s, err := store.Load(context.Background(), kv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	views := cache.NewLRUCache[View](16, time.Minute)
	st := NewState(s, store.NewPreferences(kv), Config{PageSize: pageSize, Views: views})
	st.now = func() time.Time { return time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC) }
	return st, views
}

func input(date, typ, category, desc, amount string) core.Input {
	return core.Input{Date: date, Type: typ, Category: category, Description: desc, Amount: amount}
}

func TestStateAddResetsPage(t *testing.T) {
	ctx := context.Background()
	st, _ := newState(t, 2)
	for i := 0; i < 5; i++ {
		if _, _, err := st.Add(ctx, input(fmt.Sprintf("2025-01-%02d", i+1), "expense", "Food", "meal", "10")); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	v := st.Navigate(Params{Page: 3})
	if v.Page.PageNumber != 3 || len(v.Page.Items) != 1 {
		t.Fatalf("page 3: %+v", v.Page)
	}

	_, v, err := st.Add(ctx, input("2025-02-01", "income", "Salary", "pay", "100"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if v.Params.Page != 1 {
		t.Fatalf("page after add = %d", v.Params.Page)
	}
	if v.Summary.Income.String() != "100" || v.Summary.Expense.String() != "50" || v.Summary.Net.String() != "50" {
		t.Fatalf("summary: %+v", v.Summary)
	}
	if !v.ShowChart || len(v.Chart) != 1 || v.Chart[0].Name != "Food" {
		t.Fatalf("chart: %+v", v.Chart)
	}
	if got := v.Categories; len(got) != 2 || got[0] != "Food" || got[1] != "Salary" {
		t.Fatalf("categories: %v", got)
	}
}

func TestStateInvalidAddLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	st, _ := newState(t, 10)
	st.Navigate(Params{Search: "x"})

	_, v, err := st.Add(ctx, input("", "expense", "Food", "meal", "10"))
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if v.Page.TotalItems != 0 || v.Params.Search != "x" {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestStateViewIsMemoized(t *testing.T) {
	ctx := context.Background()
	st, views := newState(t, 10)
	if _, _, err := st.Add(ctx, input("2025-01-01", "expense", "Food", "meal", "10")); err != nil {
		t.Fatalf("add: %v", err)
	}
	st.View()
	before := views.Stats()
	st.View()
	after := views.Stats()
	if after.Hits != before.Hits+1 {
		t.Fatalf("expected a cache hit, before=%+v after=%+v", before, after)
	}

	// A mutation bumps the store version, so the next view is recomputed.
	v, err := st.Remove(ctx, st.View().Page.Items[0].ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if v.Page.TotalItems != 0 || v.ShowChart {
		t.Fatalf("stale view after remove: %+v", v)
	}
}

func TestStateFilteredListKeepsGlobalTotals(t *testing.T) {
	ctx := context.Background()
	st, _ := newState(t, 10)
	st.Add(ctx, input("2025-01-01", "expense", "Food", "meal", "10"))
	st.Add(ctx, input("2025-01-02", "expense", "Travel", "bus", "5"))

	v := st.Navigate(Params{Category: "Travel"})
	if v.Page.TotalItems != 1 {
		t.Fatalf("filtered total = %d", v.Page.TotalItems)
	}
	if v.Summary.Expense.String() != "15" || len(v.Chart) != 2 {
		t.Fatalf("totals should cover everything: %+v", v)
	}

	v = st.ResetFilters()
	if v.Params != DefaultParams() || v.Page.TotalItems != 2 {
		t.Fatalf("reset: %+v", v)
	}
}

func TestStateImportExport(t *testing.T) {
	ctx := context.Background()
	st, _ := newState(t, 10)

	csv := "Date,Type,Category,Description,Amount\n2025-03-01,expense,Food,Tea,2.5\n2025-03-02,income,Salary,Pay,100\n"
	n, v, err := st.Import(ctx, csv, codec.FormatCSV)
	if err != nil || n != 2 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	if v.Page.TotalItems != 2 {
		t.Fatalf("view after import: %+v", v.Page)
	}

	_, _, err = st.Import(ctx, "Date,Type,Category,Description,Amount\nbad", codec.FormatCSV)
	if !errors.Is(err, codec.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if st.View().Page.TotalItems != 2 {
		t.Fatalf("malformed import must add nothing")
	}

	name, body, err := st.Export(codec.FormatCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "expenses_2025-03-09.csv" {
		t.Fatalf("filename = %q", name)
	}
	if !strings.Contains(string(body), `2025-03-01,expense,Food,"Tea",2.5`) {
		t.Fatalf("body:\n%s", body)
	}

	if _, _, err := st.Export(codec.Format("xml")); !errors.Is(err, codec.ErrUnknownFormat) {
		t.Fatalf("expected unknown format, got %v", err)
	}
}

func TestStateReportAndTheme(t *testing.T) {
	ctx := context.Background()
	st, _ := newState(t, 10)
	st.Add(ctx, input("2025-03-01", "expense", "Food", "tea", "2"))
	st.Add(ctx, input("2025-04-01", "expense", "Food", "tea", "3"))
	st.Navigate(Params{Category: "Nothing"})

	r, err := st.Report(2025, 3)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.TransactionCount != 1 || r.Expense.String() != "2" {
		t.Fatalf("report ignores filters: %+v", r)
	}
	if _, err := st.Report(2025, 13); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected invalid month, got %v", err)
	}

	th, err := st.Theme(ctx)
	if err != nil || th != store.ThemeLight {
		t.Fatalf("default theme: %v %v", th, err)
	}
	if th, err = st.ToggleTheme(ctx); err != nil || th != store.ThemeDark {
		t.Fatalf("toggle: %v %v", th, err)
	}
}
