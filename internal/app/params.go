// Package app holds the tracker's application state: the store, the
// current list parameters, and the view rendered from them after every
// transition.
package app

import "tracker/internal/query"

// Params is the complete, immutable description of the visible list.
type Params struct {
	Category string        `json:"category"`
	Search   string        `json:"search"`
	Sort     query.SortKey `json:"sort"`
	Page     int           `json:"page"`
}

// DefaultParams is the state after start-up or a filter reset.
func DefaultParams() Params {
	return Params{
		Category: query.AllCategories,
		Sort:     query.SortDateDesc,
		Page:     1,
	}
}

// WithCategory changes the category filter and returns to page 1.
func (p Params) WithCategory(category string) Params {
	if category == "" {
		category = query.AllCategories
	}
	p.Category = category
	p.Page = 1
	return p
}

// WithSearch changes the search text and returns to page 1.
func (p Params) WithSearch(search string) Params {
	p.Search = search
	p.Page = 1
	return p
}

// WithSort changes the sort order and returns to page 1.
func (p Params) WithSort(sort query.SortKey) Params {
	p.Sort = sort
	p.Page = 1
	return p
}

// WithPage moves to another page and keeps everything else.
func (p Params) WithPage(page int) Params {
	if page < 1 {
		page = 1
	}
	p.Page = page
	return p
}

// Next applies a requested state on top of p. If the filter, search or sort
// differs from p the page resets to 1, whatever page was requested.
func (p Params) Next(req Params) Params {
	next := p
	changed := false
	if req.Category != "" && req.Category != p.Category {
		next = next.WithCategory(req.Category)
		changed = true
	}
	if req.Search != p.Search {
		next = next.WithSearch(req.Search)
		changed = true
	}
	if req.Sort != "" && req.Sort != p.Sort {
		next = next.WithSort(req.Sort)
		changed = true
	}
	if !changed && req.Page > 0 {
		next = next.WithPage(req.Page)
	}
	return next
}

func (p Params) query() query.Params {
	return query.Params{Category: p.Category, Search: p.Search, Sort: p.Sort}
}
