package query

import "tracker/internal/core"

// DefaultPageSize matches the list length shown by the tracker UI.
const DefaultPageSize = 10

// Page is one slice of a derived view plus its metadata.
type Page struct {
	Items      []core.Transaction `json:"items"`
	PageNumber int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalItems int                `json:"total_items"`
	TotalPages int                `json:"total_pages"`
	HasPrev    bool               `json:"has_prev"`
	HasNext    bool               `json:"has_next"`
}

// Paginate returns the 1-indexed page of records. A page past the end is
// empty rather than an error; callers reset to page 1 when the view changes.
func Paginate(records []core.Transaction, pageSize, pageNumber int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageNumber < 1 {
		pageNumber = 1
	}

	total := len(records)
	page := Page{
		Items:      []core.Transaction{},
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	page.HasPrev = pageNumber > 1
	page.HasNext = pageNumber < page.TotalPages

	start := (pageNumber - 1) * pageSize
	if start >= total {
		return page
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	page.Items = append(page.Items, records[start:end]...)
	return page
}
