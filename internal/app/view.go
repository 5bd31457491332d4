package app

import (
	"fmt"

	"tracker/internal/core"
	"tracker/internal/query"
)

// View is everything the rendering layer needs after a state transition.
type View struct {
	Params     Params                `json:"params"`
	Page       query.Page            `json:"page"`
	Summary    core.Summary          `json:"summary"`
	Chart      []core.CategoryAmount `json:"chart"`
	ShowChart  bool                  `json:"show_chart"`
	Categories []string              `json:"categories"`
}

// Render computes the view of records under p. Totals and the chart cover
// the whole collection; only the list is filtered.
func Render(records []core.Transaction, p Params, pageSize int) View {
	derived := query.Apply(records, p.query())
	chart := core.SortedBreakdown(core.ByCategory(records))
	return View{
		Params:     p,
		Page:       query.Paginate(derived, pageSize, p.Page),
		Summary:    core.Summarize(records),
		Chart:      chart,
		ShowChart:  len(chart) > 0,
		Categories: core.Categories(records),
	}
}

func viewKey(version uint64, p Params, pageSize int) string {
	return fmt.Sprintf("%d|%q|%q|%s|%d|%d", version, p.Category, p.Search, p.Sort, p.Page, pageSize)
}
