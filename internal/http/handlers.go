package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"tracker/internal/app"
	"tracker/internal/core"
	"tracker/internal/log"
)

// amounts pairs raw totals with their display strings.
type amounts struct {
	core.Summary
	Display map[string]string `json:"display"`
}

type chartResponse struct {
	Show       bool                  `json:"show"`
	Categories []core.CategoryAmount `json:"categories"`
}

type createResponse struct {
	Transaction core.Transaction `json:"transaction"`
	View        app.View         `json:"view"`
}

func (s *Server) display(d decimal.Decimal) string {
	return core.FormatCurrency(s.state.CurrencySymbol(), d)
}

func (s *Server) summaryAmounts(sum core.Summary) amounts {
	return amounts{
		Summary: sum,
		Display: map[string]string{
			"income":  s.display(sum.Income),
			"expense": s.display(sum.Expense),
			"net":     s.display(sum.Net),
		},
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	req := parseListParams(r.URL.Query(), s.state.Params())
	NewResponse().JSON(w, s.state.Navigate(req))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeBodyError(w, r, err)
		return
	}

	t, view, err := s.state.Add(r.Context(), p.Input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		log.NewFields().WithTransaction(t.ID, string(t.Type), t.Category, t.Amount.String()).ToSlice()...)
	NewResponse().Status(http.StatusCreated).JSON(w, createResponse{Transaction: t, View: view})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	view, err := s.state.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(w, view)
}

func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(w, s.state.ResetFilters())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(w, s.summaryAmounts(s.state.View().Summary))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	v := s.state.View()
	NewResponse().JSON(w, chartResponse{Show: v.ShowChart, Categories: v.Chart})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(w, map[string][]string{"categories": s.state.View().Categories})
}
