package http

import (
	"net/http"

	"tracker/internal/core"
	"tracker/internal/store"
)

type reportResponse struct {
	core.MonthlyReport
	Title string `json:"title"`
}

type themeResponse struct {
	Theme store.Theme `json:"theme"`
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, month, err := parseYearMonth(q.Get("month"), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.state.Report(year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if q.Get("format") == "text" {
		NewResponse().Bytes(w, "text/plain; charset=utf-8", []byte(report.Format(s.state.CurrencySymbol())))
		return
	}
	NewResponse().JSON(w, reportResponse{MonthlyReport: report, Title: report.Title()})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.state.Theme(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(w, themeResponse{Theme: t})
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeBodyError(w, r, err)
		return
	}

	t, err := store.ParseTheme(p.Get("theme"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.state.SetTheme(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(w, themeResponse{Theme: t})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.state.ToggleTheme(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(w, themeResponse{Theme: t})
}
