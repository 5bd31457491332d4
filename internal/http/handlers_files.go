package http

import (
	"net/http"

	"tracker/internal/app"
	"tracker/internal/codec"
	"tracker/internal/log"
)

type importResponse struct {
	Imported int      `json:"imported"`
	View     app.View `json:"view"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	filename, body, err := s.state.Export(f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Export generated",
		log.FieldOperation, log.OpExport, log.FieldFormat, f, "filename", filename)
	NewResponse().Attachment(filename).Bytes(w, codec.ContentType(f)+"; charset=utf-8", body)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	text, f, err := readImport(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	n, view, err := s.state.Import(r.Context(), text, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(w, importResponse{Imported: n, View: view})
}
