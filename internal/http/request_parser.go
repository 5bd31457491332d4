package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tracker/internal/app"
	"tracker/internal/codec"
	"tracker/internal/core"
	"tracker/internal/query"
)

// maxBodyBytes bounds request bodies, imports included.
const maxBodyBytes = 5 << 20

// RequestBodyParser reads a request body once and exposes its fields,
// whether it was sent as JSON or as a form.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse decodes the body as JSON when it looks like JSON and as a form
// otherwise. JSON numbers keep their exact text.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("decode JSON body: %w", err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a sanitized field value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Input collects the transaction form fields.
func (p *RequestBodyParser) Input() core.Input {
	return core.Input{
		Date:        p.Get("date"),
		Type:        p.Get("type"),
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseListParams overlays the list parameters present in q on cur.
// Absent parameters keep their current value.
func parseListParams(q url.Values, cur app.Params) app.Params {
	req := cur
	if q.Has("category") {
		req.Category = sanitizeInput(q.Get("category"))
		if req.Category == "" {
			req.Category = query.AllCategories
		}
	}
	if q.Has("search") {
		req.Search = sanitizeInput(q.Get("search"))
	}
	if q.Has("sort") {
		req.Sort = query.ParseSortKey(q.Get("sort"))
	}
	req.Page = 0
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Page = n
		}
	}
	return req
}

// readImport returns the uploaded file contents and its format. The file is
// either the raw body or the "file" part of a multipart form; the format
// comes from the format parameter or the uploaded file name.
func readImport(r *http.Request) (string, codec.Format, error) {
	formatParam := r.URL.Query().Get("format")

	var (
		data     []byte
		filename = r.URL.Query().Get("filename")
		err      error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			return "", "", fmt.Errorf("read upload: %w", ferr)
		}
		defer file.Close()
		if filename == "" {
			filename = header.Filename
		}
		data, err = io.ReadAll(file)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}

	var f codec.Format
	if formatParam != "" {
		f, err = codec.ParseFormat(formatParam)
	} else {
		f, err = codec.FormatFromFilename(filename)
	}
	if err != nil {
		return "", "", err
	}
	return string(data), f, nil
}
