package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tracker/internal/codec"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/store"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields []core.FieldError `json:"fields,omitempty"`
}

// ResponseBuilder provides a fluent API for writing API responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a response header.
func (b *ResponseBuilder) Header(key, value string) *ResponseBuilder {
	b.headers[key] = value
	return b
}

// Attachment marks the response as a file download.
func (b *ResponseBuilder) Attachment(filename string) *ResponseBuilder {
	return b.Header("Content-Disposition", attachment(filename))
}

func (b *ResponseBuilder) writeHeaders(w http.ResponseWriter, contentType string) {
	w.Header().Set("Content-Type", contentType)
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(b.statusCode)
}

// JSON writes v as the JSON body.
func (b *ResponseBuilder) JSON(w http.ResponseWriter, v any) {
	b.writeHeaders(w, "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

// Bytes writes body with the given content type.
func (b *ResponseBuilder) Bytes(w http.ResponseWriter, contentType string, body []byte) {
	b.writeHeaders(w, contentType)
	_, _ = w.Write(body)
}

// errorStatus maps a domain error to its HTTP status.
func errorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, store.ErrInvalidTheme):
		return http.StatusUnprocessableEntity
	case errors.Is(err, codec.ErrParse),
		errors.Is(err, codec.ErrUnknownFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it with the mapped status. Validation
// errors list the offending fields.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", log.FieldError, err)
	}

	resp := ErrorResponse{Error: err.Error()}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	NewResponse().Status(status).JSON(w, resp)
}

// writeBodyError reports a request body that could not be read or decoded.
// Oversized bodies keep their 413; anything else is a 400.
func writeBodyError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, err)
		return
	}
	BadRequest(w, "invalid request body")
}

// BadRequest writes a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	NewResponse().Status(http.StatusBadRequest).JSON(w, ErrorResponse{Error: msg})
}
