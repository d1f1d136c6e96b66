package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/the-dev-tools/kanban/pkg/errmap"
	"github.com/the-dev-tools/kanban/pkg/idwrap"

	json "github.com/goccy/go-json"
)

type errorBody struct {
	Message string      `json:"message"`
	Code    errmap.Code `json:"code"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// WriteError maps err to an HTTP status and writes the error envelope.
// Internal errors are logged with their cause; the response carries only the
// generic message.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	mapped := errmap.Map(err)
	if mapped.Status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "error", err)
	}
	WriteJSON(w, mapped.Status, errorBody{Message: mapped.Message, Code: mapped.Code})
}

// DecodeJSON decodes the request body into v. A malformed body maps to a
// 400 invalid_request error.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errmap.New(errmap.CodeInvalidRequest, "malformed json body")
	}
	return nil
}

// PathID parses the named path segment as an id. Unknown formats map to a
// 400 invalid_identifier error naming the segment.
func PathID(r *http.Request, name string) (idwrap.IDWrap, error) {
	id, err := idwrap.NewTextNormalized(r.PathValue(name))
	if err != nil {
		return idwrap.IDWrap{}, errmap.New(errmap.CodeInvalidIdentifier, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// OptionalID parses an optional body field. A nil or empty value means the
// field was absent (or JSON null), which callers treat as "no value".
func OptionalID(s *string) (*idwrap.IDWrap, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := idwrap.NewTextNormalized(*s)
	if err != nil {
		return nil, errmap.New(errmap.CodeInvalidIdentifier, fmt.Sprintf("invalid id %q", *s))
	}
	return &id, nil
}
