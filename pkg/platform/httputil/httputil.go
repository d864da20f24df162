// Package httputil holds the JSON response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"trailview/pkg/platform/sentinel"
)

// ErrBadRequest marks client input errors. Wrap it with a description.
var ErrBadRequest = errors.New("bad request")

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a status code and error body. Internal
// errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	body := errorBody{Error: code}
	if status != http.StatusInternalServerError {
		body.ErrorDescription = err.Error()
	}
	WriteJSON(w, status, body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, sentinel.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, sentinel.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
