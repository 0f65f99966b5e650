package common

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorBody is the error payload shape every endpoint returns. The code is a
// stable machine-readable tag (BAD_CREDENTIALS, REGISTER_BUSY, ...) so the
// register UI can branch without parsing the message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// JSONList renders a list page in the canonical envelope: the items under
// "data", the pagination block alongside, and the overall count mirrored in
// X-Total-Count for clients that only read headers.
func JSONList(w http.ResponseWriter, items any, p Pagination) {
	w.Header().Set("X-Total-Count", strconv.Itoa(p.TotalItems))
	JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": p,
	})
}
