package common

import (
	"net/http"
	"strconv"
)

// Pagination is the pagination block attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// NewPagination assembles the pagination block for a served page.
func NewPagination(page, perPage int, total int64) Pagination {
	return Pagination{Page: page, PerPage: perPage, TotalItems: int(total)}
}

// ParsePagination extracts page and limit query parameters. Values the
// services consider out of range (zero, negative, over their cap) are
// clamped there; this only guards against unparseable input.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p := AtoiDefault(r.URL.Query().Get("page"), 0); p > 0 {
		page = p
	}
	if l := AtoiDefault(r.URL.Query().Get("limit"), 0); l > 0 {
		perPage = l
	}
	return
}

// AtoiDefault converts the string to an int, falling back on empty or
// malformed input.
func AtoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
