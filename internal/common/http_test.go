package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:54321"
	r.Header.Set("X-Forwarded-For", "192.168.1.40, 10.0.0.1")

	assert.Equal(t, "192.168.1.40", ClientIP(r))
}

func TestClientIPFallsBackToPeer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.41:39000"

	assert.Equal(t, "192.168.1.41", ClientIP(r))

	r.Header.Set("X-Real-IP", "192.168.1.42")
	assert.Equal(t, "192.168.1.42", ClientIP(r))
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/products?page=3&limit=50", nil)
	page, perPage := ParsePagination(r, 20)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, perPage)

	r = httptest.NewRequest(http.MethodGet, "/products?page=abc&limit=-5", nil)
	page, perPage = ParsePagination(r, 20)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, perPage)
}

func TestJSONListEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONList(rec, []string{"a", "b"}, NewPagination(2, 20, 41))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "41", rec.Header().Get("X-Total-Count"))

	var body struct {
		Data       []string   `json:"data"`
		Pagination Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"a", "b"}, body.Data)
	assert.Equal(t, 2, body.Pagination.Page)
	assert.Equal(t, 20, body.Pagination.PerPage)
	assert.Equal(t, 41, body.Pagination.TotalItems)
}
