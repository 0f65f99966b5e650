package audit

import (
	"net/http"
	"strconv"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Handler serves the audit trail to managers.
type Handler struct {
	Service *Service
}

// List renders trail entries, optionally filtered by entity and action.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Entity: q.Get("entity"),
		Action: q.Get("action"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "limit must be an integer", nil)
			return
		}
		filter.Limit = int32(n)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "offset must be an integer", nil)
			return
		}
		filter.Offset = int32(n)
	}
	entries, err := h.Service.List(r.Context(), filter)
	if err != nil {
		common.WriteDomainError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}
