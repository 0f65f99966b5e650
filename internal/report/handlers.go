package report

import (
	"net/http"
	"time"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Handler serves daily reports.
type Handler struct {
	Service *Service
}

// Daily renders the report for ?date=YYYY-MM-DD, defaulting to today.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	date := h.Service.now().In(h.Service.location())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.Service.location())
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "date must be YYYY-MM-DD", nil)
			return
		}
		date = parsed
	}
	report, err := h.Service.DailyReport(r.Context(), date)
	if err != nil {
		common.WriteDomainError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, report)
}
