package scan

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Handler exposes the remote-scan endpoints.
type Handler struct {
	relay *Relay
}

// NewHandler constructs a Handler.
func NewHandler(relay *Relay) *Handler {
	return &Handler{relay: relay}
}

type publishInput struct {
	Barcode  string `json:"barcode" validate:"required,min=4,max=64"`
	QtyMilli int64  `json:"qtyMilli" validate:"omitempty,gt=0"`
	Source   string `json:"source" validate:"omitempty,max=64"`
}

// Publish handles POST /api/v1/registers/{code}/scans.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var input publishInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	ev, err := h.relay.Publish(r.Context(), Event{
		Register: chi.URLParam(r, "code"),
		Barcode:  input.Barcode,
		QtyMilli: input.QtyMilli,
		Source:   input.Source,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "scan relay failed", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"data": ev})
}

// Next handles GET /api/v1/registers/{code}/scans. The register long-polls
// this endpoint; 204 means nothing arrived within the wait window.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	wait := 25 * time.Second
	if raw := r.URL.Query().Get("waitSeconds"); raw != "" {
		if secs := common.AtoiDefault(raw, 25); secs > 0 && secs <= 55 {
			wait = time.Duration(secs) * time.Second
		}
	}
	ev, err := h.relay.Next(r.Context(), chi.URLParam(r, "code"), wait)
	if err != nil {
		if errors.Is(err, ErrNoEvent) || errors.Is(err, r.Context().Err()) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "scan relay failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ev})
}

// Ack handles POST /api/v1/registers/{code}/scans/{eventID}/ack.
func (h *Handler) Ack(w http.ResponseWriter, r *http.Request) {
	first, err := h.relay.MarkProcessed(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "scan relay failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"first": first}})
}
