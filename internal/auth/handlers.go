package auth

import (
	"net/http"
	"strconv"
	"time"

	limiter "github.com/ulule/limiter/v3"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Handler exposes the login endpoint.
type Handler struct {
	Service *Service
	Limiter *limiter.Limiter
}

type loginInput struct {
	Code string `json:"code" validate:"required,min=2,max=16"`
	Pin  string `json:"pin" validate:"required,min=4,max=12"`
}

// Login exchanges a cashier code and PIN for a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if !common.DecodeJSON(w, r, &in) {
		return
	}
	if !common.ValidateStruct(w, in) {
		return
	}
	if h.Limiter != nil {
		res, err := h.Limiter.Get(r.Context(), "login:"+common.ClientIP(r))
		if err == nil {
			if res.Reached {
				retry := time.Until(time.Unix(res.Reset, 0))
				if retry < 0 {
					retry = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
				common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many login attempts", nil)
				return
			}
		}
	}
	session, err := h.Service.Login(r.Context(), in.Code, in.Pin)
	if err != nil {
		if err == ErrBadCredentials {
			common.JSONError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", err.Error(), nil)
			return
		}
		common.WriteDomainError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, session)
}
