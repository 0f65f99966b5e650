package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeJSON decodes the request body into dst, rendering a 400 on malformed
// input. It reports whether decoding succeeded.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON body", nil)
		return false
	}
	return true
}

// ValidateStruct runs struct-tag validation and renders a 400 with field
// details when the payload is invalid. It reports whether the payload passed.
func ValidateStruct(w http.ResponseWriter, payload any) bool {
	if err := validate.Struct(payload); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", fields)
		return false
	}
	return true
}
