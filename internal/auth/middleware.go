package auth

import (
	"net/http"
	"strings"

	"github.com/openkassa/backend-kassa/internal/common"
)

// TokenParser validates a session token and yields cashier id and role.
type TokenParser interface {
	ParseToken(raw string) (string, string, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// cashier identity on the request context.
func RequireAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing credentials", nil)
				return
			}
			cashierID, role, err := parser.ParseToken(token)
			if err != nil {
				common.WriteDomainError(w, err)
				return
			}
			ctx := common.WithCashier(r.Context(), cashierID, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to cashiers holding the given role. Managers
// pass every role check.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, ok := common.CashierRole(r.Context())
			if !ok {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing credentials", nil)
				return
			}
			if current != role && current != RoleManager {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie("kassa_session"); err == nil {
		return cookie.Value
	}
	return ""
}
