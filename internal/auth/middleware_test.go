package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkassa/backend-kassa/internal/common"
	"github.com/openkassa/backend-kassa/internal/db"
)

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := common.CashierID(r.Context())
		_, _ = w.Write([]byte(id))
	})
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	svc, store := newTestService(t, nil)
	cashier := seedCashier(t, store, "C01", "4712", RoleCashier, true)
	session, err := svc.Login(t.Context(), "C01", "4712")
	require.NoError(t, err)

	handler := RequireAuth(svc)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/carts", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, db.UUIDString(cashier.ID), rec.Body.String())
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	svc, _ := newTestService(t, nil)
	handler := RequireAuth(svc)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/carts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAcceptsSessionCookie(t *testing.T) {
	svc, store := newTestService(t, nil)
	seedCashier(t, store, "C01", "4712", RoleCashier, true)
	session, err := svc.Login(t.Context(), "C01", "4712")
	require.NoError(t, err)

	handler := RequireAuth(svc)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/carts", nil)
	req.AddCookie(&http.Cookie{Name: "kassa_session", Value: session.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireRole(RoleManager)(ok)

	req := httptest.NewRequest(http.MethodPost, "/sales/x/cancel", nil)
	req = req.WithContext(common.WithCashier(req.Context(), "id-1", RoleCashier))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/sales/x/cancel", nil)
	req = req.WithContext(common.WithCashier(req.Context(), "id-2", RoleManager))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/sales/x/cancel", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleManagerPassesCashierGate(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireRole(RoleCashier)(ok)

	req := httptest.NewRequest(http.MethodPost, "/carts", nil)
	req = req.WithContext(common.WithCashier(req.Context(), "id-2", RoleManager))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
