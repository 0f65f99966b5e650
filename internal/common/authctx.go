package common

import "context"

type ctxKey string

const (
	cashierIDKey   ctxKey = "auth/cashier-id"
	cashierRoleKey ctxKey = "auth/cashier-role"
)

// WithCashier stores the authenticated cashier identity on the context.
func WithCashier(ctx context.Context, id, role string) context.Context {
	ctx = context.WithValue(ctx, cashierIDKey, id)
	return context.WithValue(ctx, cashierRoleKey, role)
}

// CashierID extracts the authenticated cashier identifier from the context.
func CashierID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(cashierIDKey).(string)
	return id, ok && id != ""
}

// CashierRole extracts the authenticated cashier role from the context.
func CashierRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(cashierRoleKey).(string)
	return role, ok && role != ""
}
