package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkassa/backend-kassa/internal/db"
)

type fakeCashiers struct {
	byCode map[string]db.Cashier
}

func (f *fakeCashiers) GetCashierByCode(_ context.Context, code string) (db.Cashier, error) {
	c, ok := f.byCode[code]
	if !ok {
		return db.Cashier{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeCashiers) CreateCashier(_ context.Context, arg db.CreateCashierParams) (db.Cashier, error) {
	c := db.Cashier{
		ID:      db.NewUUID(),
		Code:    arg.Code,
		Name:    arg.Name,
		PinHash: arg.PinHash,
		Role:    arg.Role,
		Active:  true,
	}
	f.byCode[arg.Code] = c
	return c, nil
}

func newTestService(t *testing.T, now func() time.Time) (*Service, *fakeCashiers) {
	t.Helper()
	store := &fakeCashiers{byCode: map[string]db.Cashier{}}
	svc := NewService(ServiceConfig{
		Queries:   store,
		Secret:    "test-secret-which-is-long-enough",
		AccessTTL: time.Hour,
		Now:       now,
	})
	return svc, store
}

func seedCashier(t *testing.T, store *fakeCashiers, code, pin, role string, active bool) db.Cashier {
	t.Helper()
	hash, err := argon2id.CreateHash(pin, argon2id.DefaultParams)
	require.NoError(t, err)
	c := db.Cashier{
		ID:      db.NewUUID(),
		Code:    code,
		Name:    "Test Cashier",
		PinHash: hash,
		Role:    role,
		Active:  active,
	}
	store.byCode[code] = c
	return c
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, store := newTestService(t, nil)
	cashier := seedCashier(t, store, "C01", "4712", RoleManager, true)

	session, err := svc.Login(context.Background(), "C01", "4712")
	require.NoError(t, err)
	assert.Equal(t, db.UUIDString(cashier.ID), session.CashierID)
	assert.Equal(t, RoleManager, session.Role)

	id, role, err := svc.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, db.UUIDString(cashier.ID), id)
	assert.Equal(t, RoleManager, role)
}

func TestLoginRejectsWrongPin(t *testing.T) {
	svc, store := newTestService(t, nil)
	seedCashier(t, store, "C01", "4712", RoleCashier, true)

	_, err := svc.Login(context.Background(), "C01", "0000")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginRejectsUnknownCode(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Login(context.Background(), "NOPE", "4712")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginRejectsInactiveCashier(t *testing.T) {
	svc, store := newTestService(t, nil)
	seedCashier(t, store, "C01", "4712", RoleCashier, false)

	_, err := svc.Login(context.Background(), "C01", "4712")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	now := time.Now()
	svc, store := newTestService(t, func() time.Time { return now })
	seedCashier(t, store, "C01", "4712", RoleCashier, true)

	session, err := svc.Login(context.Background(), "C01", "4712")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, _, err = svc.ParseToken(session.Token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, _, err := svc.ParseToken("not.a.token")
	assert.Error(t, err)

	_, _, err = svc.ParseToken("")
	assert.Error(t, err)
}

func TestParseTokenRejectsOtherSecret(t *testing.T) {
	svcA, storeA := newTestService(t, nil)
	seedCashier(t, storeA, "C01", "4712", RoleCashier, true)
	session, err := svcA.Login(context.Background(), "C01", "4712")
	require.NoError(t, err)

	svcB := NewService(ServiceConfig{
		Queries:   storeA,
		Secret:    "a-completely-different-secret-1234",
		AccessTTL: time.Hour,
	})
	_, _, err = svcB.ParseToken(session.Token)
	assert.Error(t, err)
}

func TestRegisterHashesPin(t *testing.T) {
	svc, store := newTestService(t, nil)

	c, err := svc.Register(context.Background(), "C02", "Ana", "9999", RoleCashier)
	require.NoError(t, err)
	assert.NotEqual(t, "9999", c.PinHash)

	ok, err := argon2id.ComparePasswordAndHash("9999", c.PinHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Register(context.Background(), "C03", "Bo", "1234", "admin")
	assert.Error(t, err)

	_, ok = store.byCode["C02"]
	assert.True(t, ok)
}
