package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocker(t *testing.T) CartLocker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return CartLocker{R: client, MaxWait: 150 * time.Millisecond, Backoff: 10 * time.Millisecond}
}

func TestWithCartRunsAndReleases(t *testing.T) {
	locker := testLocker(t)

	ran := false
	err := locker.WithCart(context.Background(), "cart-1", func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	// released: a second call acquires immediately
	err = locker.WithCart(context.Background(), "cart-1", func(context.Context) error { return nil })
	require.NoError(t, err)
}

func TestWithCartReleasesOnError(t *testing.T) {
	locker := testLocker(t)

	wantErr := errors.New("boom")
	err := locker.WithCart(context.Background(), "cart-1", func(context.Context) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)

	err = locker.WithCart(context.Background(), "cart-1", func(context.Context) error { return nil })
	require.NoError(t, err)
}

func TestWithCartReportsBusy(t *testing.T) {
	locker := testLocker(t)

	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = locker.WithCart(context.Background(), "cart-1", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	err := locker.WithCart(context.Background(), "cart-1", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrBusy)

	// a different cart is unaffected
	err = locker.WithCart(context.Background(), "cart-2", func(context.Context) error { return nil })
	require.NoError(t, err)
}
