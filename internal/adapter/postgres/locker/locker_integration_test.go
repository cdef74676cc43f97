//go:build integration

package locker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pglocker "github.com/alanyang/threadkeeper/internal/adapter/postgres/locker"
	"github.com/alanyang/threadkeeper/internal/testutil"
)

func TestTryWithLock_SecondSessionSkips(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	l := pglocker.New(pool)
	ctx := context.Background()
	const key = int64(0x7468726561646b)

	ran, err := l.TryWithLock(ctx, key, func(ctx context.Context) error {
		inner, err := l.TryWithLock(ctx, key, func(context.Context) error {
			t.Fatal("second session must not acquire the lock")
			return nil
		})
		assert.False(t, inner)
		return err
	})
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = l.TryWithLock(ctx, key, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.True(t, ran, "lock is released after the first holder returns")
}
