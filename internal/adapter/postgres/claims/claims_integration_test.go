//go:build integration

package claims_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgclaims "github.com/alanyang/threadkeeper/internal/adapter/postgres/claims"
	"github.com/alanyang/threadkeeper/internal/testutil"
)

func TestClaims_FirstCallerWins(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := pgclaims.New(pool)
	ctx := context.Background()
	key := "cooldown:recruit:" + uuid.NewString()

	ok, _, err := repo.Claim(ctx, key, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, remaining, err := repo.Claim(ctx, key, 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, remaining, 4*time.Minute)
}

func TestClaims_ExpiredClaimIsTakenOver(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := pgclaims.New(pool)
	ctx := context.Background()
	key := "reminder:" + uuid.NewString()

	ok, _, err := repo.Claim(ctx, key, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)
	ok, _, err = repo.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClaims_Purge(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := pgclaims.New(pool)
	ctx := context.Background()

	_, _, err := repo.Claim(ctx, "purge:"+uuid.NewString(), time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	n, err := repo.Purge(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}
