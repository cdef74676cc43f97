package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres claim ledger. An expired row is taken over in
// the same statement that would otherwise conflict.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Claim(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	query := `
		INSERT INTO claims (claim_key, expires_at)
		VALUES ($1, NOW() + $2 * INTERVAL '1 millisecond')
		ON CONFLICT (claim_key) DO UPDATE SET expires_at = EXCLUDED.expires_at
		WHERE claims.expires_at <= NOW()
		RETURNING expires_at`

	var expiresAt time.Time
	err := r.pool.QueryRow(ctx, query, key, ttl.Milliseconds()).Scan(&expiresAt)
	if err == nil {
		return true, 0, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, 0, fmt.Errorf("inserting claim: %w", err)
	}

	var remaining float64
	err = r.pool.QueryRow(ctx,
		`SELECT GREATEST(EXTRACT(EPOCH FROM expires_at - NOW()), 0) FROM claims WHERE claim_key = $1`, key,
	).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Released between the two statements; report it as held for
			// this round rather than racing for it again.
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("reading claim: %w", err)
	}
	return false, time.Duration(remaining * float64(time.Second)), nil
}

// Purge deletes expired claims and returns how many were removed.
func (r *Repository) Purge(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM claims WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purging claims: %w", err)
	}
	return tag.RowsAffected(), nil
}
