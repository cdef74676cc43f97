package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/threadkeeper/internal/domain/event"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Append(ctx context.Context, e event.Event) error {
	query := `
		INSERT INTO audit_events (id, type, level, guild_id, actor_id, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		e.ID, string(e.Type), string(e.Level), e.GuildID, e.ActorID, e.Subject, e.Message, e.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]event.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, type, level, guild_id, actor_id, subject, message, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		var (
			e          event.Event
			typ, level string
		)
		if err := rows.Scan(&e.ID, &typ, &level, &e.GuildID, &e.ActorID, &e.Subject, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		e.Type = event.Type(typ)
		e.Level = event.Level(level)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit events: %w", err)
	}
	return out, nil
}
