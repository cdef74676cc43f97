package auth

import (
	"context"

	"github.com/alanyang/threadkeeper/internal/domain/auth"
)

// Directory is the worker's EVE SSO record store.
type Directory interface {
	Login(ctx context.Context, discordID, username string) (string, error)
	// User returns false when the member has never authenticated.
	User(ctx context.Context, discordID string) (auth.Record, bool, error)
	Users(ctx context.Context) ([]auth.Record, error)
	Refresh(ctx context.Context) (auth.RefreshResult, error)
	Delete(ctx context.Context, discordID string) error
}
