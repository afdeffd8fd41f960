package cache

import (
	"context"

	"github.com/goliatone/go-auth-espace-membre/client"
)

// Store persists members by username.
type Store interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, username string) (member *client.Member, ok bool, err error)
	Set(ctx context.Context, username string, member *client.Member) error
	Delete(ctx context.Context, username string) error
}
