package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-auth-espace-membre/client"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is used by NewMemory when ttl is not positive.
const DefaultTTL = 5 * time.Minute

// Memory is an in-process Store.
type Memory struct {
	items *gocache.Cache
}

var _ Store = (*Memory)(nil)

// NewMemory returns an in-process Store whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{items: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, username string) (*client.Member, bool, error) {
	v, ok := m.items.Get(username)
	if !ok {
		return nil, false, nil
	}
	member, ok := v.(client.Member)
	if !ok {
		return nil, false, nil
	}
	return &member, true, nil
}

func (m *Memory) Set(_ context.Context, username string, member *client.Member) error {
	if member == nil {
		return nil
	}
	m.items.SetDefault(username, *member)
	return nil
}

func (m *Memory) Delete(_ context.Context, username string) error {
	m.items.Delete(username)
	return nil
}

// Len returns the number of cached entries, expired ones included until
// the janitor removes them.
func (m *Memory) Len() int {
	return m.items.ItemCount()
}
