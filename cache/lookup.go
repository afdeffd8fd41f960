package cache

import (
	"context"

	"github.com/goliatone/go-auth-espace-membre/client"
	"golang.org/x/sync/singleflight"
)

// Lookup is a caching client.MemberLookup.
type Lookup struct {
	next   client.MemberLookup
	store  Store
	group  singleflight.Group
	logger client.Logger
}

var _ client.MemberLookup = (*Lookup)(nil)

// NewLookup decorates next. A nil store only de-duplicates concurrent calls.
func NewLookup(next client.MemberLookup, store Store) *Lookup {
	return &Lookup{
		next:   next,
		store:  store,
		logger: client.NopLogger(),
	}
}

func (l *Lookup) WithLogger(logger client.Logger) *Lookup {
	if logger == nil {
		logger = client.NopLogger()
	}
	l.logger = logger
	return l
}

// GetByUsername serves from the store when possible. Store failures are
// logged and fall through to the directory. Concurrent callers for the same
// username share one directory request, and each returns early when its own
// ctx is done.
func (l *Lookup) GetByUsername(ctx context.Context, username string) (*client.Member, error) {
	if username == "" {
		return l.next.GetByUsername(ctx, username)
	}

	if l.store != nil {
		member, ok, err := l.store.Get(ctx, username)
		if err != nil {
			l.logger.Warn("member cache read failed", "username", username, "error", err)
		} else if ok {
			return member, nil
		}
	}

	// The shared call outlives any single caller; the client bounds each
	// attempt with its own timeout.
	ch := l.group.DoChan(username, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		member, err := l.next.GetByUsername(shared, username)
		if err != nil {
			return nil, err
		}
		if l.store != nil {
			if err := l.store.Set(shared, username, member); err != nil {
				l.logger.Warn("member cache write failed", "username", username, "error", err)
			}
		}
		return member, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		member := res.Val.(*client.Member)
		if res.Shared {
			cp := *member
			return &cp, nil
		}
		return member, nil
	}
}

// Forget drops username from the store.
func (l *Lookup) Forget(ctx context.Context, username string) error {
	if l.store == nil {
		return nil
	}
	return l.store.Delete(ctx, username)
}
