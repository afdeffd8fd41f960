package espacemembre

import (
	"context"
	"strings"
)

// AdapterWrapper decorates persistence adapters so users are materialized
// from the directory.
type AdapterWrapper struct {
	lookup MemberLookup
	logger Logger
}

// NewAdapterWrapper returns an AdapterWrapper resolving usernames with lookup.
func NewAdapterWrapper(lookup MemberLookup) *AdapterWrapper {
	return &AdapterWrapper{
		lookup: lookup,
		logger: resolveLogger(nil),
	}
}

func (w *AdapterWrapper) WithLogger(l Logger) *AdapterWrapper {
	w.logger = resolveLogger(l)
	return w
}

// Wrap decorates original. original must support CreateUser and
// GetUserByEmail.
func (w *AdapterWrapper) Wrap(original Adapter) (*MemberAdapter, error) {
	if original == nil {
		return nil, configError("the Espace Membre adapter wrapper requires an adapter that supports CreateUser and GetUserByEmail")
	}
	if w.lookup == nil {
		return nil, configError("the Espace Membre adapter wrapper requires a member lookup")
	}

	return &MemberAdapter{
		original: original,
		lookup:   w.lookup,
		logger:   w.logger,
	}, nil
}

// MemberAdapter intercepts user creation and email lookups. Optional
// operations are forwarded to the wrapped adapter when it supports them.
type MemberAdapter struct {
	original Adapter
	lookup   MemberLookup
	logger   Logger
}

var (
	_ Adapter                = (*MemberAdapter)(nil)
	_ UserGetter             = (*MemberAdapter)(nil)
	_ UserUpdater            = (*MemberAdapter)(nil)
	_ VerificationTokenStore = (*MemberAdapter)(nil)
)

// Unwrap returns the wrapped adapter.
func (a *MemberAdapter) Unwrap() Adapter {
	return a.original
}

// CreateUser reads user.Email as a username and replaces the name, email,
// id and image with the directory values before creating the user.
func (a *MemberAdapter) CreateUser(ctx context.Context, user AdapterUser) (*AdapterUser, error) {
	username := user.Email

	member, err := a.lookup.GetByUsername(ctx, username)
	if err != nil {
		a.logger.Error("create user lookup failed", "username", username, "error", err)
		return nil, err
	}

	user.Name = member.Fullname
	user.Email = member.DeliveryEmail()
	user.ID = member.Username
	user.Image = member.AvatarURL()

	return a.original.CreateUser(ctx, user)
}

// GetUserByEmail passes addresses through and resolves anything without an
// "@" as a username first.
func (a *MemberAdapter) GetUserByEmail(ctx context.Context, email string) (*AdapterUser, error) {
	if strings.Contains(email, "@") {
		return a.original.GetUserByEmail(ctx, email)
	}

	member, err := a.lookup.GetByUsername(ctx, email)
	if err != nil {
		a.logger.Error("get user by email lookup failed", "username", email, "error", err)
		return nil, err
	}

	return a.original.GetUserByEmail(ctx, member.DeliveryEmail())
}

func (a *MemberAdapter) GetUser(ctx context.Context, id string) (*AdapterUser, error) {
	getter, ok := a.original.(UserGetter)
	if !ok {
		return nil, ErrUnsupportedOperation
	}
	return getter.GetUser(ctx, id)
}

func (a *MemberAdapter) UpdateUser(ctx context.Context, user AdapterUser) (*AdapterUser, error) {
	updater, ok := a.original.(UserUpdater)
	if !ok {
		return nil, ErrUnsupportedOperation
	}
	return updater.UpdateUser(ctx, user)
}

func (a *MemberAdapter) CreateVerificationToken(ctx context.Context, token VerificationToken) (*VerificationToken, error) {
	store, ok := a.original.(VerificationTokenStore)
	if !ok {
		return nil, ErrUnsupportedOperation
	}
	return store.CreateVerificationToken(ctx, token)
}

func (a *MemberAdapter) UseVerificationToken(ctx context.Context, identifier, token string) (*VerificationToken, error) {
	store, ok := a.original.(VerificationTokenStore)
	if !ok {
		return nil, ErrUnsupportedOperation
	}
	return store.UseVerificationToken(ctx, identifier, token)
}
