// Package repository persists users and verification tokens with Bun. Its
// Adapter is the store the Espace Membre adapter wrapper decorates.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	espacemembre "github.com/goliatone/go-auth-espace-membre"
	"github.com/goliatone/go-auth-espace-membre/client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Adapter implements espacemembre.Adapter and its optional capabilities.
type Adapter struct {
	db     *bun.DB
	users  repository.Repository[*UserModel]
	tokens repository.Repository[*VerificationTokenModel]
}

var (
	_ espacemembre.Adapter                = (*Adapter)(nil)
	_ espacemembre.UserGetter             = (*Adapter)(nil)
	_ espacemembre.UserUpdater            = (*Adapter)(nil)
	_ espacemembre.VerificationTokenStore = (*Adapter)(nil)
)

func NewAdapter(db *bun.DB) *Adapter {
	return &Adapter{
		db:     db,
		users:  NewUsersRepository(db),
		tokens: NewVerificationTokensRepository(db),
	}
}

// NewUsersRepository returns the generic repository backing users. Non uuid
// identifiers resolve against user_id.
func NewUsersRepository(db *bun.DB) repository.Repository[*UserModel] {
	handlers := repository.ModelHandlers[*UserModel]{
		NewRecord: func() *UserModel {
			return &UserModel{}
		},
		GetID: func(record *UserModel) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *UserModel, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	}
	return repository.NewRepository(db, handlers)
}

// NewVerificationTokensRepository returns the generic repository backing
// verification tokens.
func NewVerificationTokensRepository(db *bun.DB) repository.Repository[*VerificationTokenModel] {
	handlers := repository.ModelHandlers[*VerificationTokenModel]{
		NewRecord: func() *VerificationTokenModel {
			return &VerificationTokenModel{}
		},
		GetID: func(record *VerificationTokenModel) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *VerificationTokenModel, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "identifier"
		},
	}
	return repository.NewRepository(db, handlers)
}

func (a *Adapter) Validate() error {
	if a.db == nil {
		return errors.New("repository db should be initialized")
	}
	if a.users == nil {
		return errors.New("repository users should be initialized")
	}
	if a.tokens == nil {
		return errors.New("repository verification tokens should be initialized")
	}
	return nil
}

func (a *Adapter) MustValidate() {
	if err := a.Validate(); err != nil {
		log.Panic(err)
	}
}

// RunInTx runs f in a transaction unless ctx is already done.
func (a *Adapter) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return a.db.RunInTx(ctx, opts, f)
	}
}

func (a *Adapter) CreateUser(ctx context.Context, user espacemembre.AdapterUser) (*espacemembre.AdapterUser, error) {
	created, err := a.users.Create(ctx, fromAdapterUser(user))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user").
			WithMetadata(map[string]any{"user_id": user.ID})
	}
	return toAdapterUser(created), nil
}

// GetUser returns nil, nil when no user has that id.
func (a *Adapter) GetUser(ctx context.Context, id string) (*espacemembre.AdapterUser, error) {
	if id == "" {
		return nil, nil
	}
	record, err := a.users.GetByIdentifier(ctx, userIdentifier(id))
	return a.foundUser(record, err)
}

// GetUserByEmail returns nil, nil when no user has that email.
func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*espacemembre.AdapterUser, error) {
	record, err := a.users.Get(ctx, repository.SelectBy("email", "=", email))
	return a.foundUser(record, err)
}

func (a *Adapter) foundUser(record *UserModel, err error) (*espacemembre.AdapterUser, error) {
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user")
	}
	return toAdapterUser(record), nil
}

// UpdateUser overwrites the non-zero fields of user on the stored row.
func (a *Adapter) UpdateUser(ctx context.Context, user espacemembre.AdapterUser) (*espacemembre.AdapterUser, error) {
	if user.ID == "" {
		return nil, client.NewConfigError("user id is required to update a user")
	}

	var updated *UserModel
	err := a.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := a.users.GetByIdentifierTx(ctx, tx, userIdentifier(user.ID))
		if err != nil {
			return err
		}

		if user.Name != "" {
			record.Name = user.Name
		}
		if user.Email != "" {
			record.Email = user.Email
		}
		if user.EmailVerified != nil {
			record.EmailVerified = user.EmailVerified
		}
		if user.Image != "" {
			record.Image = user.Image
		}
		record.UpdatedAt = time.Now().UTC()

		updated, err = a.users.UpdateTx(ctx, tx, record)
		return err
	})
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.New("user not found", goerrors.CategoryNotFound).
				WithMetadata(map[string]any{"user_id": user.ID})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}
	return toAdapterUser(updated), nil
}

func (a *Adapter) CreateVerificationToken(ctx context.Context, token espacemembre.VerificationToken) (*espacemembre.VerificationToken, error) {
	model := &VerificationTokenModel{
		ID:         uuid.New(),
		Identifier: token.Identifier,
		Token:      token.Token,
		Expires:    token.Expires.UTC(),
		CreatedAt:  time.Now().UTC(),
	}
	created, err := a.tokens.Create(ctx, model)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create verification token").
			WithMetadata(map[string]any{"identifier": token.Identifier})
	}
	return toVerificationToken(created), nil
}

// UseVerificationToken deletes and returns the token. It returns nil, nil
// when the token does not exist or was already used.
func (a *Adapter) UseVerificationToken(ctx context.Context, identifier, token string) (*espacemembre.VerificationToken, error) {
	var used *VerificationTokenModel
	err := a.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := a.tokens.GetTx(ctx, tx,
			repository.SelectBy("identifier", "=", identifier),
			repository.SelectBy("token", "=", token),
		)
		if err != nil {
			return err
		}
		if err := a.tokens.DeleteTx(ctx, tx, record); err != nil {
			return err
		}
		used = record
		return nil
	})
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve verification token")
	}
	return toVerificationToken(used), nil
}

// DeleteExpiredTokens removes tokens that expired before now and returns
// how many were removed.
func (a *Adapter) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := a.db.NewDelete().
		Model((*VerificationTokenModel)(nil)).
		Where("expires < ?", now.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete expired verification tokens")
	}
	return res.RowsAffected()
}
