package espacemembre

import (
	"context"
	"time"

	"github.com/goliatone/go-auth-espace-membre/client"
	"github.com/golang-jwt/jwt/v5"
)

// MemberLookup resolves a directory member by username.
// *client.MemberAPI and cache.Lookup implement it.
type MemberLookup = client.MemberLookup

// VerificationRequestParams is what the framework hands to an email provider
// when a magic link must be sent.
type VerificationRequestParams struct {
	// Identifier is the address the link is sent to.
	Identifier string
	URL        string
	Token      string
	Expires    time.Time
	Provider   EmailProvider
}

// EmailProvider is an email/magic-link sign-in provider.
type EmailProvider interface {
	ID() string
	Type() string
	SendVerificationRequest(ctx context.Context, params VerificationRequestParams) error
	NormalizeIdentifier(identifier string) (string, error)
}

// AdapterUser is a user record as stored by the persistence adapter.
type AdapterUser struct {
	ID            string
	Name          string
	Email         string
	EmailVerified *time.Time
	Image         string
}

// Adapter is the capability set the adapter wrapper requires.
type Adapter interface {
	CreateUser(ctx context.Context, user AdapterUser) (*AdapterUser, error)
	// GetUserByEmail returns nil, nil when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*AdapterUser, error)
}

// UserGetter is an optional adapter capability.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (*AdapterUser, error)
}

// UserUpdater is an optional adapter capability.
type UserUpdater interface {
	UpdateUser(ctx context.Context, user AdapterUser) (*AdapterUser, error)
}

// VerificationToken is a pending magic link.
type VerificationToken struct {
	Identifier string
	Token      string
	Expires    time.Time
}

// VerificationTokenStore is an optional adapter capability used by the
// email flow to persist and consume magic link tokens.
type VerificationTokenStore interface {
	CreateVerificationToken(ctx context.Context, token VerificationToken) (*VerificationToken, error)
	// UseVerificationToken returns nil, nil when the token does not exist.
	UseVerificationToken(ctx context.Context, identifier, token string) (*VerificationToken, error)
}

// User is the user object passed through the sign-in callback.
type User struct {
	ID    string
	Name  string
	Email string
	Image string
}

// Account describes the provider account a sign-in goes through.
type Account struct {
	Provider          string
	Type              string
	ProviderAccountID string
	UserID            string
}

// EmailSignIn is set on email sign-ins.
type EmailSignIn struct {
	// VerificationRequest is true when the sign-in callback runs before the
	// magic link is sent, false when the link is being redeemed.
	VerificationRequest bool
}

// SignInParams are the inputs of the sign-in callback. User and Account
// may be modified by the callee.
type SignInParams struct {
	User    *User
	Account *Account
	Email   *EmailSignIn
	Profile map[string]any
}

// JWT triggers.
const (
	TriggerSignIn = "signIn"
	TriggerSignUp = "signUp"
	TriggerUpdate = "update"
)

// JWTParams are the inputs of the JWT callback.
type JWTParams struct {
	Token     jwt.MapClaims
	User      *User
	Account   *Account
	Trigger   string
	IsNewUser bool
	Session   any
	// Member is the directory record of the token subject. It is only set
	// by CallbacksWrapper for Espace Membre sign-ins.
	Member *client.Member
}

// SignInFunc decides whether a sign-in may proceed.
type SignInFunc func(ctx context.Context, params SignInParams) (bool, error)

// JWTFunc derives the claims stored in the session token.
type JWTFunc func(ctx context.Context, params JWTParams) (jwt.MapClaims, error)

// Callbacks groups the framework callbacks. Nil entries use the framework
// defaults: sign-in allowed, token returned unchanged.
type Callbacks struct {
	SignIn SignInFunc
	JWT    JWTFunc
}
