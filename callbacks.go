package espacemembre

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// CallbacksWrapper decorates the sign-in and JWT callbacks.
type CallbacksWrapper struct {
	lookup        MemberLookup
	allowInactive bool
	logger        Logger
}

// NewCallbacksWrapper returns a CallbacksWrapper resolving usernames with
// lookup. Inactive members are rejected unless WithAllowInactive is set.
func NewCallbacksWrapper(lookup MemberLookup) *CallbacksWrapper {
	return &CallbacksWrapper{
		lookup: lookup,
		logger: resolveLogger(nil),
	}
}

func (w *CallbacksWrapper) WithLogger(l Logger) *CallbacksWrapper {
	w.logger = resolveLogger(l)
	return w
}

// WithAllowInactive lets inactive members sign in.
func (w *CallbacksWrapper) WithAllowInactive(allow bool) *CallbacksWrapper {
	w.allowInactive = allow
	return w
}

// Wrap returns callbacks that validate Espace Membre sign-ins against the
// directory before delegating to original.
func (w *CallbacksWrapper) Wrap(original Callbacks) Callbacks {
	return Callbacks{
		SignIn: func(ctx context.Context, params SignInParams) (bool, error) {
			return w.signIn(ctx, original, params)
		},
		JWT: func(ctx context.Context, params JWTParams) (jwt.MapClaims, error) {
			return w.jwt(ctx, original, params)
		},
	}
}

func isMemberAccount(account *Account) bool {
	return account != nil && account.Provider == ProviderID
}

// signIn approves, rejects (false, nil) or fails. Only a not found lookup
// or an inactive member is turned into a rejection.
func (w *CallbacksWrapper) signIn(ctx context.Context, original Callbacks, params SignInParams) (bool, error) {
	if isMemberAccount(params.Account) && params.Email != nil && params.Email.VerificationRequest {
		if params.User == nil || params.User.Email == "" {
			return false, configError("signIn: user email is required when using the Espace Membre provider")
		}

		username := params.User.Email
		member, err := w.lookup.GetByUsername(ctx, username)
		if err != nil {
			if IsMemberNotFound(err) {
				w.logger.Info("sign-in rejected, unknown member", "username", username)
				return false, nil
			}
			return false, err
		}

		if !w.allowInactive && !member.IsActive {
			w.logger.Info("sign-in rejected, inactive member", "username", username)
			return false, nil
		}

		params.User.Name = member.Fullname
		params.User.Image = member.AvatarURL()
		params.User.Email = member.DeliveryEmail()
		params.User.ID = username
		params.Account.UserID = username
	}

	if original.SignIn == nil {
		return true, nil
	}
	return original.SignIn(ctx, params)
}

func (w *CallbacksWrapper) jwt(ctx context.Context, original Callbacks, params JWTParams) (jwt.MapClaims, error) {
	if params.Trigger != TriggerUpdate && isMemberAccount(params.Account) {
		subject, _ := params.Token.GetSubject()
		if subject == "" {
			return nil, configError("jwt: token subject is required when using the Espace Membre provider")
		}

		member, err := w.lookup.GetByUsername(ctx, subject)
		if err != nil {
			return nil, err
		}
		params.Member = member
	}

	if original.JWT == nil {
		return params.Token, nil
	}
	return original.JWT(ctx, params)
}
