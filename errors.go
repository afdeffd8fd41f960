package espacemembre

import (
	"github.com/goliatone/go-auth-espace-membre/client"
	"github.com/goliatone/go-errors"
)

const TextCodeUnsupportedOperation = "ESPACE_MEMBRE_UNSUPPORTED_OPERATION"

// ErrUnsupportedOperation is returned by MemberAdapter when the wrapped
// adapter does not implement the requested optional operation.
var ErrUnsupportedOperation = errors.New("operation not supported by the wrapped adapter", errors.CategoryOperation).
	WithTextCode(TextCodeUnsupportedOperation)

// IsConfigError reports whether err is a configuration error: missing API
// key or username, incompatible provider, missing token subject, etc.
func IsConfigError(err error) bool {
	return client.IsConfigError(err)
}

// IsMemberNotFound reports whether err is a directory 404 on a member lookup.
func IsMemberNotFound(err error) bool {
	return client.IsMemberNotFound(err)
}

func configError(message string) error {
	return client.NewConfigError(message)
}
