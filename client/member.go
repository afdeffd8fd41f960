package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// MemberLookup resolves directory members by username.
type MemberLookup interface {
	GetByUsername(ctx context.Context, username string) (*Member, error)
}

// MemberAPI wraps "/api/protected/member".
type MemberAPI struct {
	client *Client
	opts   []RequestOption
}

var _ MemberLookup = (*MemberAPI)(nil)

// WithRequestOptions returns a copy of the API that applies opts to every call.
func (a *MemberAPI) WithRequestOptions(opts ...RequestOption) *MemberAPI {
	return &MemberAPI{
		client: a.client,
		opts:   append(append([]RequestOption(nil), a.opts...), opts...),
	}
}

// GetByUsername fetches a member. An empty username fails with a
// configuration error before any request is made. A 404 from the directory
// is reported as *MemberNotFoundError; every other failure as *RequestError.
func (a *MemberAPI) GetByUsername(ctx context.Context, username string) (*Member, error) {
	return a.GetByUsernameWith(ctx, username)
}

// GetByUsernameWith is GetByUsername with per call request options.
func (a *MemberAPI) GetByUsernameWith(ctx context.Context, username string, opts ...RequestOption) (*Member, error) {
	if username == "" {
		return nil, NewConfigError("a username is required to fetch a member")
	}

	path := "/member/" + url.PathEscape(username)
	opts = append(append([]RequestOption(nil), a.opts...), opts...)

	var member Member
	err := a.client.Do(ctx, Request{Method: http.MethodGet, Path: path}, &member, opts...)
	if err == nil {
		return &member, nil
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
		return nil, &MemberNotFoundError{Username: username, RequestError: reqErr}
	}

	return nil, &RequestError{
		Message:    fmt.Sprintf("failed to fetch member %s (%v)", username, err),
		Method:     http.MethodGet,
		Path:       path,
		StatusCode: StatusCode(err),
		Err:        err,
	}
}
