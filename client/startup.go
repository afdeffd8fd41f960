package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// StartupAPI wraps "/api/protected/startup".
type StartupAPI struct {
	client *Client
}

// StartupListOptions selects the includes of StartupAPI.GetAll.
type StartupListOptions struct {
	WithIncubator bool
}

// GetAll lists startups. Incubator is only populated with WithIncubator.
func (a *StartupAPI) GetAll(ctx context.Context, opts StartupListOptions, reqOpts ...RequestOption) ([]StartupWithIncubator, error) {
	query := url.Values{}
	if opts.WithIncubator {
		query.Add("includes", "incubator")
	}

	startups, err := Get[[]StartupWithIncubator](ctx, a.client, "/startup", query, reqOpts...)
	if err != nil {
		return nil, wrapListError("startups", "/startup", err)
	}
	return startups, nil
}

// GetByGhid fetches a single startup with its incubator.
func (a *StartupAPI) GetByGhid(ctx context.Context, ghid string, reqOpts ...RequestOption) (*StartupWithIncubator, error) {
	if ghid == "" {
		return nil, NewConfigError("a ghid is required to fetch a startup")
	}

	path := "/startup/" + url.PathEscape(ghid)
	startup, err := Get[StartupWithIncubator](ctx, a.client, path, nil, reqOpts...)
	if err != nil {
		return nil, wrapListError("startup "+ghid, path, err)
	}
	return &startup, nil
}

func wrapListError(what, path string, err error) error {
	return &RequestError{
		Message:    fmt.Sprintf("failed to fetch %s (%v)", what, err),
		Method:     http.MethodGet,
		Path:       path,
		StatusCode: StatusCode(err),
		Err:        err,
	}
}
