package client

import (
	"context"
	"net/url"
)

// IncubatorAPI wraps "/api/protected/incubator".
type IncubatorAPI struct {
	client *Client
}

// IncubatorListOptions selects the includes of IncubatorAPI.GetAll.
type IncubatorListOptions struct {
	WithStartups bool
	WithMembers  bool
}

// GetAll lists incubators with the requested includes.
func (a *IncubatorAPI) GetAll(ctx context.Context, opts IncubatorListOptions, reqOpts ...RequestOption) ([]IncubatorDetails, error) {
	query := url.Values{}
	if opts.WithStartups {
		query.Add("includes", "startups")
	}
	if opts.WithMembers {
		query.Add("includes", "members")
	}

	incubators, err := Get[[]IncubatorDetails](ctx, a.client, "/incubator", query, reqOpts...)
	if err != nil {
		return nil, wrapListError("incubators", "/incubator", err)
	}
	return incubators, nil
}
