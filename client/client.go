package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultEndpointURL is used when neither Options nor the environment set one.
	DefaultEndpointURL = "https://espace-membre.incubateur.net"
	// DefaultRequestTimeout bounds a single attempt.
	DefaultRequestTimeout = 5 * time.Minute
	// APIBasePath prefixes every path sent to the directory.
	APIBasePath = "/api/protected"
	// APIKeyHeader carries the API key on every request.
	APIKeyHeader = "X-API-Key"
	// DefaultMaxResponseBytes caps how much of a response body is read.
	DefaultMaxResponseBytes int64 = 10 << 20

	EnvAPIKey      = "ESPACE_MEMBRE_API_KEY"
	EnvEndpointURL = "ESPACE_MEMBRE_URL"
)

// ErrResponseTooLarge is wrapped by the RequestError returned when a response
// body exceeds the configured limit.
var ErrResponseTooLarge = errors.New("response body too large")

// Version is reported in the User-Agent header.
var Version = "0.1.0"

// UserAgent returns the User-Agent sent to the directory.
func UserAgent() string {
	return "go-auth-espace-membre/" + Version
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestOption mutates an outgoing request right before it is sent.
type RequestOption func(*http.Request)

// WithHeader sets a header on the outgoing request.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// Options configures a Client.
type Options struct {
	// APIKey defaults to $ESPACE_MEMBRE_API_KEY. Required.
	APIKey string
	// EndpointURL defaults to $ESPACE_MEMBRE_URL, then DefaultEndpointURL.
	EndpointURL string
	// CustomHeaders are merged over the default headers.
	CustomHeaders map[string]string
	// HTTPClient sends the requests, defaults to a plain *http.Client.
	HTTPClient Doer
	// RequestOptions are applied to every request, before per-call options.
	RequestOptions []RequestOption
	// NoRetryIfRateLimited surfaces 429 responses as errors instead of retrying.
	NoRetryIfRateLimited bool
	// RequestTimeout bounds each attempt. Defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
	// Backoff computes the wait before retry n. Defaults to ComputeBackoff.
	Backoff func(attempt int) time.Duration
	// MaxResponseBytes defaults to DefaultMaxResponseBytes.
	MaxResponseBytes int64
	Logger           Logger
	Metrics          *Metrics
}

// Request describes a call against the directory API.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
}

// Client talks to the Espace Membre REST API.
type Client struct {
	apiKey               string
	endpoint             *url.URL
	customHeaders        map[string]string
	httpClient           Doer
	requestOptions       []RequestOption
	noRetryIfRateLimited bool
	requestTimeout       time.Duration
	backoff              func(int) time.Duration
	maxResponseBytes     int64
	logger               Logger
	metrics              *Metrics
}

// New creates a Client. It fails when no API key can be resolved or the
// endpoint is not an absolute URL.
func New(opts Options) (*Client, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(EnvAPIKey)
	}
	if apiKey == "" {
		return nil, NewConfigError("an API key is required to connect to Espace Membre")
	}

	endpoint := opts.EndpointURL
	if endpoint == "" {
		endpoint = os.Getenv(EnvEndpointURL)
	}
	if endpoint == "" {
		endpoint = DefaultEndpointURL
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, NewConfigError(fmt.Sprintf("invalid Espace Membre endpoint URL %q", endpoint))
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	backoff := opts.Backoff
	if backoff == nil {
		backoff = ComputeBackoff
	}

	maxResponseBytes := opts.MaxResponseBytes
	if maxResponseBytes <= 0 {
		maxResponseBytes = DefaultMaxResponseBytes
	}

	return &Client{
		apiKey:               apiKey,
		endpoint:             parsed,
		customHeaders:        opts.CustomHeaders,
		httpClient:           httpClient,
		requestOptions:       opts.RequestOptions,
		noRetryIfRateLimited: opts.NoRetryIfRateLimited,
		requestTimeout:       timeout,
		backoff:              backoff,
		maxResponseBytes:     maxResponseBytes,
		logger:               normalizeLogger(opts.Logger),
		metrics:              opts.Metrics,
	}, nil
}

// EndpointURL returns the configured base URL.
func (c *Client) EndpointURL() string {
	return c.endpoint.String()
}

// RequestTimeout returns the per attempt timeout.
func (c *Client) RequestTimeout() time.Duration {
	return c.requestTimeout
}

// Member returns the "/member" API.
func (c *Client) Member() *MemberAPI {
	return &MemberAPI{client: c}
}

// Startup returns the "/startup" API.
func (c *Client) Startup() *StartupAPI {
	return &StartupAPI{client: c}
}

// Incubator returns the "/incubator" API.
func (c *Client) Incubator() *IncubatorAPI {
	return &IncubatorAPI{client: c}
}

// Do sends req and decodes a successful JSON body into out (skipped when out
// is nil). 429 responses are retried after a jittered backoff for as long as
// the directory keeps answering 429, unless NoRetryIfRateLimited is set; only
// ctx bounds the total duration. Every failure is a *RequestError.
func (c *Client) Do(ctx context.Context, req Request, out any, opts ...RequestOption) error {
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	path := req.Path
	if path == "" {
		path = "/"
	}

	target, err := c.buildURL(path, req.Query)
	if err != nil {
		return &RequestError{
			Message: fmt.Sprintf("invalid request path (%v)", err),
			Method:  method,
			Path:    path,
			Err:     err,
		}
	}

	headers := c.RequestHeaders(req.Headers)

	for attempt := 0; ; attempt++ {
		c.logger.Debug("espace membre request", "method", method, "path", path, "attempt", attempt)

		resp, body, err := c.attempt(ctx, method, target, headers, opts)
		if err != nil {
			c.logger.Error("espace membre request failed", "method", method, "path", path, "error", err)
			return &RequestError{
				Message: fmt.Sprintf("request failed (%v)", err),
				Method:  method,
				Path:    path,
				Err:     err,
			}
		}

		if resp.StatusCode == http.StatusTooManyRequests && !c.noRetryIfRateLimited {
			delay := c.backoff(attempt)
			c.logger.Warn("espace membre rate limited, retrying",
				"method", method, "path", path, "attempt", attempt, "delay", delay)
			c.metrics.observeRetry()

			if err := sleepContext(ctx, delay); err != nil {
				return &RequestError{
					Message: fmt.Sprintf("request cancelled while waiting to retry (%v)", err),
					Method:  method,
					Path:    path,
					Err:     err,
				}
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &RequestError{
				Message:    fmt.Sprintf("request failed with status %d", resp.StatusCode),
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode,
				Response:   resp,
				Body:       body,
			}
		}

		if out == nil {
			return nil
		}

		if err := json.Unmarshal(body, out); err != nil {
			return &RequestError{
				Message:    fmt.Sprintf("failed to read response (%v)", err),
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode,
				Response:   resp,
				Body:       body,
				Err:        err,
			}
		}

		return nil
	}
}

// attempt performs one round trip under its own timeout. The body is read
// before the timeout is released so it can be inspected afterwards.
func (c *Client) attempt(ctx context.Context, method, target string, headers map[string]string, opts []RequestOption) (*http.Response, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, nil)
	if err != nil {
		return nil, nil, err
	}

	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}
	for _, opt := range c.requestOptions {
		if opt != nil {
			opt(httpReq)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(httpReq)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeAttempt(method, 0, started)
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	c.metrics.observeAttempt(method, resp.StatusCode, started)
	if err != nil {
		return nil, nil, err
	}
	if int64(len(body)) > c.maxResponseBytes {
		return nil, nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxResponseBytes)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, body, nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	ref, err := url.Parse(APIBasePath + path)
	if err != nil {
		return "", err
	}

	u := c.endpoint.ResolveReference(ref)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// RequestHeaders returns the default headers overlaid with the client custom
// headers and then extra. Keys are compared in canonical form and the last
// writer keeps its own casing. Within one map, keys that only differ in case
// are applied in sorted order, so the lower case spelling wins.
func (c *Client) RequestHeaders(extra map[string]string) map[string]string {
	headers := map[string]string{
		"User-Agent":   UserAgent(),
		"Content-Type": "application/json",
		APIKeyHeader:   c.apiKey,
	}
	mergeHeaders(headers, c.customHeaders)
	mergeHeaders(headers, extra)
	return headers
}

func mergeHeaders(dst, src map[string]string) {
	keys := make([]string, 0, len(src))
	for key := range src {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		canonical := http.CanonicalHeaderKey(key)
		for existing := range dst {
			if http.CanonicalHeaderKey(existing) == canonical {
				delete(dst, existing)
			}
		}
		dst[key] = src[key]
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Get issues a GET against path and decodes the body into a T.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values, opts ...RequestOption) (T, error) {
	var out T
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, &out, opts...); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
