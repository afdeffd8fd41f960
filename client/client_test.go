package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMemberUUID = "7c3a4e0e-8d4b-4f6f-9a55-1f2d0c9e8b21"

func testMember(username string) map[string]any {
	return map[string]any{
		"uuid":                testMemberUUID,
		"username":            username,
		"fullname":            "Alice Martin",
		"avatar":              nil,
		"communication_email": "secondary",
		"primary_email":       username + "@beta.gouv.fr",
		"secondary_email":     username + "@example.org",
		"isActive":            true,
	}
}

func writeMember(t *testing.T, w http.ResponseWriter, username string) {
	t.Helper()
	member := testMember(username)
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(member))
}

func newTestClient(t *testing.T, serverURL string, mutate ...func(*Options)) *Client {
	t.Helper()
	opts := Options{
		APIKey:      "test-key",
		EndpointURL: serverURL,
		Backoff:     func(int) time.Duration { return 0 },
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	_, err := New(Options{})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestNewFallsBackToEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvEndpointURL, "https://directory.example.org")

	c, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, "env-key", c.RequestHeaders(nil)[APIKeyHeader])
	assert.Equal(t, "https://directory.example.org", c.EndpointURL())
	assert.Equal(t, DefaultRequestTimeout, c.RequestTimeout())
}

func TestNewDefaultsEndpoint(t *testing.T) {
	t.Setenv(EnvEndpointURL, "")

	c, err := New(Options{APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpointURL, c.EndpointURL())
}

func TestNewRejectsRelativeEndpoint(t *testing.T) {
	_, err := New(Options{APIKey: "key", EndpointURL: "espace-membre"})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestRequestHeadersMergeCaseInsensitive(t *testing.T) {
	c, err := New(Options{
		APIKey:        "key",
		EndpointURL:   "https://directory.example.org",
		CustomHeaders: map[string]string{"content-type": "text/plain", "X-Trace": "abc"},
	})
	require.NoError(t, err)

	headers := c.RequestHeaders(map[string]string{"user-agent": "custom/1.0"})

	assert.Equal(t, "text/plain", headers["content-type"])
	assert.Equal(t, "custom/1.0", headers["user-agent"])
	assert.Equal(t, "abc", headers["X-Trace"])
	assert.Equal(t, "key", headers[APIKeyHeader])
	_, hasDefault := headers["Content-Type"]
	assert.False(t, hasDefault)
	_, hasDefaultUA := headers["User-Agent"]
	assert.False(t, hasDefaultUA)
}

func TestRequestHeadersCaseCollisionsAreDeterministic(t *testing.T) {
	c, err := New(Options{APIKey: "key", EndpointURL: "https://directory.example.org"})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		headers := c.RequestHeaders(map[string]string{
			"X-Trace": "upper",
			"x-trace": "lower",
			"x-api-key": "override",
		})

		assert.Equal(t, "lower", headers["x-trace"])
		_, hasUpper := headers["X-Trace"]
		assert.False(t, hasUpper)
		assert.Equal(t, "override", headers["x-api-key"])
		_, hasDefaultKey := headers[APIKeyHeader]
		assert.False(t, hasDefaultKey)
		assert.Len(t, headers, 4)
	}
}

func TestGetByUsernameIssuesSingleRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/protected/member/jean%20dupont", r.URL.EscapedPath())
		assert.Equal(t, "test-key", r.Header.Get(APIKeyHeader))
		assert.Equal(t, UserAgent(), r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeMember(t, w, "jean dupont")
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	member, err := c.Member().GetByUsername(context.Background(), "jean dupont")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "jean dupont", member.Username)
	assert.Equal(t, testMemberUUID, member.UUID)
	assert.Equal(t, "jean dupont@example.org", member.DeliveryEmail())
	assert.Nil(t, member.Avatar)
	assert.True(t, member.IsActive)
}

func TestGetByUsernameEmptyMakesNoCall(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	_, err := c.Member().GetByUsername(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGetByUsernameNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	_, err := c.Member().GetByUsername(context.Background(), "ghost")
	require.Error(t, err)

	var nf *MemberNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "ghost", nf.Username)
	assert.Equal(t, http.StatusNotFound, nf.StatusCode)
	require.NotNil(t, nf.Response)
	assert.Equal(t, http.StatusNotFound, nf.Response.StatusCode)

	var reqErr *RequestError
	assert.True(t, errors.As(err, &reqErr))
	assert.True(t, IsMemberNotFound(err))
}

func TestGetByUsernameServerErrorIsNotNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	_, err := c.Member().GetByUsername(context.Background(), "alice")
	require.Error(t, err)
	assert.False(t, IsMemberNotFound(err))
	assert.True(t, IsRequestError(err))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "alice")
}

func TestRateLimitedRequestIsRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeMember(t, w, "alice")
	}))
	defer server.Close()

	var attempts []int
	c := newTestClient(t, server.URL, func(o *Options) {
		o.Backoff = func(attempt int) time.Duration {
			attempts = append(attempts, attempt)
			return time.Millisecond
		}
	})

	member, err := c.Member().GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", member.Username)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Equal(t, []int{0, 1, 2}, attempts)
}

func TestRateLimitedWithoutRetrySurfacesStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(o *Options) {
		o.NoRetryIfRateLimited = true
	})

	err := c.Do(context.Background(), Request{Path: "/startup"}, nil)
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusTooManyRequests, reqErr.StatusCode)
	assert.Contains(t, reqErr.Error(), "429")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRateLimitRetryStopsWhenContextIsCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(o *Options) {
		o.Backoff = func(int) time.Duration { return time.Hour }
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Do(ctx, Request{Path: "/startup"}, nil)
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Nil(t, reqErr.Response)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvalidJSONKeepsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not json"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	var out map[string]any
	err := c.Do(context.Background(), Request{Path: "/incubator"}, &out)
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	require.NotNil(t, reqErr.Response)
	assert.Equal(t, http.StatusOK, reqErr.StatusCode)
	assert.Equal(t, []byte("{not json"), reqErr.Body)
	assert.Contains(t, reqErr.Error(), "failed to read response")
}

func TestTransportFailureHasNoResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, url)

	err := c.Do(context.Background(), Request{Path: "/startup"}, nil)
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Nil(t, reqErr.Response)
	assert.Zero(t, reqErr.StatusCode)
	assert.NotNil(t, reqErr.Err)
}

func TestAttemptTimeoutAbortsRequest(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(t, server.URL, func(o *Options) {
		o.RequestTimeout = 20 * time.Millisecond
	})

	started := time.Now()
	err := c.Do(context.Background(), Request{Path: "/startup"}, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Nil(t, reqErr.Response)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequestOptionsAreApplied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client", r.Header.Get("X-Client-Option"))
		assert.Equal(t, "call", r.Header.Get("X-Call-Option"))
		writeMember(t, w, "alice")
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(o *Options) {
		o.RequestOptions = []RequestOption{WithHeader("X-Client-Option", "client")}
	})

	_, err := c.Member().GetByUsernameWith(context.Background(), "alice", WithHeader("X-Call-Option", "call"))
	require.NoError(t, err)
}

func TestStartupAndIncubatorIncludes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/protected/startup":
			assert.Equal(t, []string{"incubator"}, r.URL.Query()["includes"])
			_, _ = w.Write([]byte(`[{"uuid":"s1","ghid":"carbone","name":"Carbone","incubator":{"ghid":"ademe","title":"ADEME"}}]`))
		case "/api/protected/startup/carbone":
			_, _ = w.Write([]byte(`{"uuid":"s1","ghid":"carbone","name":"Carbone"}`))
		case "/api/protected/incubator":
			assert.Equal(t, []string{"startups", "members"}, r.URL.Query()["includes"])
			_, _ = w.Write([]byte(`[{"ghid":"ademe","title":"ADEME","members":[{"uuid":"m1","fullname":"Alice"}]}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx := context.Background()

	startups, err := c.Startup().GetAll(ctx, StartupListOptions{WithIncubator: true})
	require.NoError(t, err)
	require.Len(t, startups, 1)
	require.NotNil(t, startups[0].Incubator)
	assert.Equal(t, "ADEME", startups[0].Incubator.Title)

	startup, err := c.Startup().GetByGhid(ctx, "carbone")
	require.NoError(t, err)
	assert.Equal(t, "Carbone", startup.Name)
	assert.Nil(t, startup.Incubator)

	incubators, err := c.Incubator().GetAll(ctx, IncubatorListOptions{WithStartups: true, WithMembers: true})
	require.NoError(t, err)
	require.Len(t, incubators, 1)
	assert.Equal(t, "ademe", incubators[0].Ghid)
	require.Len(t, incubators[0].Members, 1)
	assert.Nil(t, incubators[0].Startups)

	_, err = c.Startup().GetByGhid(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestMetricsRecordAttemptsAndRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeMember(t, w, "alice")
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	c := newTestClient(t, server.URL, func(o *Options) {
		o.Metrics = metrics
	})

	_, err = c.Member().GetByUsername(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.retriesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("GET", "429")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("GET", "200")))

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestGetByUsernameAcceptsEmptyOrLegacyUUID(t *testing.T) {
	for _, raw := range []any{"", "legacy-42", nil} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			member := testMember("alice")
			member["uuid"] = raw
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(member))
		}))

		member, err := newTestClient(t, server.URL).Member().GetByUsername(context.Background(), "alice")
		server.Close()

		require.NoError(t, err, "uuid %v", raw)
		assert.Equal(t, "alice@example.org", member.DeliveryEmail())
		if s, ok := raw.(string); ok {
			assert.Equal(t, s, member.UUID)
		} else {
			assert.Empty(t, member.UUID)
		}
	}
}

func TestDoRejectsOversizedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"username":"alice","bio":"` + strings.Repeat("x", 4096) + `"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(o *Options) { o.MaxResponseBytes = 1024 })

	_, err := c.Member().GetByUsername(context.Background(), "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "/member/alice", reqErr.Path)

	small := newTestClient(t, server.URL, func(o *Options) { o.MaxResponseBytes = 8192 })
	member, err := small.Member().GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, member.Bio, 4096)
}

func TestNewDefaultsMaxResponseBytes(t *testing.T) {
	c := newTestClient(t, "https://directory.example.org")
	assert.Equal(t, DefaultMaxResponseBytes, c.maxResponseBytes)
}
