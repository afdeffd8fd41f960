package espacemembre

import (
	"time"

	"github.com/goliatone/go-auth-espace-membre/cache"
	"github.com/goliatone/go-auth-espace-membre/client"
)

// Config configures New.
type Config struct {
	// APIKey defaults to $ESPACE_MEMBRE_API_KEY.
	APIKey string
	// EndpointURL defaults to $ESPACE_MEMBRE_URL, then client.DefaultEndpointURL.
	EndpointURL          string
	CustomHeaders        map[string]string
	HTTPClient           client.Doer
	RequestOptions       []client.RequestOption
	NoRetryIfRateLimited bool
	RequestTimeout       time.Duration

	// AllowInactive lets inactive members sign in.
	AllowInactive bool

	// CacheTTL enables an in-memory member cache when positive. Cache, when
	// set, takes precedence.
	CacheTTL time.Duration
	Cache    cache.Store

	Logger  Logger
	Metrics *client.Metrics
}

// Wrappers bundles the decorators built by New around a shared client.
type Wrappers struct {
	Client    *client.Client
	Lookup    MemberLookup
	Provider  *ProviderWrapper
	Adapter   *AdapterWrapper
	Callbacks *CallbacksWrapper
}

// New builds the directory client and the three wrappers.
func New(cfg Config) (*Wrappers, error) {
	logger := resolveLogger(cfg.Logger)

	c, err := client.New(client.Options{
		APIKey:               cfg.APIKey,
		EndpointURL:          cfg.EndpointURL,
		CustomHeaders:        cfg.CustomHeaders,
		HTTPClient:           cfg.HTTPClient,
		RequestOptions:       cfg.RequestOptions,
		NoRetryIfRateLimited: cfg.NoRetryIfRateLimited,
		RequestTimeout:       cfg.RequestTimeout,
		Logger:               logger,
		Metrics:              cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	var lookup MemberLookup = c.Member()

	store := cfg.Cache
	if store == nil && cfg.CacheTTL > 0 {
		store = cache.NewMemory(cfg.CacheTTL)
	}
	if store != nil {
		lookup = cache.NewLookup(lookup, store).WithLogger(logger)
	}

	return &Wrappers{
		Client:    c,
		Lookup:    lookup,
		Provider:  NewProviderWrapper(lookup).WithLogger(logger),
		Adapter:   NewAdapterWrapper(lookup).WithLogger(logger),
		Callbacks: NewCallbacksWrapper(lookup).WithLogger(logger).WithAllowInactive(cfg.AllowInactive),
	}, nil
}

// MustNew is New that panics on error.
func MustNew(cfg Config) *Wrappers {
	w, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return w
}
