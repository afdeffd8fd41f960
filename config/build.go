package config

import (
	"context"
	"io"

	espacemembre "github.com/goliatone/go-auth-espace-membre"
	"github.com/goliatone/go-auth-espace-membre/cache"
	"github.com/goliatone/go-auth-espace-membre/mailer"
	"github.com/goliatone/go-auth-espace-membre/repository"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the zap logger described by Log.
func (c *Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Log.Level != "" {
		level, err := zapcore.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

// Wrappers converts c into an espacemembre.Config. The returned closer
// releases the Redis connection, if any.
func (c *Config) Wrappers(logger espacemembre.Logger) (espacemembre.Config, io.Closer) {
	cfg := espacemembre.Config{
		APIKey:               c.APIKey,
		EndpointURL:          c.EndpointURL,
		CustomHeaders:        c.CustomHeaders,
		NoRetryIfRateLimited: c.NoRetryIfRateLimited,
		RequestTimeout:       c.RequestTimeout,
		AllowInactive:        c.AllowInactive,
		Logger:               logger,
	}

	var closer io.Closer = nopCloser{}
	switch c.Cache.Kind {
	case CacheMemory:
		cfg.Cache = cache.NewMemory(c.Cache.TTL)
	case CacheRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		})
		cfg.Cache = cache.NewRedis(rdb, c.Cache.Redis.Prefix, c.Cache.TTL)
		closer = rdb
	}
	return cfg, closer
}

// NewMailer returns the SMTP backed email provider.
func (c *Config) NewMailer(logger espacemembre.Logger) (*mailer.Provider, error) {
	return mailer.New(mailer.NewDialer(c.Mail.SMTP), mailer.Config{
		From:    c.Mail.From,
		Subject: c.Mail.Subject,
		Logger:  logger,
	})
}

// OpenRepository opens the SQLite database at Database.DSN and applies the
// repository migrations.
func (c *Config) OpenRepository(ctx context.Context) (*repository.Adapter, *bun.DB, error) {
	return repository.Open(ctx, repository.Options{
		DSN:         c.Database.DSN,
		Debug:       c.Database.Debug,
		PingTimeout: c.Database.PingTimeout,
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
