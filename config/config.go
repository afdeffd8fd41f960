// Package config loads the Espace Membre integration settings from a YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-auth-espace-membre/client"
	"github.com/goliatone/go-auth-espace-membre/mailer"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	APIKey               string            `yaml:"api_key"`
	EndpointURL          string            `yaml:"endpoint_url"`
	CustomHeaders        map[string]string `yaml:"custom_headers"`
	NoRetryIfRateLimited bool              `yaml:"no_retry_if_rate_limited"`
	RequestTimeout       time.Duration     `yaml:"request_timeout"`
	AllowInactive        bool              `yaml:"allow_inactive"`

	Cache    CacheConfig    `yaml:"cache"`
	Mail     MailConfig     `yaml:"mail"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

type CacheConfig struct {
	// Kind is one of none, memory or redis.
	Kind  string        `yaml:"kind"`
	TTL   time.Duration `yaml:"ttl"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
}

func (c CacheConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Kind, validation.In(CacheNone, CacheMemory, CacheRedis)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return err
	}
	if c.Kind == CacheRedis && c.Redis.Addr == "" {
		return validation.Errors{"redis": errors.New("addr is required for the redis cache")}
	}
	return nil
}

type MailConfig struct {
	From    string            `yaml:"from"`
	Subject string            `yaml:"subject"`
	SMTP    mailer.SMTPConfig `yaml:"smtp"`
}

func (m MailConfig) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.From, is.Email),
	)
	if err != nil {
		return err
	}
	if m.From != "" && m.SMTP.Host == "" {
		return validation.Errors{"smtp": errors.New("host is required when from is set")}
	}
	if m.SMTP.Port < 0 || m.SMTP.Port > 65535 {
		return validation.Errors{"smtp": errors.New("port must be between 0 and 65535")}
	}
	return nil
}

type DatabaseConfig struct {
	DSN         string        `yaml:"dsn"`
	Debug       bool          `yaml:"debug"`
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

type LogConfig struct {
	// Level is a zap level name: debug, info, warn or error.
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
	)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{
		EndpointURL:    client.DefaultEndpointURL,
		RequestTimeout: client.DefaultRequestTimeout,
	}
	c.Cache.Kind = CacheNone
	c.Database.DSN = "file:espace-membre.db?cache=shared"
	c.Log.Level = "info"
	return c
}

// Load reads the configuration with Read and validates it.
func Load(path string) (*Config, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read loads an optional .env file, then path (when not empty), then the
// environment. The result is not validated.
func Read(path string) (*Config, error) {
	_ = godotenv.Load()

	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read configuration file").
				WithTextCode(client.TextCodeConfig).
				WithMetadata(map[string]any{"path": path})
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse configuration file").
				WithTextCode(client.TextCodeConfig).
				WithMetadata(map[string]any{"path": path})
		}
	}

	c.applyEnvOverrides()
	return c, nil
}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.EndpointURL, validation.Required, is.URL),
		validation.Field(&c.RequestTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Cache),
		validation.Field(&c.Mail),
		validation.Field(&c.Log),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid configuration").
			WithTextCode(client.TextCodeConfig)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr(client.EnvAPIKey); ok {
		c.APIKey = v
	}
	if v, ok := getEnvStr(client.EnvEndpointURL); ok {
		c.EndpointURL = v
	}
	if v, ok := getEnvBool("ESPACE_MEMBRE_ALLOW_INACTIVE"); ok {
		c.AllowInactive = v
	}
	if v, ok := getEnvBool("ESPACE_MEMBRE_NO_RETRY_IF_RATE_LIMITED"); ok {
		c.NoRetryIfRateLimited = v
	}
	if v, ok := getEnvDur("ESPACE_MEMBRE_REQUEST_TIMEOUT"); ok {
		c.RequestTimeout = v
	}
	if v, ok := getEnvStr("ESPACE_MEMBRE_CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvDur("ESPACE_MEMBRE_CACHE_TTL"); ok {
		c.Cache.TTL = v
	}
	if v, ok := getEnvStr("ESPACE_MEMBRE_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("ESPACE_MEMBRE_REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvStr("ESPACE_MEMBRE_MAIL_FROM"); ok {
		c.Mail.From = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.Mail.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.Mail.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.Mail.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.Mail.SMTP.Password = v
	}
	if v, ok := getEnvStr("ESPACE_MEMBRE_DATABASE_DSN"); ok {
		c.Database.DSN = v
	}
	if v, ok := getEnvBool("ESPACE_MEMBRE_DATABASE_DEBUG"); ok {
		c.Database.Debug = v
	}
	if v, ok := getEnvStr("ESPACE_MEMBRE_LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
}

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d, true
		}
	}
	return 0, false
}
