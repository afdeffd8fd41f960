package repository

import (
	"context"
	"database/sql"
	"io/fs"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const migrationsDir = "data/sql/migrations"

// DefaultPingTimeout bounds the connectivity check run by Open.
const DefaultPingTimeout = 5 * time.Second

// Options configures Open.
type Options struct {
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

func (o Options) GetDebug() bool {
	return o.Debug
}

func (o Options) GetDriver() string {
	return sqliteshim.ShimName
}

func (o Options) GetServer() string {
	return o.DSN
}

func (o Options) GetPingTimeout() time.Duration {
	if o.PingTimeout <= 0 {
		return DefaultPingTimeout
	}
	return o.PingTimeout
}

func (o Options) GetOtelIdentifier() string {
	return "espace-membre"
}

var registerModels sync.Once

// Open connects to the SQLite database at opts.DSN, applies the embedded
// migrations and returns an Adapter over it. The caller closes the DB.
func Open(ctx context.Context, opts Options) (*Adapter, *bun.DB, error) {
	registerModels.Do(func() {
		persistence.RegisterModel((*UserModel)(nil))
		persistence.RegisterModel((*VerificationTokenModel)(nil))
	})

	sqldb, err := sql.Open(sqliteshim.ShimName, opts.DSN)
	if err != nil {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open database")
	}

	client, err := persistence.New(opts, sqldb, sqlitedialect.New())
	if err != nil {
		_ = sqldb.Close()
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create persistence client")
	}

	migrations, err := fs.Sub(GetMigrationsFS(), migrationsDir)
	if err != nil {
		_ = sqldb.Close()
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load migrations")
	}
	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel(migrationsDir),
		persistence.WithValidationTargets("sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		_ = sqldb.Close()
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "invalid migrations")
	}
	if err := client.Migrate(ctx); err != nil {
		_ = sqldb.Close()
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to migrate database")
	}

	db := client.DB()
	return NewAdapter(db), db, nil
}
