// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-sync/internal/config"
	"catalog-sync/internal/database"
	"catalog-sync/internal/github"
	"catalog-sync/internal/reconcile"
	"catalog-sync/internal/storage/accounts"
	"catalog-sync/internal/syncer"
	"catalog-sync/internal/tier"
	"catalog-sync/internal/writequeue"
)

// MigrationsSource is where the cache schema migrations are read from.
var MigrationsSource = "file://migrations"

// Options adjust how the components are assembled.
type Options struct {
	// InlineWrites applies cache writes before returning to the caller
	// instead of handing them to the configured queue.
	InlineWrites bool
}

// App holds every long-lived component of the service.
type App struct {
	Config     *config.Config
	Pool       *pgxpool.Pool
	Queries    *database.Queries
	Accounts   *accounts.Store
	GitHub     *github.Client
	Credential github.CredentialSource
	Queue      writequeue.Queue
	Service    *syncer.Service
	Resolver   *tier.Resolver
	Syncer     *syncer.Syncer
}

// Migrate brings the cache schema, and River's tables when River is the
// write queue, up to date.
func Migrate(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
	m, err := migrate.New(MigrationsSource, cfg.DBURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	if cfg.WriteQueueDriver == "river" {
		return writequeue.MigrateRiver(ctx, pool)
	}
	return nil
}

// New connects to the databases and assembles the components. The caller
// must run App.Queue before serving reads and Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	pool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a := &App{Config: cfg, Pool: pool, Queries: database.New(pool)}

	if err := Migrate(ctx, cfg, pool); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	a.Accounts, err = accounts.Open(accounts.Config{Driver: cfg.AccountsDriver, DSN: cfg.AccountsDSN, AutoMigrate: true})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open accounts store: %w", err)
	}

	a.GitHub = github.NewClient(github.Config{
		APIURL:     cfg.GithubAPIURL,
		GraphQLURL: cfg.GithubGraphQLURL,
		RPS:        cfg.UpstreamRPS,
		Burst:      cfg.UpstreamBurst,
		Transport:  http.DefaultTransport,
	}, logger)

	if cfg.HasAppCredentials() {
		a.Credential, err = github.NewAppInstallationCredential(http.DefaultTransport, cfg.GithubAPIURL,
			cfg.GithubAppID, cfg.GithubAppInstallationID, cfg.GithubAppPrivateKeyPath)
		if err != nil {
			a.Close()
			return nil, err
		}
	} else {
		a.Credential = github.StaticCredential(cfg.GithubToken)
	}

	applier := reconcile.NewApplier(database.NewTxPool(pool), logger)
	queueCfg := writequeue.Config{MaxRetries: cfg.WriteQueueMaxRetries, InitialInterval: cfg.WriteQueueRetryInterval}
	switch {
	case opts.InlineWrites:
		a.Queue = writequeue.NewInline(applier, queueCfg, logger)
	case cfg.WriteQueueDriver == "river":
		a.Queue, err = writequeue.NewRiver(pool, applier, queueCfg, logger)
	default:
		a.Queue, err = writequeue.NewWatermill(applier, queueCfg, logger)
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create write queue: %w", err)
	}

	a.Service = syncer.NewService(a.GitHub, a.Queries, reconcile.New(a.Queue, logger), syncer.Config{
		Policy:                   syncer.TTL(cfg.CacheTTL),
		PageMaxRetries:           cfg.PageMaxRetries,
		PageRetryInitialInterval: cfg.PageRetryInitialInterval,
	}, logger)

	a.Resolver = tier.NewResolver(a.GitHub, a.Credential, a.Accounts, tier.Config{
		AppID:          cfg.GithubAppID,
		RequiredScopes: cfg.RequiredScopes,
	}, logger)

	a.Syncer, err = syncer.NewSyncer(a.Service, a.Queries, a.Credential, logger,
		cfg.TrackedLogins, cfg.TrackedRepos, cfg.SyncInterval, cfg.LoaderWait)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create refresher: %w", err)
	}
	return a, nil
}

func (a *App) Close() {
	if a.Accounts != nil {
		_ = a.Accounts.Close()
	}
	a.Pool.Close()
}
