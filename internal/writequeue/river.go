// internal/writequeue/river.go
package writequeue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"catalog-sync/internal/reconcile"
)

// CacheWriteArgs carries one encoded job through River.
type CacheWriteArgs struct {
	Job json.RawMessage `json:"job"`
}

func (CacheWriteArgs) Kind() string { return "catalog_cache_write" }

type cacheWriteWorker struct {
	river.WorkerDefaults[CacheWriteArgs]
	applier Applier
	logger  *slog.Logger
}

func (w *cacheWriteWorker) Work(ctx context.Context, job *river.Job[CacheWriteArgs]) error {
	decoded, err := reconcile.Decode(job.Args.Job)
	if err != nil {
		incFailed("undecodable")
		return river.JobCancel(err)
	}
	kind := string(decoded.Kind())
	if err := w.applier.Apply(ctx, decoded); err != nil {
		if job.Attempt >= job.MaxAttempts {
			incFailed(kind)
			w.logger.Error("Dropping cache write after retries", "kind", kind, "job_id", job.ID, "error", err)
		} else {
			incRetried(kind)
		}
		return err
	}
	incApplied(kind)
	return nil
}

// River is a durable queue backed by the cache database, so pending writes
// survive a restart.
type River struct {
	client *river.Client[pgx.Tx]
	ready  chan struct{}
}

// MigrateRiver brings River's own tables up to date.
func MigrateRiver(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("migrate river schema: %w", err)
	}
	return nil
}

func NewRiver(pool *pgxpool.Pool, applier Applier, cfg Config, logger *slog.Logger) (*River, error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, &cacheWriteWorker{applier: applier, logger: logger}); err != nil {
		return nil, fmt.Errorf("register cache writer: %w", err)
	}

	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger:      logger,
		MaxAttempts: cfg.MaxRetries + 1,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}
	return &River{client: client, ready: make(chan struct{})}, nil
}

func (r *River) Enqueue(ctx context.Context, job reconcile.Job) error {
	payload, err := reconcile.Encode(job)
	if err != nil {
		return err
	}
	// The caller may be a request that ends before the insert commits.
	if _, err := r.client.Insert(context.WithoutCancel(ctx), CacheWriteArgs{Job: payload}, nil); err != nil {
		return fmt.Errorf("insert %s job: %w", job.Kind(), err)
	}
	incEnqueued(string(job.Kind()))
	return nil
}

// Run starts working jobs and stops the client once ctx is done.
func (r *River) Run(ctx context.Context) error {
	if err := r.client.Start(ctx); err != nil {
		return fmt.Errorf("start river client: %w", err)
	}
	close(r.ready)
	<-ctx.Done()
	return r.client.Stop(context.WithoutCancel(ctx))
}

// Running is closed once the client has started. Inserts are accepted
// before that and picked up on start.
func (r *River) Running() <-chan struct{} {
	return r.ready
}
