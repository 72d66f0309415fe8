// internal/writequeue/inline.go
package writequeue

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"catalog-sync/internal/reconcile"
)

// Inline applies each job before Enqueue returns, retrying with backoff.
// One-shot commands use it so they never exit with writes still pending.
type Inline struct {
	applier Applier
	cfg     Config
	logger  *slog.Logger
	ready   chan struct{}
}

func NewInline(applier Applier, cfg Config, logger *slog.Logger) *Inline {
	ready := make(chan struct{})
	close(ready)
	return &Inline{applier: applier, cfg: cfg, logger: logger, ready: ready}
}

func (q *Inline) Enqueue(ctx context.Context, job reconcile.Job) error {
	kind := string(job.Kind())
	incEnqueued(kind)

	eb := backoff.NewExponentialBackOff()
	if q.cfg.InitialInterval > 0 {
		eb.InitialInterval = q.cfg.InitialInterval
	}
	retries := uint64(0)
	if q.cfg.MaxRetries > 0 {
		retries = uint64(q.cfg.MaxRetries)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, retries), ctx)

	err := backoff.RetryNotify(func() error {
		return q.applier.Apply(ctx, job)
	}, policy, func(err error, next time.Duration) {
		incRetried(kind)
		q.logger.Warn("Cache write failed, retrying", "kind", kind, "next", next, "error", err)
	})
	if err != nil {
		incFailed(kind)
		return err
	}
	incApplied(kind)
	return nil
}

// Run has nothing to consume; it returns when ctx is done.
func (q *Inline) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (q *Inline) Running() <-chan struct{} {
	return q.ready
}
