// internal/writequeue/queue.go
package writequeue

import (
	"context"
	"errors"
	"time"

	"catalog-sync/internal/reconcile"
)

// ErrNotRunning is returned by Enqueue before the consumer has started.
var ErrNotRunning = errors.New("write queue is not running")

// Applier writes one job to the cache.
type Applier interface {
	Apply(ctx context.Context, job reconcile.Job) error
}

// Queue hands cache writes from the read path to a background consumer.
type Queue interface {
	reconcile.Enqueuer
	// Run consumes jobs until ctx is done.
	Run(ctx context.Context) error
	// Running is closed once Enqueue will be accepted.
	Running() <-chan struct{}
}

// Config controls retries for a failing job.
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	Workers         int
}
