// internal/writequeue/watermill.go
package writequeue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"catalog-sync/internal/reconcile"
)

const (
	topic       = "catalog.cache.writes"
	kindHeader  = "kind"
	handlerName = "cache_writer"
)

// Watermill is an in-process queue on a Watermill go channel, consumed by a
// router with retry and panic recovery.
type Watermill struct {
	pubsub  *gochannel.GoChannel
	router  *message.Router
	applier Applier
	logger  *slog.Logger
	retry   middleware.Retry
}

func NewWatermill(applier Applier, cfg Config, logger *slog.Logger) (*Watermill, error) {
	wlogger := watermill.NewSlogLogger(logger)
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wlogger)

	router, err := message.NewRouter(message.RouterConfig{}, wlogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	q := &Watermill{
		pubsub:  pubsub,
		router:  router,
		applier: applier,
		logger:  logger,
		retry: middleware.Retry{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: cfg.InitialInterval,
			Multiplier:      2,
		},
	}
	router.AddMiddleware(q.dropAfterRetries, q.retryByKind, middleware.Recoverer)
	router.AddNoPublisherHandler(handlerName, topic, pubsub, q.handle)

	return q, nil
}

func (q *Watermill) Enqueue(_ context.Context, job reconcile.Job) error {
	select {
	case <-q.router.Running():
	default:
		return ErrNotRunning
	}
	payload, err := reconcile.Encode(job)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(kindHeader, string(job.Kind()))
	if err := q.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s job: %w", job.Kind(), err)
	}
	incEnqueued(string(job.Kind()))
	return nil
}

func (q *Watermill) handle(msg *message.Message) error {
	job, err := reconcile.Decode(msg.Payload)
	if err != nil {
		return err
	}
	if err := q.applier.Apply(msg.Context(), job); err != nil {
		return err
	}
	incApplied(string(job.Kind()))
	return nil
}

// retryByKind retries h with the configured backoff, counting each retry
// under the job kind carried in the message metadata.
func (q *Watermill) retryByKind(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		kind := msg.Metadata.Get(kindHeader)
		retry := q.retry
		retry.OnRetryHook = func(_ int, _ time.Duration) {
			incRetried(kind)
		}
		return retry.Middleware(h)(msg)
	}
}

// dropAfterRetries acks a message whose retries are exhausted so it is not
// redelivered forever.
func (q *Watermill) dropAfterRetries(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := h(msg)
		if err != nil {
			kind := msg.Metadata.Get(kindHeader)
			incFailed(kind)
			q.logger.Error("Dropping cache write after retries", "kind", kind, "message_uuid", msg.UUID, "error", err)
			return nil, nil
		}
		return msgs, nil
	}
}

// Run starts the router and blocks until ctx is done.
func (q *Watermill) Run(ctx context.Context) error {
	err := q.router.Run(ctx)
	if closeErr := q.pubsub.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Running is closed once the router has subscribed to the write topic.
func (q *Watermill) Running() <-chan struct{} {
	return q.router.Running()
}
