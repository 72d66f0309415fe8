// internal/paginate/paginate.go
package paginate

import (
	"context"
	"iter"
	"time"

	"github.com/cenkalti/backoff/v4"

	custom_errors "catalog-sync/internal/errors"
)

// Page is one response of a cursor-paginated GitHub connection.
type Page[T any] struct {
	Nodes       []T
	EndCursor   string
	HasNextPage bool
}

// FetchFunc fetches the page that starts after cursor. A nil cursor means
// the first page.
type FetchFunc[T any] func(ctx context.Context, cursor *string) (Page[T], error)

// PageHook is called after each page is fetched, before its nodes are yielded.
type PageHook[T any] func(ctx context.Context, index int, nodes []T)

type options[T any] struct {
	maxRetries uint64
	initial    time.Duration
	hook       PageHook[T]
}

// Option configures a pagination run.
type Option[T any] func(*options[T])

// WithRetry retries a failing page up to maxRetries times with exponential
// backoff starting at initial. Only upstream failures that may succeed on a
// second attempt are retried.
func WithRetry[T any](maxRetries uint64, initial time.Duration) Option[T] {
	return func(o *options[T]) {
		o.maxRetries = maxRetries
		o.initial = initial
	}
}

// WithPageHook registers a callback for every completed page, so callers can
// persist pages before the whole sequence finishes.
func WithPageHook[T any](hook PageHook[T]) Option[T] {
	return func(o *options[T]) { o.hook = hook }
}

// All returns every node of the connection in page order. Pages are fetched
// lazily and strictly one after another; each range starts again from the
// first page. A page failure ends the sequence with that error.
func All[T any](ctx context.Context, fetch FetchFunc[T], opts ...Option[T]) iter.Seq2[T, error] {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(T, error) bool) {
		var cursor *string
		for index := 0; ; index++ {
			page, err := fetchPage(ctx, fetch, cursor, &o)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if o.hook != nil {
				o.hook(ctx, index, page.Nodes)
			}
			for _, node := range page.Nodes {
				if !yield(node, nil) {
					return
				}
			}
			if !page.HasNextPage {
				return
			}
			next := page.EndCursor
			cursor = &next
		}
	}
}

// Collect drains All into a slice. On error no partial result is returned.
func Collect[T any](ctx context.Context, fetch FetchFunc[T], opts ...Option[T]) ([]T, error) {
	var out []T
	for node, err := range All(ctx, fetch, opts...) {
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

func fetchPage[T any](ctx context.Context, fetch FetchFunc[T], cursor *string, o *options[T]) (Page[T], error) {
	if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}
	if o.maxRetries == 0 {
		return fetch(ctx, cursor)
	}

	eb := backoff.NewExponentialBackOff()
	if o.initial > 0 {
		eb.InitialInterval = o.initial
	}
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, o.maxRetries), ctx)

	var page Page[T]
	op := func() error {
		var err error
		page, err = fetch(ctx, cursor)
		if err != nil && !custom_errors.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(op, policy); err != nil {
		return Page[T]{}, err
	}
	return page, nil
}
