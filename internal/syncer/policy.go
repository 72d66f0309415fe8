// internal/syncer/policy.go
package syncer

import (
	"context"
	"time"

	"catalog-sync/internal/model"
)

// Policy decides whether a cached relation must be fetched again. mark is
// nil when the relation was never synchronized.
type Policy interface {
	Stale(mark *model.SyncMark, now time.Time) bool
}

type ttlPolicy time.Duration

func (p ttlPolicy) Stale(mark *model.SyncMark, now time.Time) bool {
	return mark == nil || now.Sub(mark.SyncedAt) >= time.Duration(p)
}

// TTL refreshes a relation once it is older than d.
func TTL(d time.Duration) Policy { return ttlPolicy(d) }

type alwaysPolicy struct{}

func (alwaysPolicy) Stale(*model.SyncMark, time.Time) bool { return true }

// Always fetches on every call.
func Always() Policy { return alwaysPolicy{} }

type neverPolicy struct{}

func (neverPolicy) Stale(mark *model.SyncMark, _ time.Time) bool { return mark == nil }

// Never serves a relation from the cache once it has been synchronized.
func Never() Policy { return neverPolicy{} }

type policyKey struct{}

// WithPolicy overrides the service's policy for calls made with ctx.
func WithPolicy(ctx context.Context, p Policy) context.Context {
	return context.WithValue(ctx, policyKey{}, p)
}

func policyFrom(ctx context.Context, fallback Policy) Policy {
	if p, ok := ctx.Value(policyKey{}).(Policy); ok {
		return p
	}
	return fallback
}
