// internal/writequeue/watermill_test.go
package writequeue

import (
	"context"
	"errors"
	"expvar"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-sync/internal/model"
	"catalog-sync/internal/reconcile"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeApplier struct {
	mu       sync.Mutex
	failures int
	panics   bool
	calls    int
	applied  []reconcile.Job
	done     chan struct{}
}

func newFakeApplier() *fakeApplier {
	return &fakeApplier{done: make(chan struct{}, 16)}
}

func (a *fakeApplier) Apply(_ context.Context, job reconcile.Job) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.panics {
		a.done <- struct{}{}
		panic("constraint violated")
	}
	if a.failures != 0 {
		if a.failures > 0 {
			a.failures--
		}
		a.done <- struct{}{}
		return errors.New("deadlock detected")
	}
	a.applied = append(a.applied, job)
	a.done <- struct{}{}
	return nil
}

func (a *fakeApplier) snapshot() (int, []reconcile.Job) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls, append([]reconcile.Job(nil), a.applied...)
}

func startQueue(t *testing.T, applier Applier, cfg Config) *Watermill {
	t.Helper()
	q, err := NewWatermill(applier, cfg, discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- q.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})

	select {
	case <-q.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return q
}

func counter(m *expvar.Map, key string) int64 {
	if v, ok := m.Get(key).(*expvar.Int); ok {
		return v.Value()
	}
	return 0
}

func waitCalls(t *testing.T, a *fakeApplier, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-a.done:
		case <-time.After(5 * time.Second):
			t.Fatalf("applier called %d times, want %d", i, n)
		}
	}
}

func TestWatermill_EnqueueBeforeRun(t *testing.T) {
	q, err := NewWatermill(newFakeApplier(), Config{}, discard)
	require.NoError(t, err)

	err = q.Enqueue(context.Background(), &reconcile.MarkSynced{})
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestWatermill_AppliesJob(t *testing.T) {
	applier := newFakeApplier()
	q := startQueue(t, applier, Config{MaxRetries: 2, InitialInterval: time.Millisecond})

	mark := model.SyncMark{Subject: "user:octo", Relation: model.RelationSelf, SyncedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, q.Enqueue(context.Background(), &reconcile.MarkSynced{Marked: reconcile.Marked{Mark: &mark}}))

	waitCalls(t, applier, 1)
	require.Eventually(t, func() bool {
		_, applied := applier.snapshot()
		return len(applied) == 1
	}, time.Second, 5*time.Millisecond)
	_, applied := applier.snapshot()
	require.Len(t, applied, 1)
	got, ok := applied[0].(*reconcile.MarkSynced)
	require.True(t, ok)
	assert.Equal(t, "user:octo", got.Mark.Subject)
	assert.True(t, mark.SyncedAt.Equal(got.Mark.SyncedAt))
}

func TestWatermill_RetriesTransientFailure(t *testing.T) {
	applier := newFakeApplier()
	applier.failures = 2
	retriedBefore := counter(jobsRetried, string(reconcile.KindSaveStarCount))
	q := startQueue(t, applier, Config{MaxRetries: 3, InitialInterval: time.Millisecond})

	require.NoError(t, q.Enqueue(context.Background(), &reconcile.SaveStarCount{Repository: model.Repository{ExternalID: "R_1"}, Stars: 7}))

	waitCalls(t, applier, 3)
	calls, applied := applier.snapshot()
	assert.Equal(t, 3, calls)
	require.Len(t, applied, 1)
	assert.Equal(t, 7, applied[0].(*reconcile.SaveStarCount).Stars)
	assert.Equal(t, retriedBefore+2, counter(jobsRetried, string(reconcile.KindSaveStarCount)))
}

func TestWatermill_DropsAfterRetries(t *testing.T) {
	applier := newFakeApplier()
	applier.failures = -1
	before := counter(jobsFailed, string(reconcile.KindMarkSynced))
	q := startQueue(t, applier, Config{MaxRetries: 2, InitialInterval: time.Millisecond})

	require.NoError(t, q.Enqueue(context.Background(), &reconcile.MarkSynced{}))
	waitCalls(t, applier, 3)

	require.Eventually(t, func() bool {
		return counter(jobsFailed, string(reconcile.KindMarkSynced)) == before+1
	}, 5*time.Second, 10*time.Millisecond)

	// The message is acked, so no further deliveries arrive.
	select {
	case <-applier.done:
		t.Fatal("poison message was redelivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatermill_RecoversPanics(t *testing.T) {
	applier := newFakeApplier()
	applier.panics = true
	q := startQueue(t, applier, Config{MaxRetries: 1, InitialInterval: time.Millisecond})

	require.NoError(t, q.Enqueue(context.Background(), &reconcile.MarkSynced{}))
	waitCalls(t, applier, 2)

	calls, applied := applier.snapshot()
	assert.Equal(t, 2, calls)
	assert.Empty(t, applied)
}
