// internal/writequeue/inline_test.go
package writequeue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-sync/internal/model"
	"catalog-sync/internal/reconcile"
)

func TestInline_AppliesBeforeReturning(t *testing.T) {
	applier := newFakeApplier()
	applier.failures = 1
	q := NewInline(applier, Config{MaxRetries: 2, InitialInterval: time.Millisecond}, discard)

	select {
	case <-q.Running():
	default:
		t.Fatal("inline queue must always be running")
	}

	require.NoError(t, q.Enqueue(context.Background(), &reconcile.SaveStarCount{Repository: model.Repository{ExternalID: "R_1"}, Stars: 3}))

	calls, applied := applier.snapshot()
	assert.Equal(t, 2, calls)
	require.Len(t, applied, 1)
}

func TestInline_GivesUp(t *testing.T) {
	applier := newFakeApplier()
	applier.failures = -1
	before := counter(jobsFailed, string(reconcile.KindMarkSynced))
	q := NewInline(applier, Config{MaxRetries: 1, InitialInterval: time.Millisecond}, discard)

	err := q.Enqueue(context.Background(), &reconcile.MarkSynced{})

	assert.ErrorContains(t, err, "deadlock")
	calls, _ := applier.snapshot()
	assert.Equal(t, 2, calls)
	assert.Equal(t, before+1, counter(jobsFailed, string(reconcile.KindMarkSynced)))
}
