package transport_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denysoblohin-okta/offline-transport/internal/codec"
	"github.com/denysoblohin-okta/offline-transport/internal/queue"
	"github.com/denysoblohin-okta/offline-transport/transport"
	"github.com/denysoblohin-okta/offline-transport/transporttest"
)

var errSendFailed = errors.New("network unreachable")

func sampleEnvelope(itemType string) []byte {
	return codec.BuildEnvelope(codec.Item{Type: itemType, Payload: []byte(`{}`)})
}

// waitFor polls cond until it's true or the deadline passes, to observe
// background drain activity without depending on exact timer granularity.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

// Scenario 1: basic retry — a single transient failure followed by a
// successful drain.
func TestEngine_BasicRetry(t *testing.T) {
	inner := transporttest.NewMockTransport(
		transporttest.Result{Err: errSendFailed},
		transporttest.Result{Response: &transport.Response{StatusCode: 200}},
	)
	store := transporttest.NewMemoryStore()
	e, err := transport.New(inner, transport.WithStore(func(string, string) (queue.OrderedStore, error) {
		return store, nil
	}))
	require.NoError(t, err)
	defer e.Close()

	env := sampleEnvelope("event")
	resp, sendErr := e.Send(context.Background(), env)
	require.NoError(t, sendErr)
	assert.Equal(t, 0, resp.StatusCode) // queued, empty success

	size, _ := store.Size(context.Background())
	assert.Equal(t, 1, size)

	// The failed send escalated the delay to StartDelay (5s); the retry
	// fires once that cooldown elapses.
	waitFor(t, 6*time.Second, func() bool {
		n, _ := store.Size(context.Background())
		return n == 0
	})
	assert.Equal(t, 2, inner.SendCount())
}

// Scenario 2: backoff ceiling — repeated failures never exceed MaxDelay.
func TestEngine_BackoffCeiling(t *testing.T) {
	inner := transporttest.NewMockTransport(transporttest.Result{Err: errSendFailed})
	store := transporttest.NewMemoryStore()
	var shouldStoreCalls []time.Duration

	e, err := transport.New(inner,
		transport.WithStore(func(string, string) (queue.OrderedStore, error) { return store, nil }),
		transport.WithShouldStore(func(env []byte, sendErr error, delay time.Duration) bool {
			shouldStoreCalls = append(shouldStoreCalls, delay)
			return false // refuse storage so we only observe backoff escalation, not queue growth
		}),
	)
	require.NoError(t, err)
	defer e.Close()

	env := sampleEnvelope("event")
	for i := 0; i < 20; i++ {
		_, sendErr := e.Send(context.Background(), env)
		require.Error(t, sendErr)
	}

	require.Len(t, shouldStoreCalls, 20)
	assert.Equal(t, 5*time.Second, shouldStoreCalls[0], "first failure hits StartDelay")
	last := shouldStoreCalls[len(shouldStoreCalls)-1]
	assert.Equal(t, time.Hour, last, "repeated failures clamp at MaxDelay")
}

// Scenario 3: Retry-After honoured — a successful response carrying a
// Retry-After header overrides the default MinDelay for the opportunistic
// drain.
func TestEngine_RetryAfterHonoured(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "7")
	inner := transporttest.NewMockTransport(
		transporttest.Result{Response: &transport.Response{StatusCode: 200, Headers: headers}},
		transporttest.Result{Err: errSendFailed},
	)
	store := transporttest.NewMemoryStore()
	e, err := transport.New(inner, transport.WithStore(func(string, string) (queue.OrderedStore, error) {
		return store, nil
	}))
	require.NoError(t, err)
	defer e.Close()

	ctx := context.Background()
	_, err = e.Send(ctx, sampleEnvelope("event"))
	require.NoError(t, err)

	// This second send fails and lands on the queue tail; if the server's
	// Retry-After hadn't been honoured (falling back to the 100ms MinDelay
	// instead of 7s) the opportunistic drain would already have popped and
	// resent it within the window below. That resend fails again and
	// re-queues the envelope, so only the inner send count tells the two
	// cases apart.
	_, err = e.Send(ctx, sampleEnvelope("event"))
	require.NoError(t, err)

	time.Sleep(300 * time.Millisecond)
	n, _ := store.Size(ctx)
	assert.Equal(t, 1, n, "opportunistic drain must wait out the server's 7s retry-after")
	assert.Equal(t, 2, inner.SendCount(), "no drain send may happen before the server's 7s retry-after")
}

// Scenario 4: full-offline drain — sends enqueue, flush drains head-first,
// a concurrent flush is a no-op, and flush(-1) purges.
func TestEngine_FullOfflineDrain(t *testing.T) {
	inner := transporttest.NewMockTransport()
	store := transporttest.NewMemoryStore()
	e, err := transport.New(inner,
		transport.WithStore(func(string, string) (queue.OrderedStore, error) { return store, nil }),
		transport.WithFullOffline(),
	)
	require.NoError(t, err)
	defer e.Close()

	ctx := context.Background()
	e1, e2, e3 := sampleEnvelope("a"), sampleEnvelope("b"), sampleEnvelope("c")
	for _, env := range []([]byte){e1, e2, e3} {
		resp, sendErr := e.Send(ctx, env)
		require.NoError(t, sendErr)
		assert.Equal(t, 0, resp.StatusCode)
	}

	size, _ := store.Size(ctx)
	require.Equal(t, 3, size)

	ok, err := e.Flush(ctx, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok2, err := e.Flush(ctx, time.Second)
	require.NoError(t, err)
	assert.False(t, ok2, "flush while a head drain is in progress is a no-op")

	waitFor(t, 2*time.Second, func() bool {
		n, _ := store.Size(ctx)
		return n == 0
	})
	assert.Equal(t, 3, inner.SendCount())

	// A fresh enqueue followed by a purge.
	_, _ = e.Send(ctx, sampleEnvelope("d"))
	ok3, err := e.Flush(ctx, -1)
	require.NoError(t, err)
	assert.True(t, ok3)
	n, _ := store.Size(ctx)
	assert.Equal(t, 0, n)
}

// Scenario 5: replay exclusion — a failing replay envelope is never queued
// and its error is re-raised.
func TestEngine_ReplayNeverQueued(t *testing.T) {
	inner := transporttest.NewMockTransport(transporttest.Result{Err: errSendFailed})
	e, store := newEngineWithMock(t, inner)

	env := sampleEnvelope(string(queue.ItemTypeReplayEvent))
	_, sendErr := e.Send(context.Background(), env)
	require.ErrorIs(t, sendErr, errSendFailed)

	n, _ := store.Size(context.Background())
	assert.Equal(t, 0, n)
}

func newEngineWithMock(t *testing.T, inner *transporttest.MockTransport) (*transport.Engine, *transporttest.MemoryStore) {
	t.Helper()
	store := transporttest.NewMemoryStore()
	e, err := transport.New(inner, transport.WithStore(func(string, string) (queue.OrderedStore, error) {
		return store, nil
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, store
}

// Scenario 6: queue cap — inserts beyond maxQueueSize are silently dropped.
func TestEngine_QueueCap(t *testing.T) {
	inner := transporttest.NewMockTransport(
		transporttest.Result{Err: errSendFailed},
		transporttest.Result{Err: errSendFailed},
		transporttest.Result{Err: errSendFailed},
	)
	store := transporttest.NewMemoryStore()
	e, err := transport.New(inner,
		transport.WithStore(func(string, string) (queue.OrderedStore, error) { return store, nil }),
		transport.WithMaxQueueSize(2),
		transport.WithShouldStore(func([]byte, error, time.Duration) bool { return true }),
	)
	require.NoError(t, err)
	defer e.Close()

	for i := 0; i < 3; i++ {
		_, sendErr := e.Send(context.Background(), sampleEnvelope("event"))
		require.NoError(t, sendErr)
	}

	n, _ := store.Size(context.Background())
	assert.Equal(t, 2, n)
}

// Server error responses (>= 400, no retry-after) are returned to the
// caller without advancing the queue or touching backoff.
func TestEngine_ServerErrorDoesNotAdvanceQueue(t *testing.T) {
	inner := transporttest.NewMockTransport(transporttest.Result{
		Response: &transport.Response{StatusCode: 500},
	})
	e, store := newEngineWithMock(t, inner)

	resp, sendErr := e.Send(context.Background(), sampleEnvelope("event"))
	require.NoError(t, sendErr)
	assert.Equal(t, 500, resp.StatusCode)

	n, _ := store.Size(context.Background())
	assert.Equal(t, 0, n)
}

// Without a configured store, a failing send with queueing allowed is
// re-raised rather than silently swallowed.
func TestEngine_NoStoreReraisesFailure(t *testing.T) {
	inner := transporttest.NewMockTransport(transporttest.Result{Err: errSendFailed})
	e, err := transport.New(inner)
	require.NoError(t, err)
	defer e.Close()

	_, sendErr := e.Send(context.Background(), sampleEnvelope("event"))
	require.ErrorIs(t, sendErr, errSendFailed)
}
