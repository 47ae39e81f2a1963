package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/denysoblohin-okta/offline-transport/internal/queue"
	"github.com/denysoblohin-okta/offline-transport/internal/retry"
	"github.com/denysoblohin-okta/offline-transport/internal/telemetrylog"
)

// Engine is the offline transport facade: it implements Send and Flush,
// orchestrating live send, failure-to-enqueue, and drain on top of a
// user-supplied Transport.
type Engine struct {
	inner  Transport
	opts   Options
	logger *telemetrylog.Logger

	queue     *queue.EnvelopeQueue
	scheduler *retry.Scheduler

	mu     sync.Mutex
	closed bool
}

// New builds an Engine wrapping inner. If WithStore was supplied, the
// engine is backed by a durable queue and participates in retry/drain; if
// not, failures are simply returned to the caller (queueing disabled).
func New(inner Transport, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{inner: inner, opts: o, logger: o.Logger}

	if o.CreateStore != nil {
		store, err := o.CreateStore(o.DBName, o.StoreName)
		if err != nil {
			return nil, fmt.Errorf("transport: create store: %w", err)
		}
		e.queue = queue.NewEnvelopeQueue(store, o.Codec, o.MaxQueueSize, o.Logger)
	}

	e.scheduler = retry.NewScheduler(e.popForDrain, e.drainStep)

	if o.FlushAtStartup {
		e.scheduler.FlushWithBackOff(context.Background(), false)
	}

	return e, nil
}

// Send delivers one envelope, attempting live delivery first and falling
// back to durable enqueue on failure.
func (e *Engine) Send(ctx context.Context, env []byte) (*Response, error) {
	return e.send(ctx, env, false)
}

func (e *Engine) send(ctx context.Context, env []byte, isFlushingHead bool) (*Response, error) {
	if e.opts.FullOffline && !isFlushingHead {
		if e.queue != nil {
			e.queue.Insert(ctx, env, false)
		}
		return &Response{}, nil
	}

	resp, err := e.inner.Send(ctx, env)
	if err == nil {
		return e.onLiveSuccess(ctx, env, resp, isFlushingHead)
	}
	return e.onLiveFailure(ctx, env, err, isFlushingHead)
}

func (e *Engine) onLiveSuccess(ctx context.Context, env []byte, resp *Response, isFlushingHead bool) (*Response, error) {
	delay := retry.MinDelay
	hasRetryAfter := false
	if resp.Headers != nil {
		if ra := resp.Headers.Get("Retry-After"); ra != "" {
			if d, perr := e.opts.Codec.ParseRetryAfter(ra); perr == nil {
				delay = d
				hasRetryAfter = true
			} else {
				e.logger.Warn("transport: ignoring unparsable retry-after", zap.String("value", ra), zap.Error(perr))
			}
		}
	}

	if resp.StatusCode >= 400 && !hasRetryAfter {
		// Server error without a usable retry-after: return as-is, queue
		// not advanced, backoff untouched.
		return resp, nil
	}

	e.scheduler.ResetDelay()
	if isFlushingHead {
		e.scheduler.FinishHeadDrainStep(true)
		e.scheduler.FlushIn(ctx, delay, true)
	} else {
		// Opportunistic drain: harmless even without a store, since
		// popForDrain reports nothing to pop and the scheduler's next
		// firing is a no-op.
		e.scheduler.FlushIn(ctx, delay, false)
	}
	return resp, nil
}

func (e *Engine) onLiveFailure(ctx context.Context, env []byte, sendErr error, isFlushingHead bool) (*Response, error) {
	delay := e.scheduler.Escalate()

	if !e.shouldQueue(env, sendErr, delay) {
		// The envelope is dropped outright, not reinserted, so the
		// pop-time flushedCnt increment stands and the slot counts as
		// consumed. No further drain step is armed from this path.
		return nil, sendErr
	}

	if e.queue == nil {
		return nil, sendErr
	}

	if isFlushingHead {
		e.queue.Insert(ctx, env, true)
		e.scheduler.RequeueHeadItem()
		e.scheduler.FlushWithBackOff(ctx, true)
	} else {
		e.queue.Insert(ctx, env, false)
		e.scheduler.FlushWithBackOff(ctx, false)
	}
	return &Response{}, nil
}

// shouldQueue implements the built-in replay/client-report exclusion ahead
// of the user-supplied filter.
func (e *Engine) shouldQueue(env []byte, sendErr error, retryDelay time.Duration) bool {
	if e.opts.Codec.ContainsItemType(env, queue.NeverQueued) {
		return false
	}
	if e.opts.ShouldStore != nil {
		return e.opts.ShouldStore(env, sendErr, retryDelay)
	}
	return true
}

// popForDrain adapts the envelope queue's Pop to the scheduler's PopFunc
// shape; a nil queue (queueing disabled) never has anything to pop.
func (e *Engine) popForDrain(ctx context.Context, offset int) ([]byte, bool) {
	if e.queue == nil {
		return nil, false
	}
	return e.queue.Pop(ctx, offset)
}

// drainStep adapts the scheduler's SendFunc to the engine's own send,
// discarding the result: a scheduled drain step is fire-and-forget from the
// scheduler's perspective.
func (e *Engine) drainStep(ctx context.Context, env []byte, isFlushingHead bool) {
	_, _ = e.send(ctx, env, isFlushingHead)
}

// Flush drains the durable queue. With full-offline mode disabled it
// simply forwards to the inner transport. With it enabled, a negative
// timeout purges the queue; otherwise it arms (or reports) a head drain.
func (e *Engine) Flush(ctx context.Context, timeout time.Duration) (bool, error) {
	if !e.opts.FullOffline {
		return e.inner.Flush(ctx, timeout)
	}

	if timeout < 0 {
		if e.queue != nil {
			if err := e.queue.Clear(ctx); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	if e.scheduler.HeadDrainInProgress() {
		return false, nil
	}

	size := 0
	if e.queue != nil {
		size = e.queue.Size(ctx)
	}
	if size > 0 {
		e.scheduler.ArmHeadDrain(size)
		e.scheduler.FlushWithBackOff(ctx, true)
	}
	return true, nil
}

// Close stops the scheduler's timer and closes the durable queue's store.
// It is idempotent, so callers can invoke it from multiple teardown paths
// without double-closing the store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	e.scheduler.Stop()
	if e.queue != nil {
		return e.queue.Close()
	}
	return nil
}
