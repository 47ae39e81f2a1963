package queue

import (
	"context"

	"go.uber.org/zap"

	"github.com/denysoblohin-okta/offline-transport/internal/telemetrylog"
)

// EnvelopeQueue is the queue adapter: it translates envelope-level
// insert/pop/size/clear calls into OrderedStore operations, handing
// serialization off to a Codec. Serialization and parse failures are
// swallowed here — the queued entry is effectively lost, which matches the
// best-effort telemetry semantics the offline transport is built for.
type EnvelopeQueue struct {
	store   OrderedStore
	codec   Codec
	maxSize int
	logger  *telemetrylog.Logger
}

// NewEnvelopeQueue builds an adapter over store using codec, bounding every
// insert at maxSize entries.
func NewEnvelopeQueue(store OrderedStore, codec Codec, maxSize int, logger *telemetrylog.Logger) *EnvelopeQueue {
	if logger == nil {
		logger = telemetrylog.Nop()
	}
	return &EnvelopeQueue{store: store, codec: codec, maxSize: maxSize, logger: logger}
}

// Insert serializes env and writes it at the tail, or at the head when
// toStart is set. Store and codec failures are logged and otherwise
// swallowed; the caller always proceeds as if the write happened.
func (q *EnvelopeQueue) Insert(ctx context.Context, env []byte, toStart bool) {
	data, err := q.codec.Serialize(env)
	if err != nil {
		q.logger.Warn("queue: failed to serialize envelope, dropping", zap.Error(err))
		return
	}
	if err := q.store.Insert(ctx, data, q.maxSize, toStart); err != nil {
		q.logger.Warn("queue: failed to persist envelope, dropping", zap.Error(err))
	}
}

// Pop removes and parses the envelope at offset. It reports ok=false on an
// empty store, a store error, or a parse failure — all three are
// indistinguishable to the caller by design.
func (q *EnvelopeQueue) Pop(ctx context.Context, offset int) (env []byte, ok bool) {
	data, found, err := q.store.Pop(ctx, offset)
	if err != nil {
		q.logger.Warn("queue: pop failed", zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	env, err = q.codec.Parse(data)
	if err != nil {
		q.logger.Warn("queue: failed to parse stored envelope, dropping", zap.Error(err))
		return nil, false
	}
	return env, true
}

// Size reports the number of envelopes currently queued, or 0 on a store
// error (logged, not propagated — the engine treats an unreadable size the
// same as an empty queue).
func (q *EnvelopeQueue) Size(ctx context.Context) int {
	n, err := q.store.Size(ctx)
	if err != nil {
		q.logger.Warn("queue: size failed", zap.Error(err))
		return 0
	}
	return n
}

// Clear removes every queued envelope. A store failure is logged and
// swallowed like the adapter's other operations, so the returned error is
// always nil.
func (q *EnvelopeQueue) Clear(ctx context.Context) error {
	if err := q.store.Clear(ctx); err != nil {
		q.logger.Warn("queue: clear failed", zap.Error(err))
	}
	return nil
}

// ContainsItemType delegates to the codec so the engine can apply the
// built-in replay/client-report exclusion without inspecting envelope bytes
// itself.
func (q *EnvelopeQueue) ContainsItemType(env []byte, kinds []ItemType) bool {
	return q.codec.ContainsItemType(env, kinds)
}

// Close releases the underlying store's resources.
func (q *EnvelopeQueue) Close() error {
	return q.store.Close()
}
