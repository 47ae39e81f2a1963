package queue

import (
	"context"
	"errors"
)

// ErrStoreUnavailable wraps any failure the underlying persistent store
// reports back to its caller. The queue adapter swallows it; it is exported
// so a store implementation can wrap its own driver errors with %w and
// callers that do see it (store implementations, integration tests) can
// still errors.Is against it.
var ErrStoreUnavailable = errors.New("queue: store unavailable")

// ErrCodec wraps a Codec serialization or parse failure. Like
// ErrStoreUnavailable it is swallowed at the queue adapter boundary; it
// exists so a Codec implementation can wrap its own marshaling errors with
// %w and tests can errors.Is against a stable sentinel.
var ErrCodec = errors.New("queue: codec error")

// OrderedStore is the durable FIFO queue described by the offline transport
// core: a bounded, key-ordered persistent container of opaque byte values.
//
// Implementations MUST honor:
//   - O1: entries are enumerated strictly by ascending key; keys are unique.
//   - O2: a head insert (toStart=true) yields a key strictly less than every
//     existing key.
//   - O3: a tail insert (toStart=false) yields max(existingKeys)+1, or 1 when
//     the store is empty.
//   - O4: an insert that would leave more than maxSize entries is a silent
//     no-op.
//
// Every method executes as a single read-write transaction: it either
// commits in full or has no observable effect.
type OrderedStore interface {
	// Insert writes value at the head (toStart) or tail of the store,
	// subject to the maxSize cap.
	Insert(ctx context.Context, value []byte, maxSize int, toStart bool) error

	// Pop removes and returns the value at the given zero-based offset in
	// ascending-key order. It reports ok=false, with no error, when the
	// store has no entry at that offset (including an empty store).
	Pop(ctx context.Context, offset int) (value []byte, ok bool, err error)

	// Size reports the number of entries currently stored.
	Size(ctx context.Context) (int, error)

	// Clear atomically removes every entry.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
