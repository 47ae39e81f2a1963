// Package transporttest provides test doubles for the offline transport's
// external collaborators (the inner Transport and the durable store), used
// by this module's own test suite and importable by anyone embedding the
// engine who wants to exercise it without a real Redis instance or network.
package transporttest

import (
	"context"
	"sort"
	"sync"

	"github.com/denysoblohin-okta/offline-transport/internal/queue"
)

// MemoryStore is a deterministic, in-process implementation of
// queue.OrderedStore, used in place of queue.RedisStore wherever a test
// wants the same ordering/capacity invariants without a network dependency.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[int64][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[int64][]byte)}
}

func (s *MemoryStore) Insert(_ context.Context, value []byte, maxSize int, toStart bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= maxSize {
		return nil
	}

	var newKey int64
	if toStart {
		if min, ok := s.minKey(); ok {
			newKey = min - 1
		} else {
			newKey = 0
		}
	} else {
		max, ok := s.maxKey()
		if ok {
			newKey = max + 1
		} else {
			newKey = 1
		}
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	s.entries[newKey] = cp
	return nil
}

func (s *MemoryStore) Pop(_ context.Context, offset int) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.sortedKeys()
	if offset < 0 || offset >= len(keys) {
		return nil, false, nil
	}
	key := keys[offset]
	value := s.entries[key]
	delete(s.entries, key)
	return value, true, nil
}

func (s *MemoryStore) Size(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[int64][]byte)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) sortedKeys() []int64 {
	keys := make([]int64, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (s *MemoryStore) minKey() (int64, bool) {
	keys := s.sortedKeys()
	if len(keys) == 0 {
		return 0, false
	}
	return keys[0], true
}

func (s *MemoryStore) maxKey() (int64, bool) {
	keys := s.sortedKeys()
	if len(keys) == 0 {
		return 0, false
	}
	return keys[len(keys)-1], true
}

var _ queue.OrderedStore = (*MemoryStore)(nil)
