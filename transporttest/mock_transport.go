package transporttest

import (
	"context"
	"sync"
	"time"

	"github.com/denysoblohin-okta/offline-transport/transport"
)

// MockTransport is a scriptable inner Transport double: each call to
// Send consumes the next queued Result (cycling the last one once
// exhausted), recording every envelope it was handed so tests can assert on
// delivery order.
type MockTransport struct {
	mu       sync.Mutex
	results  []Result
	sent     [][]byte
	flushRes bool
	flushErr error
}

// Result scripts one Send outcome: either a response or an error, never
// both.
type Result struct {
	Response *transport.Response
	Err      error
}

// NewMockTransport builds a double that replays results in order.
func NewMockTransport(results ...Result) *MockTransport {
	return &MockTransport{results: results}
}

// SetFlushResult scripts what Flush returns in non-offline mode.
func (m *MockTransport) SetFlushResult(ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushRes, m.flushErr = ok, err
}

func (m *MockTransport) Send(_ context.Context, envelope []byte) (*transport.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(envelope))
	copy(cp, envelope)
	m.sent = append(m.sent, cp)

	if len(m.results) == 0 {
		return &transport.Response{StatusCode: 200}, nil
	}
	var r Result
	if len(m.results) == 1 {
		r = m.results[0]
	} else {
		r, m.results = m.results[0], m.results[1:]
	}
	return r.Response, r.Err
}

func (m *MockTransport) Flush(_ context.Context, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushRes, m.flushErr
}

// Sent returns every envelope handed to Send so far, in call order.
func (m *MockTransport) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	copy(out, m.sent)
	return out
}

// SendCount reports how many times Send has been called.
func (m *MockTransport) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
