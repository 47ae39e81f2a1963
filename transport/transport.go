// Package transport implements the offline transport engine: the public
// facade that wraps a user-supplied inner Transport with durable
// persistence, exponential backoff with server-directed override, queue
// draining, and a full-offline batching mode.
package transport

import (
	"context"
	"net/http"
	"time"
)

// Response is the subset of an inner transport's reply the engine inspects:
// the status code (to decide whether to advance the queue) and headers (to
// look for a server-directed Retry-After).
type Response struct {
	StatusCode int
	Headers    http.Header
}

// Transport is the inner send primitive the engine wraps. This package
// never implements an HTTP stack itself, only this narrow contract plus,
// in transporttest, a couple of small reference adapters.
type Transport interface {
	// Send delivers one envelope and returns the remote response, or an
	// error if delivery failed outright (network error, timeout, and so
	// on — never a non-2xx status, which is a valid Response).
	Send(ctx context.Context, envelope []byte) (*Response, error)

	// Flush asks the inner transport to drain any of its own buffering
	// within timeout, reporting whether it finished in time.
	Flush(ctx context.Context, timeout time.Duration) (bool, error)
}
