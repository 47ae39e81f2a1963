package transporttest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/denysoblohin-okta/offline-transport/transport"
)

// HTTPTransport is a reference realization of transport.Transport over
// net/http, for the demo CLI and integration-style tests. It is
// intentionally minimal — envelope framing, auth, and compression are the
// telemetry client's concern, not the core engine's.
type HTTPTransport struct {
	client   *http.Client
	endpoint string

	// DialRetry, when non-nil, wraps each Send's HTTP round trip in a
	// generic exponential-backoff retry loop that retries transport-level
	// errors only (a non-2xx status is returned, not retried) — the one
	// place in this module where a curve-shaped backoff library fits, as
	// opposed to the engine's precisely specified retryDelay formula.
	DialRetry backoff.BackOff
}

// NewHTTPTransport builds a transport posting envelopes to endpoint.
func NewHTTPTransport(client *http.Client, endpoint string) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client, endpoint: endpoint}
}

func (t *HTTPTransport) Send(ctx context.Context, envelope []byte) (*transport.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("transporttest: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-sentry-envelope")

	var resp *http.Response
	op := func() error {
		var sendErr error
		resp, sendErr = t.client.Do(req)
		return sendErr
	}

	if t.DialRetry != nil {
		err = backoff.Retry(op, t.DialRetry)
	} else {
		err = op()
	}
	if err != nil {
		return nil, fmt.Errorf("transporttest: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return &transport.Response{StatusCode: resp.StatusCode, Headers: resp.Header}, nil
}

func (t *HTTPTransport) Flush(ctx context.Context, timeout time.Duration) (bool, error) {
	// net/http has no client-side buffering to drain; an HTTP transport's
	// Flush is always immediately satisfied.
	return true, nil
}
