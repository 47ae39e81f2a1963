// Package codec provides the module's own concrete realization of the
// external envelope codec the core transport treats as an injected
// collaborator. It is deliberately simple — a JSON array of typed items —
// since the wire format itself is out of this module's scope; a downstream
// user wiring this transport into a real telemetry client is expected to
// supply their own queue.Codec over their own envelope format.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/denysoblohin-okta/offline-transport/internal/queue"
)

// Item is one typed unit inside an envelope.
type Item struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type envelope struct {
	Items []Item `json:"items"`
}

// BuildEnvelope assembles the default wire form from a set of items, for
// callers (tests, cmd/offlineping) that need a concrete envelope to send.
func BuildEnvelope(items ...Item) []byte {
	data, err := json.Marshal(envelope{Items: items})
	if err != nil {
		// Item.Payload is always json.RawMessage already valid, or nil; the
		// only way Marshal fails here is a caller hand-building an invalid
		// RawMessage, which is a programmer error, not a runtime one.
		panic(fmt.Sprintf("codec: BuildEnvelope: %v", err))
	}
	return data
}

// JSONEnvelopeCodec is the default queue.Codec implementation.
type JSONEnvelopeCodec struct{}

// NewJSONEnvelopeCodec returns the default codec.
func NewJSONEnvelopeCodec() *JSONEnvelopeCodec {
	return &JSONEnvelopeCodec{}
}

// Serialize is a pass-through: the default wire form produced by
// BuildEnvelope is already the persisted byte form.
func (JSONEnvelopeCodec) Serialize(env []byte) ([]byte, error) {
	return env, nil
}

// Parse validates that data round-trips as an envelope and returns it
// unchanged.
func (JSONEnvelopeCodec) Parse(data []byte) ([]byte, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: parse envelope: %s", queue.ErrCodec, err)
	}
	return data, nil
}

// ContainsItemType reports whether env carries an item whose type is one of
// kinds.
func (JSONEnvelopeCodec) ContainsItemType(env []byte, kinds []queue.ItemType) bool {
	var e envelope
	if err := json.Unmarshal(env, &e); err != nil {
		return false
	}
	if len(e.Items) == 0 || len(kinds) == 0 {
		return false
	}
	want := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		want[string(k)] = struct{}{}
	}
	for _, it := range e.Items {
		if _, ok := want[it.Type]; ok {
			return true
		}
	}
	return false
}

// ParseRetryAfter parses a Retry-After header value expressed either as
// delta-seconds or an HTTP-date, per RFC 7231 §7.1.3.
func (JSONEnvelopeCodec) ParseRetryAfter(header string) (time.Duration, error) {
	if header == "" {
		return 0, errors.New("codec: empty retry-after header")
	}
	if secs, err := strconv.ParseFloat(header, 64); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	if when, err := http.ParseTime(header); err == nil {
		d := time.Until(when)
		if d < 0 {
			d = 0
		}
		return d, nil
	}
	return 0, fmt.Errorf("codec: invalid retry-after header %q", header)
}
