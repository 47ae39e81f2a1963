package queue

import "time"

// Codec is the external serialization/parsing collaborator the core treats
// as opaque. The queue adapter calls it to turn an envelope into bytes
// before persisting and back into an envelope after popping; it never
// inspects the bytes itself beyond asking ContainsItemType.
type Codec interface {
	// Serialize turns an envelope into its persisted byte form.
	Serialize(env []byte) ([]byte, error)

	// Parse turns a persisted byte form back into an envelope.
	Parse(data []byte) ([]byte, error)

	// ContainsItemType reports whether env carries an item whose type is in
	// kinds, used by the engine to enforce the replay/client-report
	// exclusion ahead of any user-supplied filter.
	ContainsItemType(env []byte, kinds []ItemType) bool

	// ParseRetryAfter turns a Retry-After header value (delta-seconds or an
	// HTTP-date) into a delay.
	ParseRetryAfter(header string) (time.Duration, error)
}
