package transport

import (
	"time"

	"github.com/denysoblohin-okta/offline-transport/internal/codec"
	"github.com/denysoblohin-okta/offline-transport/internal/queue"
	"github.com/denysoblohin-okta/offline-transport/internal/telemetrylog"
)

// StoreFactory builds the durable queue's backing store for a given
// (dbName, storeName) pair. A nil factory (the default) disables queueing
// entirely: Send still attempts live delivery, but failures are never
// persisted.
type StoreFactory func(dbName, storeName string) (queue.OrderedStore, error)

// ShouldStoreFunc is the user filter applied after the built-in
// replay/client-report exclusion.
type ShouldStoreFunc func(env []byte, sendErr error, retryDelay time.Duration) bool

// Options holds the engine's configuration.
type Options struct {
	CreateStore    StoreFactory
	FlushAtStartup bool
	FullOffline    bool
	ShouldStore    ShouldStoreFunc
	DBName         string
	StoreName      string
	MaxQueueSize   int
	Codec          queue.Codec
	Logger         *telemetrylog.Logger
}

func defaultOptions() Options {
	return Options{
		DBName:       "sentry-offline",
		StoreName:    "queue",
		MaxQueueSize: 30,
		Codec:        codec.NewJSONEnvelopeCodec(),
		Logger:       telemetrylog.Nop(),
	}
}

// Option mutates an Options value; functional options are the idiomatic Go
// way to configure a constructor without a loose options map.
type Option func(*Options)

// WithStore enables persistence using factory to build the backing store.
func WithStore(factory StoreFactory) Option {
	return func(o *Options) { o.CreateStore = factory }
}

// WithFlushAtStartup arms one non-head drain at construction time, to pick
// up entries left over from a prior process.
func WithFlushAtStartup() Option {
	return func(o *Options) { o.FlushAtStartup = true }
}

// WithFullOffline makes Send enqueue rather than transmit; delivery then
// happens solely via Flush.
func WithFullOffline() Option {
	return func(o *Options) { o.FullOffline = true }
}

// WithShouldStore sets the user filter consulted after the built-in
// exclusion of replay/client-report envelopes.
func WithShouldStore(fn ShouldStoreFunc) Option {
	return func(o *Options) { o.ShouldStore = fn }
}

// WithDBName overrides the persistent database identifier (default
// "sentry-offline").
func WithDBName(name string) Option {
	return func(o *Options) { o.DBName = name }
}

// WithStoreName overrides the persistent table identifier (default
// "queue").
func WithStoreName(name string) Option {
	return func(o *Options) { o.StoreName = name }
}

// WithMaxQueueSize overrides the hard cap on stored entries (default 30).
func WithMaxQueueSize(n int) Option {
	return func(o *Options) { o.MaxQueueSize = n }
}

// WithCodec overrides the default JSON envelope codec.
func WithCodec(c queue.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *telemetrylog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
