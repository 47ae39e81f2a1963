// Command offlineping exercises the offline transport engine end to end:
// it wires a durable Redis-backed queue and an HTTP inner transport
// (optionally pointed at an in-process mock ingestion endpoint) and sends a
// handful of sample envelopes, logging what the engine does with them.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/denysoblohin-okta/offline-transport/internal/codec"
	"github.com/denysoblohin-okta/offline-transport/internal/config"
	"github.com/denysoblohin-okta/offline-transport/internal/queue"
	"github.com/denysoblohin-okta/offline-transport/transport"
	"github.com/denysoblohin-okta/offline-transport/transporttest"
	"github.com/denysoblohin-okta/offline-transport/transporttest/mockserver"
)

func main() {
	cfg := config.Load()

	var (
		endpoint     = pflag.String("endpoint", cfg.Endpoint, "remote envelope endpoint (overrides OFFLINE_ENDPOINT)")
		useMock      = pflag.Bool("mock", cfg.UseMockServer, "spin up an in-process mock endpoint instead of --endpoint")
		fullOffline  = pflag.Bool("full-offline", cfg.FullOffline, "enqueue every send instead of transmitting live")
		flushAtStart = pflag.Bool("flush-at-startup", cfg.FlushAtStart, "drain any entries left over from a prior run")
		count        = pflag.Int("count", 5, "number of sample envelopes to send")
		interval     = pflag.Duration("interval", 500*time.Millisecond, "delay between sample sends")
		redisAddr    = pflag.String("redis-addr", cfg.RedisAddr, "Redis address backing the durable queue")
	)
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mock *mockserver.Server
	target := *endpoint
	if *useMock || target == "" {
		mock = mockserver.New()
		defer mock.Close()
		target = mock.Endpoint()
		log.Printf("offlineping: mock endpoint listening at %s", target)
	}

	rdb := redis.NewClient(&redis.Options{Addr: *redisAddr, DB: cfg.RedisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("offlineping: redis connect failed: %v", err)
	}
	defer rdb.Close()

	inner := transporttest.NewHTTPTransport(nil, target)

	engine, err := transport.New(inner,
		transport.WithStore(queue.NewRedisStoreFactory(rdb)),
		transport.WithDBName(cfg.DBName),
		transport.WithStoreName(cfg.StoreName),
		transport.WithMaxQueueSize(cfg.MaxQueueSize),
		withFullOffline(*fullOffline),
		withFlushAtStartup(*flushAtStart),
	)
	if err != nil {
		log.Fatalf("offlineping: %v", err)
	}
	defer engine.Close()

	for i := 0; i < *count; i++ {
		payload, _ := json.Marshal(map[string]any{
			"id":  uuid.NewString(),
			"seq": i,
		})
		env := codec.BuildEnvelope(codec.Item{Type: "event", Payload: payload})

		resp, sendErr := engine.Send(ctx, env)
		switch {
		case sendErr != nil:
			log.Printf("offlineping: send %d refused: %v", i, sendErr)
		case resp.StatusCode == 0:
			log.Printf("offlineping: send %d deferred (queued)", i)
		default:
			log.Printf("offlineping: send %d delivered, status=%d", i, resp.StatusCode)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(*interval):
		}
	}

	if *fullOffline {
		if _, err := engine.Flush(ctx, 10*time.Second); err != nil {
			log.Printf("offlineping: flush failed: %v", err)
		}
	}

	if mock != nil {
		log.Printf("offlineping: mock endpoint received %d requests", mock.ReceivedCount())
	}
}

func withFullOffline(enabled bool) transport.Option {
	if enabled {
		return transport.WithFullOffline()
	}
	return func(*transport.Options) {}
}

func withFlushAtStartup(enabled bool) transport.Option {
	if enabled {
		return transport.WithFlushAtStartup()
	}
	return func(*transport.Options) {}
}
