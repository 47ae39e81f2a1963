// Package config loads cmd/offlineping's runtime configuration from the
// environment, in the same getEnv/getEnvInt style the Redis job queue this
// module is descended from used for its own service configuration.
package config

import (
	"fmt"
	"os"
)

// Config holds everything cmd/offlineping needs to wire an Engine against a
// Redis-backed durable queue and an HTTP inner transport.
type Config struct {
	RedisAddr     string
	RedisDB       int
	DBName        string
	StoreName     string
	MaxQueueSize  int
	Endpoint      string
	FullOffline   bool
	FlushAtStart  bool
	UseMockServer bool
}

// Load reads configuration from the environment, falling back to demo
// defaults so the CLI runs out of the box against a local mock server.
func Load() Config {
	return Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		DBName:        getEnv("OFFLINE_DB_NAME", "sentry-offline"),
		StoreName:     getEnv("OFFLINE_STORE_NAME", "queue"),
		MaxQueueSize:  getEnvInt("OFFLINE_MAX_QUEUE_SIZE", 30),
		Endpoint:      getEnv("OFFLINE_ENDPOINT", ""),
		FullOffline:   getEnvBool("OFFLINE_FULL_OFFLINE", false),
		FlushAtStart:  getEnvBool("OFFLINE_FLUSH_AT_STARTUP", false),
		UseMockServer: getEnvBool("OFFLINE_USE_MOCK_SERVER", true),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True":
		return true
	case "0", "false", "FALSE", "False":
		return false
	default:
		return def
	}
}
