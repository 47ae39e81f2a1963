// Package mockserver is a tiny gin-backed stand-in for the remote ingestion
// endpoint the offline transport's inner HTTP transport talks to: a
// minimal, inspectable HTTP surface to point the demo CLI and integration
// tests at, instead of a real collector.
package mockserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Server is an in-process ingestion endpoint whose behavior is scripted by
// the caller: it can be told to fail the next N requests, or to attach a
// Retry-After header to its responses.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	failNext      int
	retryAfter    string
	receivedCount int64
}

// New starts a mock server on the loopback interface.
func New() *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	s := &Server{}

	r.POST("/api/envelope", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		_ = body
		atomic.AddInt64(&s.receivedCount, 1)

		s.mu.Lock()
		fail := s.failNext > 0
		if fail {
			s.failNext--
		}
		retryAfter := s.retryAfter
		s.mu.Unlock()

		if retryAfter != "" {
			c.Header("Retry-After", retryAfter)
		}
		if fail {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// FailNext makes the next n requests to /api/envelope return 503.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// SetRetryAfter attaches a Retry-After header (delta-seconds string, e.g.
// "7") to every subsequent response.
func (s *Server) SetRetryAfter(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryAfter = value
}

// Endpoint returns the full URL of the envelope ingestion route.
func (s *Server) Endpoint() string {
	return s.URL + "/api/envelope"
}

// ReceivedCount reports how many requests have hit the endpoint so far.
func (s *Server) ReceivedCount() int64 {
	return atomic.LoadInt64(&s.receivedCount)
}
