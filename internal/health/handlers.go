// Package health serves the liveness and readiness probes.
package health

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/toko-kasir/internal/common"
)

// ErrDisabled is returned by a Checker for an optional dependency that is not
// configured. It does not fail readiness.
var ErrDisabled = errors.New("disabled")

var draining atomic.Bool

// SetReady flips readiness; the API clears it when draining for shutdown.
func SetReady(v bool) {
	draining.Store(!v)
}

// Checker probes the store and Redis.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Report is the readiness body.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Live answers as long as the process serves HTTP.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, Report{Status: "ok"})
}

// Ready probes both dependencies concurrently and answers 503 when either
// fails or the server is draining.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		common.JSON(w, http.StatusServiceUnavailable, Report{Status: "unavailable"})
		return
	}
	var dbErr, redisErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		dbErr = h.Checker.PingDB(r.Context(), orDefault(h.DBTimeout, 500*time.Millisecond))
	}()
	go func() {
		defer wg.Done()
		redisErr = h.Checker.PingRedis(r.Context(), orDefault(h.RedisTimeout, 300*time.Millisecond))
	}()
	wg.Wait()

	report := Report{
		Status: "ok",
		Checks: map[string]string{"db": probe(dbErr), "redis": probe(redisErr)},
	}
	code := http.StatusOK
	switch {
	case draining.Load():
		report.Status = "draining"
		code = http.StatusServiceUnavailable
	case !healthy(dbErr) || !healthy(redisErr):
		report.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, report)
}

func probe(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	default:
		return err.Error()
	}
}

func healthy(err error) bool {
	return err == nil || errors.Is(err, ErrDisabled)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
