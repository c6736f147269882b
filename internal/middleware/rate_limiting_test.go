package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type testRequestRateLimiter struct {
	// key to remaining allowed requests
	Limits map[string]int
	Keys   []string
	Err    error
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	l.Keys = append(l.Keys, key)
	if l.Err != nil {
		return nil, l.Err
	}
	res := &redis_rate.Result{Limit: limit, RetryAfter: 1500 * time.Millisecond}
	if l.Limits[key] > 0 {
		res.Allowed = 1
		res.RetryAfter = -1
		l.Limits[key]--
	}
	return res, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &testRequestRateLimiter{Limits: map[string]int{
		"pipeline||user||user-1": 2,
		"pipeline||operator":     1,
	}}
	metricsManager := metrics.NewTestManager()
	calls := 0
	handler := RateLimit(limiter, "pipeline", 10, metricsManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	serve := func(p caller.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/pipeline/run", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		req = req.WithContext(caller.WithPrincipal(req.Context(), p))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, serve(caller.Principal{UserID: "user-1"}).Code)
	assert.Equal(t, http.StatusOK, serve(caller.Principal{UserID: "user-1"}).Code)
	limited := serve(caller.Principal{UserID: "user-1"})
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "2", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve(caller.Principal{Operator: true}).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(caller.Principal{}).Code)

	assert.Equal(t, 3, calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))
	assert.Equal(t, "pipeline||ip||203.0.113.9", limiter.Keys[len(limiter.Keys)-1])
}

func TestRateLimit_LimiterError(t *testing.T) {
	limiter := &testRequestRateLimiter{Err: errors.New("redis down")}
	handler := RateLimit(limiter, "baselines", 10, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not be called")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/baselines/compute", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
