package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/2beens/gymtracker/internal/middleware"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
)

type fakeLimiter struct {
	allowed int
	err     error
	keys    []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return &redis_rate.Result{Allowed: l.allowed, RetryAfter: 30 * time.Second}, nil
}

func TestRateLimit(t *testing.T) {
	testCases := []struct {
		name           string
		method         string
		limiter        *fakeLimiter
		expectedStatus int
		expectedLimits float64
	}{
		{
			name:           "Allowed",
			method:         http.MethodPost,
			limiter:        &fakeLimiter{allowed: 1},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Limited",
			method:         http.MethodPost,
			limiter:        &fakeLimiter{allowed: 0},
			expectedStatus: http.StatusTooManyRequests,
			expectedLimits: 1,
		},
		{
			name:           "LimiterError",
			method:         http.MethodDelete,
			limiter:        &fakeLimiter{err: errors.New("redis down")},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "ReadsNotLimited",
			method:         http.MethodGet,
			limiter:        &fakeLimiter{allowed: 0},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			metricsManager := metrics.NewTestManager()
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			handler := middleware.RateLimit(tc.limiter, metricsManager, "backup", 5)(next)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tc.method, "/backup", nil))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectedLimits, testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))
			if tc.method != http.MethodGet {
				assert.Equal(t, []string{"backup"}, tc.limiter.keys)
			}
		})
	}
}
