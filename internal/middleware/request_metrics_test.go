package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/2beens/gymtracker/internal/telemetry/metrics"
)

func TestRequestMetrics(t *testing.T) {
	metricsManager := metrics.NewTestManager()

	r := mux.NewRouter()
	r.HandleFunc("/workouts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Use(RequestMetrics(metricsManager))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("DELETE", "/workouts/W_1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRequests.WithLabelValues("DELETE", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(metricsManager.HistogramRequestDuration))
}
