package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodGet, "/api/matches", http.StatusOK, 20*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveMatchComputation(114, 3, 10*time.Millisecond, "")
	m.ObserveMatchComputation(114, 5, 30*time.Millisecond, "deadline_exceeded")

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(2), snap.MatchComputations)
	assert.Equal(t, uint64(1), snap.TruncatedComputations)
	assert.InDelta(t, 20, snap.AverageMatchDurationMs, 0.5)
	assert.Equal(t, float64(5), testutil.ToFloat64(m.matchCycles.WithLabelValues("114")))
}

func TestMetricsServiceRecomputeJobs(t *testing.T) {
	m := NewMetricsService()
	m.RecordRecomputeJob(nil)
	m.RecordRecomputeJob(errors.New("db down"))
	m.RecordRecomputeJob(nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.recomputeJobs.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.recomputeJobs.WithLabelValues("failure")))
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveMatchComputation(114, 1, time.Millisecond, "")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "match_compute_duration_seconds")
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveMatchComputation(114, 1, time.Millisecond, "")
	m.RecordRecomputeJob(nil)
	assert.False(t, m.Snapshot().GeneratedAt.IsZero())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
