package telemetry

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndntg/namepush/cfg"
)

func TestTelemetryDisabledStaysNoop(t *testing.T) {
	saved := *cfg.Config
	t.Cleanup(func() { *cfg.Config = saved })
	cfg.Config.Prometheus.Enabled = false

	InitializeTelemetry()

	assert.Nil(t, GetMetricsHandler())
	_, noop := ActivePatterns.(NoopStat)
	assert.True(t, noop)
	_, noop = PublishSeconds.(NoopStat)
	assert.True(t, noop)
}

func TestTelemetryEnabledExportsMetrics(t *testing.T) {
	saved := *cfg.Config
	t.Cleanup(func() {
		*cfg.Config = saved
		registry = nil
		InitMetrics() // Back to noops for other tests
	})
	cfg.Config.Prometheus.Enabled = true

	InitializeTelemetry()

	handler := GetMetricsHandler()
	require.NotNil(t, handler)

	PublishedTotal.With("/ndn/a").Inc()
	PublishedBytesTotal.Add(64)
	RegistrationFailuresTotal.Inc()
	ActivePatterns.Set(3)
	ActivePatterns.Inc()
	ActivePatterns.Dec()
	PublishSeconds.Observe(0.004)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `namepush_published_total{instance_id="0",pattern="/ndn/a"} 1`)
	assert.Contains(t, body, `namepush_published_bytes_total{instance_id="0"} 64`)
	assert.Contains(t, body, `namepush_registration_failures_total{instance_id="0"} 1`)
	assert.Contains(t, body, `namepush_active_patterns{instance_id="0"} 3`)
	assert.Contains(t, body, `namepush_publish_seconds_count{instance_id="0"} 1`)
}
