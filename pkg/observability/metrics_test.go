package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProvider("market", "live", time.Millisecond)
		m.ObserveBrief("fallback", 40, time.Second)
		m.ObserveHTTP("/healthz", "200")
	})
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveProvider("market", "live", 20*time.Millisecond)
	m.ObserveProvider("market", "live", 30*time.Millisecond)
	m.ObserveProvider("labels", "unconfigured", 0)
	m.ObserveBrief("enhanced", 82, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("market", "live")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("labels", "unconfigured")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BriefsTotal.WithLabelValues("enhanced")))
}

func TestSetupLoggerLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	SetupLogger("debug", true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	SetupLogger("nonsense", false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
