package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveClip(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveClip(10, 2, 5.0, 1.5)
	m.ObserveClip(4, 1, 2.0, 0.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ClipsProcessed))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.WindowsInferred))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SegmentsEmitted))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.AudioSeconds))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SpeechSeconds))
}

func TestObserveInference(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveInference(20*time.Millisecond, nil)
	m.ObserveInference(time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.InferenceErrors))
	assert.Equal(t, 1, testutil.CollectAndCount(m.InferenceTime))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveClip(1, 1, 1, 1)
		m.ObserveInference(time.Second, nil)
	})
}

func TestNewRegistersEverything(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.HTTPRequests.WithLabelValues("/v1/timestamps", "200").Inc()
	m.HTTPRequestDuration.WithLabelValues("/v1/timestamps").Observe(0.1)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(families), 9)

	assert.Panics(t, func() { New(reg) }, "registering twice must fail loudly")
}
