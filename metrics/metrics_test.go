package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetrics_Is_Noop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BufferHit()
		m.BufferMiss()
		m.BufferEviction()
		m.BufferFlush()
		m.SetResidentPages(3)
		m.LockTimeout()
		m.LockGranted("shared")
	})
}

func TestMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.BufferHit()
	m.BufferHit()
	m.LockGranted("exclusive")
	m.SetResidentPages(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bufferHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lockGrants.WithLabelValues("exclusive")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.residentPages))

	_, err = New(reg)
	assert.Error(t, err, "registering twice must fail")
}
