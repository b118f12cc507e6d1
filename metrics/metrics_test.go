package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics("test", reg)

	m.SubmitAttempt("ok")
	m.SubmitAttempt("error")
	m.SubmitAttempt("ok")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.Invocation("resolve", "ok", 1500*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submitAttempts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submitAttempts.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_ReRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := MustNewMetrics("test", reg)
	second := MustNewMetrics("test", reg)

	first.PollRound("pending")
	assert.Equal(t, 1.0, testutil.ToFloat64(second.pollRounds.WithLabelValues("pending")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SubmitAttempt("ok")
		m.PollRound("confirmed")
		m.Invocation("resolve", "ok", time.Second)
		m.CacheLookup(true)
		m.DNSQuery("A", "NOERROR")
	})
}
