package fixmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsToleratesAllCalls(t *testing.T) {
	var m *Metrics
	require.Nil(t, NullMetrics())

	require.NotPanics(t, func() {
		m.RecordMessage("s1", "in", 10)
		m.RecordReject("s1", "required-tag-missing")
		m.RecordResend("s1")
		m.SetSessionUp("s1", true)
		m.SetSequenceNumbers("s1", 5, 9)
		m.ObserveProcessingLatency(0.01)
	})
}

func TestNewMetricsRegistersAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordMessage("s1", "in", 25)
	m.RecordReject("s1", "tag-not-defined")
	m.RecordResend("s1")
	m.SetSessionUp("s1", true)
	m.SetSequenceNumbers("s1", 3, 7)

	require.Equal(t, float64(1), testutil.ToFloat64(m.MessagesTotal.WithLabelValues("s1", "in")))
	require.Equal(t, float64(25), testutil.ToFloat64(m.BytesTotal.WithLabelValues("s1", "in")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.RejectsTotal.WithLabelValues("s1", "tag-not-defined")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ResendsTotal.WithLabelValues("s1")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.SessionsUp.WithLabelValues("s1")))
	require.Equal(t, float64(3), testutil.ToFloat64(m.NextSenderSeq.WithLabelValues("s1")))
	require.Equal(t, float64(7), testutil.ToFloat64(m.NextTargetSeq.WithLabelValues("s1")))
}

func TestSetSessionDownResetsGauge(t *testing.T) {
	m := NewMetrics(nil)
	m.SetSessionUp("s1", true)
	m.SetSessionUp("s1", false)
	require.Equal(t, float64(0), testutil.ToFloat64(m.SessionsUp.WithLabelValues("s1")))
}
