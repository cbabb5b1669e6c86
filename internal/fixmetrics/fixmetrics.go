// Package fixmetrics provides Prometheus metrics for session traffic,
// sequence-number gaps, and reject volume. All methods tolerate a nil
// receiver so callers can pass NullMetrics() when metrics are disabled
// without branching at every call site.
package fixmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the fix_ prefixed Prometheus collectors for one engine
// process; every session feeds the same set of vectors, labeled by its
// SessionID string.
type Metrics struct {
	MessagesTotal   *prometheus.CounterVec
	BytesTotal      *prometheus.CounterVec
	RejectsTotal    *prometheus.CounterVec
	ResendsTotal    *prometheus.CounterVec
	SessionsUp      *prometheus.GaugeVec
	NextSenderSeq   *prometheus.GaugeVec
	NextTargetSeq   *prometheus.GaugeVec
	MessageLatency  prometheus.Histogram
}

// NewMetrics constructs and, if reg is non-nil, registers the engine's
// metrics. Pass nil to build unregistered metrics (tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "fix_messages_total", Help: "Total FIX messages by session and direction"},
			[]string{"session", "direction"},
		),
		BytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "fix_bytes_total", Help: "Total FIX wire bytes by session and direction"},
			[]string{"session", "direction"},
		),
		RejectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "fix_rejects_total", Help: "Total session-level rejects by session and reason"},
			[]string{"session", "reason"},
		),
		ResendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "fix_resends_total", Help: "Total ResendRequests handled by session"},
			[]string{"session"},
		),
		SessionsUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "fix_session_up", Help: "1 if the session is logged on, else 0"},
			[]string{"session"},
		),
		NextSenderSeq: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "fix_next_sender_seq", Help: "Next outbound MsgSeqNum"},
			[]string{"session"},
		),
		NextTargetSeq: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "fix_next_target_seq", Help: "Next expected inbound MsgSeqNum"},
			[]string{"session"},
		),
		MessageLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "fix_message_processing_seconds", Help: "Time to validate and dispatch one inbound message", Buckets: prometheus.DefBuckets},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.MessagesTotal, m.BytesTotal, m.RejectsTotal, m.ResendsTotal,
			m.SessionsUp, m.NextSenderSeq, m.NextTargetSeq, m.MessageLatency,
		)
	}
	return m
}

// NullMetrics returns nil, a valid no-op Metrics value.
func NullMetrics() *Metrics { return nil }

func (m *Metrics) RecordMessage(session, direction string, bytes int) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(session, direction).Inc()
	m.BytesTotal.WithLabelValues(session, direction).Add(float64(bytes))
}

func (m *Metrics) RecordReject(session, reason string) {
	if m == nil {
		return
	}
	m.RejectsTotal.WithLabelValues(session, reason).Inc()
}

func (m *Metrics) RecordResend(session string) {
	if m == nil {
		return
	}
	m.ResendsTotal.WithLabelValues(session).Inc()
}

func (m *Metrics) SetSessionUp(session string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1.0
	}
	m.SessionsUp.WithLabelValues(session).Set(v)
}

func (m *Metrics) SetSequenceNumbers(session string, nextSender, nextTarget int) {
	if m == nil {
		return
	}
	m.NextSenderSeq.WithLabelValues(session).Set(float64(nextSender))
	m.NextTargetSeq.WithLabelValues(session).Set(float64(nextTarget))
}

func (m *Metrics) ObserveProcessingLatency(seconds float64) {
	if m == nil {
		return
	}
	m.MessageLatency.Observe(seconds)
}
