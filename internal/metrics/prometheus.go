package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the call agent.
type Metrics struct {
	// Call lifecycle metrics
	ActiveCalls    prometheus.Gauge
	CallsStarted   prometheus.Counter
	CallsCompleted prometheus.Counter
	CallDuration   prometheus.Histogram

	// Media path metrics
	FramesInbound  prometheus.Counter
	FramesOutbound prometheus.Counter
	CodecErrors    prometheus.Counter

	// Guardrail metrics
	GuardrailRejects prometheus.Counter
	PolicyRejects    prometheus.Counter
	StateViolations  prometheus.Counter
	TurnsAccepted    prometheus.Counter

	// Conversation metrics
	BargeIns       prometheus.Counter
	SessionUpdates prometheus.Counter
	EngineEvents   *prometheus.CounterVec
	CalendarErrors prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates and registers all metrics on the given registerer.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveCalls: factory.NewGauge(prometheus.GaugeOpts{
			Name: "callagent_active_calls",
			Help: "Current number of active calls",
		}),
		CallsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_calls_started_total",
			Help: "Total number of calls started",
		}),
		CallsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_calls_completed_total",
			Help: "Total number of calls finalized",
		}),
		CallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "callagent_call_duration_seconds",
			Help:    "Duration of completed calls in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),

		FramesInbound: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_frames_inbound_total",
			Help: "Audio frames forwarded from telephony to the engine",
		}),
		FramesOutbound: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_frames_outbound_total",
			Help: "Audio frames forwarded from the engine to telephony",
		}),
		CodecErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_codec_errors_total",
			Help: "Audio frames dropped due to malformed payloads",
		}),

		GuardrailRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_guardrail_rejects_total",
			Help: "Engine turns rejected by the intent guardrail",
		}),
		PolicyRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_policy_rejects_total",
			Help: "Engine turns rejected by the content policy scan",
		}),
		StateViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_state_violations_total",
			Help: "Accepted intents inconsistent with the conversation state",
		}),
		TurnsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_turns_accepted_total",
			Help: "Engine turns that passed validation",
		}),

		BargeIns: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_barge_ins_total",
			Help: "Caller barge-ins that flushed playback and canceled generation",
		}),
		SessionUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_session_updates_total",
			Help: "session.update messages sent to the engine",
		}),
		EngineEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "callagent_engine_events_total",
			Help: "Engine events received by type",
		}, []string{"type"}),
		CalendarErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "callagent_calendar_errors_total",
			Help: "Calendar lookups that failed and degraded to no slots",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "callagent_http_requests_total",
			Help: "HTTP API requests by method, endpoint and status code",
		}, []string{"method", "endpoint", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "callagent_http_request_duration_seconds",
			Help:    "HTTP API request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordCallStarted marks one call as active.
func (m *Metrics) RecordCallStarted() {
	m.CallsStarted.Inc()
	m.ActiveCalls.Inc()
}

// RecordCallCompleted marks one call as finalized and records its duration.
func (m *Metrics) RecordCallCompleted(durationSeconds float64) {
	m.CallsCompleted.Inc()
	m.ActiveCalls.Dec()
	m.CallDuration.Observe(durationSeconds)
}

// RecordEngineEvent counts one received engine event by type.
func (m *Metrics) RecordEngineEvent(eventType string) {
	m.EngineEvents.WithLabelValues(eventType).Inc()
}

// RecordHTTPRequest records one HTTP API request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, status string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
