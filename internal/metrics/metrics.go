package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	SearchRequestsTotal   *prometheus.CounterVec
	SearchRequestDuration *prometheus.HistogramVec

	ToolCallsTotal   *prometheus.CounterVec
	ToolCallDuration *prometheus.HistogramVec

	AgentRepliesTotal *prometheus.CounterVec

	ActivityRecordsTotal *prometheus.CounterVec

	RateLimitHitsTotal prometheus.Counter
}

// New регистрирует метрики в reg. В тестах передаём prometheus.NewRegistry(),
// иначе повторная регистрация в дефолтном реестре паникует.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_agents_http_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "estimator_agents_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"route"},
		),
		RequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "estimator_agents_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		SearchRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_agents_search_requests_total",
				Help: "Total number of product search API requests by outcome",
			},
			[]string{"status"},
		),
		SearchRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "estimator_agents_search_request_duration_seconds",
				Help:    "Product search request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{},
		),

		ToolCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_agents_tool_calls_total",
				Help: "Total number of tool invocations",
			},
			[]string{"tool", "status"},
		),
		ToolCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "estimator_agents_tool_call_duration_seconds",
				Help:    "Tool invocation duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),

		AgentRepliesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_agents_agent_replies_total",
				Help: "Total number of agent replies",
			},
			[]string{"agent"},
		),

		ActivityRecordsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_agents_activity_records_total",
				Help: "Total number of agent activity log writes",
			},
			[]string{"status"},
		),

		RateLimitHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "estimator_agents_rate_limit_hits_total",
				Help: "Total number of rate limited requests",
			},
		),
	}

	return m
}

func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRequest(route, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) RecordSearchRequest(status string, duration time.Duration) {
	m.SearchRequestsTotal.WithLabelValues(status).Inc()
	m.SearchRequestDuration.WithLabelValues().Observe(duration.Seconds())
}

func (m *Metrics) RecordToolCall(tool, status string, duration time.Duration) {
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func (m *Metrics) RecordAgentReply(agent string) {
	m.AgentRepliesTotal.WithLabelValues(agent).Inc()
}

func (m *Metrics) RecordActivity(status string) {
	m.ActivityRecordsTotal.WithLabelValues(status).Inc()
}

// RecordRateLimitHit - без метки клиента, иначе кардинальность растёт с каждым IP
func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitsTotal.Inc()
}

func (m *Metrics) IncRequestsInFlight() {
	m.RequestsInFlight.Inc()
}

func (m *Metrics) DecRequestsInFlight() {
	m.RequestsInFlight.Dec()
}
