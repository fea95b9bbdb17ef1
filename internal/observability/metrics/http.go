package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/bdchat/internal/core/domain"
)

type HTTPServerMetrics struct {
	service  string
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatOutcomesTotal *prometheus.CounterVec
	chatTopicsMatched prometheus.Histogram
	llmCallsTotal     *prometheus.CounterVec
	llmCallDuration   *prometheus.HistogramVec
	llmTokensTotal    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()
	serviceLabel := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "bdchat",
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total HTTP requests processed.",
			ConstLabels: serviceLabel,
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "bdchat",
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: serviceLabel,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "bdchat",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: serviceLabel,
		},
	)
	chatOutcomesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "bdchat",
			Subsystem:   "chat",
			Name:        "outcomes_total",
			Help:        "Chat requests by outcome (answered, invalid_input, not_initialized, upstream, internal).",
			ConstLabels: serviceLabel,
		},
		[]string{"outcome"},
	)
	chatTopicsMatched := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "bdchat",
			Subsystem:   "chat",
			Name:        "topics_matched",
			Help:        "Non-empty topic slots per answered chat.",
			Buckets:     []float64{0, 1, 2, 3},
			ConstLabels: serviceLabel,
		},
	)
	llmCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "bdchat",
			Subsystem:   "llm",
			Name:        "calls_total",
			Help:        "Inference endpoint calls by operation and status.",
			ConstLabels: serviceLabel,
		},
		[]string{"operation", "model", "status"},
	)
	llmCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "bdchat",
			Subsystem:   "llm",
			Name:        "call_duration_seconds",
			Help:        "Inference endpoint call duration including retries.",
			Buckets:     []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 120},
			ConstLabels: serviceLabel,
		},
		[]string{"operation"},
	)
	llmTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "bdchat",
			Subsystem:   "llm",
			Name:        "tokens_total",
			Help:        "Token usage reported by the inference endpoint by direction.",
			ConstLabels: serviceLabel,
		},
		[]string{"operation", "direction", "model"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatOutcomesTotal,
		chatTopicsMatched,
		llmCallsTotal,
		llmCallDuration,
		llmTokensTotal,
	)

	return &HTTPServerMetrics{
		service:           service,
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		chatOutcomesTotal: chatOutcomesTotal,
		chatTopicsMatched: chatTopicsMatched,
		llmCallsTotal:     llmCallsTotal,
		llmCallDuration:   llmCallDuration,
		llmTokensTotal:    llmTokensTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps label cardinality bounded for unknown paths.
func normalizePath(path string) string {
	switch path {
	case "/", "/chat", "/health", "/topics", "/metrics", "/openapi.json":
		return path
	default:
		return "other"
	}
}

func (m *HTTPServerMetrics) RecordChatOutcome(outcome string, topics []string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.chatOutcomesTotal.WithLabelValues(outcome).Inc()
	if outcome != "answered" {
		return
	}
	matched := 0
	for _, topic := range topics {
		if topic != "" {
			matched++
		}
	}
	m.chatTopicsMatched.Observe(float64(matched))
}

// ObserveCompletion records one inference call, including its token usage.
func (m *HTTPServerMetrics) ObserveCompletion(operation, model string, duration time.Duration, usage domain.TokenUsage, err error) {
	if model == "" {
		model = "unknown"
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.llmCallsTotal.WithLabelValues(operation, model, status).Inc()
	m.llmCallDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if usage.PromptTokens > 0 {
		m.llmTokensTotal.WithLabelValues(operation, "in", model).Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		m.llmTokensTotal.WithLabelValues(operation, "out", model).Add(float64(usage.CompletionTokens))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
