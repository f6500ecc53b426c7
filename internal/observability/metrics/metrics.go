package metrics

import "github.com/prometheus/client_golang/prometheus"

// TriageMetrics exposes counters/histograms for the WhatsApp triage flow.
type TriageMetrics struct {
	inboundTotal       *prometheus.CounterVec
	repliesTotal       *prometheus.CounterVec
	llmLatency         *prometheus.HistogramVec
	transcriptionTotal *prometheus.CounterVec
	outboundTotal      *prometheus.CounterVec
	webhookLatency     prometheus.Histogram
}

func NewTriageMetrics(reg prometheus.Registerer) *TriageMetrics {
	m := &TriageMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "whatsapp",
			Name:      "inbound_messages_total",
			Help:      "Inbound WhatsApp webhooks by message kind",
		}, []string{"kind"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "replies_total",
			Help:      "Replies produced by pipeline path and language",
		}, []string{"path", "language"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Latency of reasoning model completions",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"status"}),
		transcriptionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "transcription",
			Name:      "requests_total",
			Help:      "Voice note transcriptions by provider and status",
		}, []string{"provider", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "whatsapp",
			Name:      "outbound_total",
			Help:      "Outbound replies by delivery mode and status",
		}, []string{"mode", "status"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "whatsapp",
			Name:      "webhook_latency_seconds",
			Help:      "End-to-end latency of webhook handling",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.llmLatency, m.transcriptionTotal, m.outboundTotal, m.webhookLatency)
	return m
}

func (m *TriageMetrics) ObserveInbound(kind string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(kind).Inc()
}

func (m *TriageMetrics) ObserveReply(path, language string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(path, language).Inc()
}

func (m *TriageMetrics) ObserveLLM(status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(status).Observe(seconds)
}

func (m *TriageMetrics) ObserveTranscription(provider, status string) {
	if m == nil {
		return
	}
	m.transcriptionTotal.WithLabelValues(provider, status).Inc()
}

func (m *TriageMetrics) ObserveOutbound(mode, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(mode, status).Inc()
}

func (m *TriageMetrics) ObserveWebhookLatency(seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.Observe(seconds)
}
