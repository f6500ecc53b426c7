package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriageMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTriageMetrics(reg)

	m.ObserveInbound("text")
	m.ObserveInbound("text")
	m.ObserveInbound("audio")
	m.ObserveReply("emergency", "hi")
	m.ObserveTranscription("gemini", "error")
	m.ObserveOutbound("rest", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.inboundTotal.WithLabelValues("text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inboundTotal.WithLabelValues("audio")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.repliesTotal.WithLabelValues("emergency", "hi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transcriptionTotal.WithLabelValues("gemini", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboundTotal.WithLabelValues("rest", "ok")))
}

func TestTriageMetricsHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTriageMetrics(reg)

	m.ObserveLLM("ok", 1.2)
	m.ObserveLLM("error", 0.3)
	m.ObserveWebhookLatency(2.5)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]uint64{}
	for _, fam := range families {
		if fam.GetType() != dto.MetricType_HISTOGRAM {
			continue
		}
		for _, metric := range fam.GetMetric() {
			counts[fam.GetName()] += metric.GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), counts["triage_llm_request_duration_seconds"])
	assert.Equal(t, uint64(1), counts["triage_whatsapp_webhook_latency_seconds"])
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *TriageMetrics
	m.ObserveInbound("text")
	m.ObserveReply("llm", "en")
	m.ObserveLLM("ok", 1)
	m.ObserveTranscription("whisper", "ok")
	m.ObserveOutbound("twiml", "ok")
	m.ObserveWebhookLatency(1)
}
