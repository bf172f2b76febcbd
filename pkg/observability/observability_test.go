package observability

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

func TestMetricsRecordUnit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordUnit(visibility.MentionResult{Mentioned: true, VisibilityScore: 70, Rank: visibility.RankFirst, Sentiment: visibility.SentimentPositive})
	m.RecordUnit(visibility.MentionResult{Mentioned: true, VisibilityScore: 20, Rank: visibility.RankFirst, Sentiment: visibility.SentimentPositive})
	m.RecordUnit(visibility.MentionResult{})
	m.RecordUnit(visibility.ErrorResult(visibility.EvaluationUnit{}, "timeout", "slow"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnitsTotal.WithLabelValues("ok", "true", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitsTotal.WithLabelValues("ok", "false", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitsTotal.WithLabelValues("failed", "false", "timeout")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UnitScore))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MentionsTotal.WithLabelValues("1st", "positive")))
}

func TestMetricsRecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	summary := visibility.RunSummary{MentionRate: 66.7, AverageScore: 41.3, Recommendation: visibility.RecommendationModerate}
	m.RecordRun("workexe.com", summary, 1.5)
	m.RecordCorroboration("openai-gpt-4o-mini", "ok", 0.4)
	m.RecordFetch("ok")
	m.RecordStage("evaluate", 0.002)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("Moderate")))
	assert.Equal(t, 66.7, testutil.ToFloat64(m.RunMentionRate.WithLabelValues("workexe.com")))
	assert.Equal(t, 41.3, testutil.ToFloat64(m.RunAverageScore.WithLabelValues("workexe.com")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CorroborationsTotal.WithLabelValues("openai-gpt-4o-mini", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("ok")))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordUnit(visibility.MentionResult{})
		m.RecordStage("fetch", 1)
		m.RecordFetch("ok")
		m.RecordCorroboration("p", "ok", 1)
		m.RecordRun("t", visibility.RunSummary{}, 1)
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordFetch("failed")

	path := filepath.Join(t.TempDir(), "brandlens.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `brandlens_fetches_total{status="failed"} 1`))
}

func TestTracerNoopProvider(t *testing.T) {
	tr := NewTracerFromProvider(noop.NewTracerProvider())
	ctx, run := tr.StartRunSpan(context.Background(), "run-1", "workexe.com", 3)
	defer run.End()

	_, unit := tr.StartUnitSpan(ctx, 0, "q1")
	h := NewSpanHelper(unit)
	h.SetResult(visibility.MentionResult{Mentioned: true, VisibilityScore: 50})
	h.SetSuccess()
	unit.End()

	assert.Equal(t, "", GetTraceID(ctx))
}

func TestGetTraceID(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))
}

func TestRunCompletedEvent(t *testing.T) {
	s := visibility.RunSummary{TotalUnits: 4, MentionedCount: 2, MentionRate: 50, AverageScore: 35.5, Recommendation: visibility.RecommendationModerate}
	ev := NewRunCompletedEvent("run-1", "workexe.com", s, 1500*time.Millisecond)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, int64(1500), ev.DurationMs)
	assert.False(t, ev.Timestamp.IsZero())

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "Moderate", decoded["recommendation"])
	assert.NotContains(t, decoded, "trace_id")
}

func TestUnitFailedEvent(t *testing.T) {
	r := visibility.ErrorResult(visibility.EvaluationUnit{SourceLabel: "q7"}, "fetch_failed", "status 404")
	ev := NewUnitFailedEvent("run-1", 6, r)
	assert.Equal(t, 6, ev.Position)
	assert.Equal(t, "q7", ev.SourceLabel)
	assert.Equal(t, "fetch_failed", ev.ErrorCode)
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), ChannelUnitFailed, ev))
}
