package metrics

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordN(s *Sink, fn string, n int, success bool, cold bool) {
	for i := 0; i < n; i++ {
		s.Record(Invocation{
			FunctionID: fn,
			Language:   "go",
			DurationMs: float64(10 * (i + 1)),
			Success:    success,
			ColdStart:  cold,
			Timestamp:  time.Now(),
		})
	}
}

func TestSink_DurationStats(t *testing.T) {
	s := NewSink()
	recordN(s, "fn-a", 10, true, false)

	stats := s.DurationStats("fn-a")
	assert.Equal(t, 10.0, stats.Min)
	assert.Equal(t, 100.0, stats.Max)
	assert.Equal(t, 10, stats.SampleCount)
	assert.GreaterOrEqual(t, stats.P99, stats.P50)
}

func TestSink_ErrorRate(t *testing.T) {
	s := NewSink()
	recordN(s, "fn-a", 6, true, false)
	recordN(s, "fn-a", 4, false, false)

	assert.InDelta(t, 0.4, s.ErrorRate("fn-a"), 0.001)
}

func TestSink_ColdStartStats(t *testing.T) {
	s := NewSink()
	recordN(s, "fn-a", 3, true, true)
	recordN(s, "fn-a", 7, true, false)

	stats := s.ColdStartStats("fn-a")
	assert.Equal(t, 3, stats.ColdCount)
	assert.Equal(t, 7, stats.WarmCount)
	assert.InDelta(t, 0.3, stats.Rate, 0.001)
}

func TestSink_WindowEvictsOldestOnOverflow(t *testing.T) {
	s := NewSinkWithCapacity(5)
	for i := 0; i < 8; i++ {
		s.Record(Invocation{FunctionID: "fn-a", DurationMs: float64(i), Success: true})
	}

	assert.Equal(t, 5, s.Total("fn-a"))
	stats := s.DurationStats("fn-a")
	assert.Equal(t, 3.0, stats.Min, "the oldest 3 records (durations 0,1,2) should have been evicted")
	assert.Equal(t, 7.0, stats.Max)
}

func TestSink_RateLimitStats(t *testing.T) {
	s := NewSink()
	s.RecordRateLimitHit("fn-a", "client-1")
	s.RecordRateLimitHit("fn-a", "client-1")
	s.RecordRateLimitHit("fn-a", "client-2")

	stats := s.RateLimitStats("fn-a")
	assert.Equal(t, int64(2), stats.BySource["client-1"])
	assert.Equal(t, int64(1), stats.BySource["client-2"])
	assert.Equal(t, 2, stats.UniqueSources)
}

func TestExportPrometheus_FormatAndEscaping(t *testing.T) {
	s := NewSink()
	recordN(s, "fn-a", 3, true, false)
	s.RecordRateLimitHit(`fn"weird\name`, "source\nwith-newline")

	out := ExportPrometheus(s)
	assert.Contains(t, out, "# HELP cascade_function_duration_ms")
	assert.Contains(t, out, "# TYPE cascade_function_duration_ms gauge")
	assert.Contains(t, out, `source="source\nwith-newline"`)
	assert.Contains(t, out, `fn\"weird\\name`)
}

func TestExportOpenMetrics_HasTotalSuffixAndEOF(t *testing.T) {
	s := NewSink()
	recordN(s, "fn-a", 3, true, false)

	out := ExportOpenMetrics(s)
	assert.True(t, strings.HasSuffix(out, "# EOF\n"))
	assert.Contains(t, out, "cascade_function_invocations_total")
}

func TestExportJSON_RoundTrips(t *testing.T) {
	s := NewSink()
	recordN(s, "fn-a", 5, true, false)

	data, err := ExportJSON(s)
	require.NoError(t, err)

	var reports []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "fn-a", reports[0]["function_id"])
}
