package metrics

import (
	"fmt"
	"sort"
	"strings"
)

// ExportPrometheus renders the sink's current state as Prometheus text
// exposition format.
func ExportPrometheus(s *Sink) string {
	var b strings.Builder
	writeMetricFamilies(&b, s, false)
	return b.String()
}

func writeMetricFamilies(b *strings.Builder, s *Sink, openMetrics bool) {
	counterSuffix := ""
	if openMetrics {
		counterSuffix = "_total"
	}

	writeHelp(b, "cascade_function_duration_ms", "gauge", "Invocation duration statistics in milliseconds.")
	for _, fn := range s.FunctionIDs() {
		d := s.DurationStats(fn)
		writeGauge(b, "cascade_function_duration_ms", map[string]string{"function_id": fn, "stat": "min"}, d.Min)
		writeGauge(b, "cascade_function_duration_ms", map[string]string{"function_id": fn, "stat": "max"}, d.Max)
		writeGauge(b, "cascade_function_duration_ms", map[string]string{"function_id": fn, "stat": "mean"}, d.Mean)
		writeGauge(b, "cascade_function_duration_ms", map[string]string{"function_id": fn, "stat": "p50"}, d.P50)
		writeGauge(b, "cascade_function_duration_ms", map[string]string{"function_id": fn, "stat": "p95"}, d.P95)
		writeGauge(b, "cascade_function_duration_ms", map[string]string{"function_id": fn, "stat": "p99"}, d.P99)
	}

	writeHelp(b, "cascade_function_invocations"+counterSuffix, "counter", "Total recorded invocations.")
	for _, fn := range s.FunctionIDs() {
		writeGauge(b, "cascade_function_invocations"+counterSuffix, map[string]string{"function_id": fn}, float64(s.Total(fn)))
	}

	writeHelp(b, "cascade_function_error_rate", "gauge", "Failure fraction within the current window.")
	for _, fn := range s.FunctionIDs() {
		writeGauge(b, "cascade_function_error_rate", map[string]string{"function_id": fn}, s.ErrorRate(fn))
	}

	writeHelp(b, "cascade_function_cold_start_rate", "gauge", "Fraction of invocations that were cold starts.")
	for _, fn := range s.FunctionIDs() {
		writeGauge(b, "cascade_function_cold_start_rate", map[string]string{"function_id": fn}, s.ColdStartStats(fn).Rate)
	}

	writeHelp(b, "cascade_function_memory_bytes", "gauge", "Memory usage statistics in bytes.")
	for _, fn := range s.FunctionIDs() {
		mem := s.MemoryStats(fn)
		if mem.SampleCount == 0 {
			continue
		}
		writeGauge(b, "cascade_function_memory_bytes", map[string]string{"function_id": fn, "stat": "mean"}, mem.Mean)
		writeGauge(b, "cascade_function_memory_bytes", map[string]string{"function_id": fn, "stat": "min"}, mem.Min)
		writeGauge(b, "cascade_function_memory_bytes", map[string]string{"function_id": fn, "stat": "max"}, mem.Max)
	}

	writeHelp(b, "cascade_function_rate_limit_hits"+counterSuffix, "counter", "Rate-limit rejections by source.")
	for _, fn := range s.FunctionIDs() {
		rl := s.RateLimitStats(fn)
		for source, count := range rl.BySource {
			writeGauge(b, "cascade_function_rate_limit_hits"+counterSuffix, map[string]string{"function_id": fn, "source": source}, float64(count))
		}
	}
}

func writeHelp(b *strings.Builder, name, kind, help string) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, kind)
}

func writeGauge(b *strings.Builder, name string, labels map[string]string, value float64) {
	b.WriteString(name)
	b.WriteString(formatLabels(labels))
	fmt.Fprintf(b, " %v\n", value)
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := sortedKeys(labels)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, k, escapeLabelValue(labels[k])))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// escapeLabelValue applies Prometheus/OpenMetrics text-format escaping:
// backslash, double quote, and newline.
func escapeLabelValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	return v
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
