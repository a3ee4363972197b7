package metrics

import "strings"

// ExportOpenMetrics renders the sink's current state as OpenMetrics —
// the same families as ExportPrometheus but with counter metrics
// carrying the required "_total" suffix and the text terminated by the
// mandatory "# EOF" line.
func ExportOpenMetrics(s *Sink) string {
	var b strings.Builder
	writeMetricFamilies(&b, s, true)
	b.WriteString("# EOF\n")
	return b.String()
}
