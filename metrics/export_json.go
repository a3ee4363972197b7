package metrics

import "encoding/json"

// jsonFunctionReport is one function's aggregated statistics in the
// JSON export format.
type jsonFunctionReport struct {
	FunctionID string            `json:"function_id"`
	Total      int               `json:"total"`
	Duration   DurationStats     `json:"duration"`
	ErrorRate  float64           `json:"error_rate"`
	ColdStart  ColdStartStats    `json:"cold_start"`
	Memory     *MemoryStats      `json:"memory,omitempty"`
	RateLimit  map[string]int64  `json:"rate_limit_by_source,omitempty"`
}

// ExportJSON renders the sink's current state as an indented JSON
// document, one entry per function.
func ExportJSON(s *Sink) ([]byte, error) {
	reports := make([]jsonFunctionReport, 0, len(s.FunctionIDs()))
	for _, fn := range s.FunctionIDs() {
		mem := s.MemoryStats(fn)
		report := jsonFunctionReport{
			FunctionID: fn,
			Total:      s.Total(fn),
			Duration:   s.DurationStats(fn),
			ErrorRate:  s.ErrorRate(fn),
			ColdStart:  s.ColdStartStats(fn),
		}
		if mem.SampleCount > 0 {
			report.Memory = &mem
		}
		if rl := s.RateLimitStats(fn); len(rl.BySource) > 0 {
			report.RateLimit = rl.BySource
		}
		reports = append(reports, report)
	}

	return json.MarshalIndent(reports, "", "  ")
}
