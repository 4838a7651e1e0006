package stats

import (
	"math"

	"genexpr/domain/dataset"
)

// MultiTestResult holds the per-gene tests plus every requested adjustment,
// all aligned with the matrix columns.
type MultiTestResult struct {
	Partition dataset.GroupPartition `json:"partition"`
	Variance  VarianceAssumption     `json:"variance"`
	Tests     []FeatureTest          `json:"tests"`
	Raw       []float64              `json:"raw"`
	Corrected []CorrectedPValues     `json:"corrected"`
}

// Adjusted returns the vector for method, if it was computed.
func (r *MultiTestResult) Adjusted(method CorrectionMethod) ([]float64, bool) {
	for _, c := range r.Corrected {
		if c.Method == method {
			return c.Values, true
		}
	}
	return nil, false
}

// Summarize counts rejections at alpha for the raw vector and every
// adjusted vector, in that order.
func (r *MultiTestResult) Summarize(alpha float64) []RejectionSummary {
	tested := 0
	for _, p := range r.Raw {
		if !math.IsNaN(p) {
			tested++
		}
	}
	out := []RejectionSummary{{
		Method:    MethodNone,
		ErrorRate: ErrorRateNone,
		Alpha:     alpha,
		Rejected:  Rejections(r.Raw, alpha),
		Tested:    tested,
	}}
	for _, c := range r.Corrected {
		if c.Method == MethodNone {
			continue
		}
		out = append(out, RejectionSummary{
			Method:    c.Method,
			ErrorRate: c.Method.Controls(),
			Alpha:     alpha,
			Rejected:  Rejections(c.Values, alpha),
			Tested:    tested,
		})
	}
	return out
}
