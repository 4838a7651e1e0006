package stats

import (
	"fmt"
	"math"
	"strings"

	"genexpr/domain/core"
)

// ============================================================================
// CORRECTION METHODS (closed enumeration)
// ============================================================================

// CorrectionMethod names a multiple-comparison p-value adjustment.
type CorrectionMethod string

const (
	MethodNone       CorrectionMethod = "none"
	MethodHolm       CorrectionMethod = "holm"
	MethodBonferroni CorrectionMethod = "bonferroni"
	MethodHochberg   CorrectionMethod = "hochberg"
	MethodHommel     CorrectionMethod = "hommel"
	MethodBH         CorrectionMethod = "BH" // Benjamini-Hochberg
	MethodBY         CorrectionMethod = "BY" // Benjamini-Yekutieli
)

// ErrorRate is the family error rate a correction method controls.
type ErrorRate string

const (
	ErrorRateNone ErrorRate = "none"
	ErrorRateFWER ErrorRate = "FWER"
	ErrorRateFDR  ErrorRate = "FDR"
)

var methodErrorRates = map[CorrectionMethod]ErrorRate{
	MethodNone:       ErrorRateNone,
	MethodHolm:       ErrorRateFWER,
	MethodBonferroni: ErrorRateFWER,
	MethodHochberg:   ErrorRateFWER,
	MethodHommel:     ErrorRateFWER,
	MethodBH:         ErrorRateFDR,
	MethodBY:         ErrorRateFDR,
}

var methodAliases = map[string]CorrectionMethod{
	"none":       MethodNone,
	"identity":   MethodNone,
	"holm":       MethodHolm,
	"bonferroni": MethodBonferroni,
	"hochberg":   MethodHochberg,
	"hommel":     MethodHommel,
	"bh":         MethodBH,
	"fdr":        MethodBH,
	"fdr_bh":     MethodBH,
	"by":         MethodBY,
	"fdr_by":     MethodBY,
}

// AllMethods returns every supported correction method in a stable order.
func AllMethods() []CorrectionMethod {
	return []CorrectionMethod{
		MethodNone,
		MethodHolm,
		MethodBonferroni,
		MethodHochberg,
		MethodHommel,
		MethodBH,
		MethodBY,
	}
}

// ParseCorrectionMethod resolves a tag (case-insensitive, with common aliases).
func ParseCorrectionMethod(tag string) (CorrectionMethod, error) {
	if m, ok := methodAliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return m, nil
	}
	return "", core.NewUnknownCorrectionMethodError(tag)
}

// ParseCorrectionMethods parses a comma separated list, dropping duplicates.
func ParseCorrectionMethods(list string) ([]CorrectionMethod, error) {
	var methods []CorrectionMethod
	seen := make(map[CorrectionMethod]bool)
	for _, tag := range strings.Split(list, ",") {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		m, err := ParseCorrectionMethod(tag)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			methods = append(methods, m)
		}
	}
	return methods, nil
}

// Valid reports whether m is a member of the enumeration.
func (m CorrectionMethod) Valid() bool {
	_, ok := methodErrorRates[m]
	return ok
}

// Controls returns the error rate the method controls.
func (m CorrectionMethod) Controls() ErrorRate {
	return methodErrorRates[m]
}

func (m CorrectionMethod) String() string {
	return string(m)
}

// ============================================================================
// TEST CONFIGURATION
// ============================================================================

// VarianceAssumption selects the two-sample t-test form.
type VarianceAssumption string

const (
	VarianceWelch  VarianceAssumption = "welch"  // unequal variances, Welch-Satterthwaite df
	VariancePooled VarianceAssumption = "pooled" // equal variances, n1+n2-2 df
)

// ParseVarianceAssumption parses "welch" or "pooled" (alias "equal").
func ParseVarianceAssumption(s string) (VarianceAssumption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "welch", "unequal":
		return VarianceWelch, nil
	case "pooled", "equal", "student":
		return VariancePooled, nil
	}
	return "", fmt.Errorf("unknown variance assumption %q (want welch|pooled)", s)
}

// WarningCode represents structured warning types
type WarningCode string

const (
	WarningLowN         WarningCode = "LOW_N"         // fewer than 2 finite values in a group
	WarningZeroVariance WarningCode = "ZERO_VARIANCE" // standard error is zero, statistic undefined
)

// ============================================================================
// RESULTS
// ============================================================================

// FeatureTest is the per-gene two-sample test outcome.
// PValue is NaN when Skipped is true.
type FeatureTest struct {
	Index      int          `json:"index"`
	Gene       core.GeneKey `json:"gene"`
	T          float64      `json:"t"`
	DoF        float64      `json:"dof"`
	PValue     float64      `json:"p_value"`
	MeanA      float64      `json:"mean_a"`
	MeanB      float64      `json:"mean_b"`
	NA         int          `json:"n_a"`
	NB         int          `json:"n_b"`
	Skipped    bool         `json:"skipped"`
	SkipReason WarningCode  `json:"skip_reason,omitempty"`
}

// CorrectedPValues holds one adjusted vector, aligned with the input features.
type CorrectedPValues struct {
	Method CorrectionMethod `json:"method"`
	Values []float64        `json:"values"`
}

// Rejections counts entries strictly below alpha. NaN is never rejected.
func Rejections(p []float64, alpha float64) int {
	n := 0
	for _, v := range p {
		if !math.IsNaN(v) && v < alpha {
			n++
		}
	}
	return n
}

// RejectionSummary is the per-method count of significant genes at Alpha.
type RejectionSummary struct {
	Method    CorrectionMethod `json:"method"`
	ErrorRate ErrorRate        `json:"error_rate"`
	Alpha     float64          `json:"alpha"`
	Rejected  int              `json:"rejected"`
	Tested    int              `json:"tested"`
}
