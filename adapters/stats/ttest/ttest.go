// Package ttest implements the two-sided two-sample Student's t-test used for
// per-gene group comparisons.
package ttest

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	domainstats "genexpr/domain/stats"
)

// Result is the outcome of a two-sample t-test.
// When Degenerate is set, T and P are NaN.
type Result struct {
	T          float64
	DoF        float64
	P          float64
	MeanA      float64
	MeanB      float64
	VarA       float64
	VarB       float64
	NA         int
	NB         int
	Degenerate domainstats.WarningCode
}

// Finite returns the finite values of xs in order.
func Finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// TwoSample compares the means of a and b. Non-finite values are dropped first.
// Fewer than two finite values in either group, or a zero standard error,
// yields a degenerate result with NaN statistic and p-value.
func TwoSample(a, b []float64, assumption domainstats.VarianceAssumption) Result {
	a, b = Finite(a), Finite(b)
	r := Result{NA: len(a), NB: len(b), T: math.NaN(), P: math.NaN(), DoF: math.NaN()}

	if r.NA < 2 || r.NB < 2 {
		r.MeanA, r.MeanB = mean(a), mean(b)
		r.Degenerate = domainstats.WarningLowN
		return r
	}

	r.MeanA, r.MeanB = mean(a), mean(b)
	r.VarA, r.VarB = sampleVariance(a), sampleVariance(b)

	n1, n2 := float64(r.NA), float64(r.NB)

	var se float64
	switch assumption {
	case domainstats.VariancePooled:
		pooled := ((n1-1)*r.VarA + (n2-1)*r.VarB) / (n1 + n2 - 2)
		se = math.Sqrt(pooled * (1/n1 + 1/n2))
		r.DoF = n1 + n2 - 2
	default:
		// Welch-Satterthwaite
		sa, sb := r.VarA/n1, r.VarB/n2
		se = math.Sqrt(sa + sb)
		r.DoF = (sa + sb) * (sa + sb) / (sa*sa/(n1-1) + sb*sb/(n2-1))
	}

	if se == 0 || math.IsNaN(se) {
		r.DoF = math.NaN()
		r.Degenerate = domainstats.WarningZeroVariance
		return r
	}

	r.T = (r.MeanA - r.MeanB) / se
	r.P = PValue(r.T, r.DoF)
	return r
}

// PValue returns the two-sided p-value of t under Student's t with df degrees
// of freedom. The lower tail is used directly to keep precision for large |t|.
func PValue(t, df float64) float64 {
	if math.IsNaN(t) || math.IsNaN(df) || df <= 0 {
		return math.NaN()
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * tDist.CDF(-math.Abs(t))
	if p > 1 {
		p = 1
	}
	return p
}

func mean(xs []float64) float64 {
	m, err := stats.Mean(xs)
	if err != nil {
		return math.NaN()
	}
	return m
}

func sampleVariance(xs []float64) float64 {
	v, err := stats.SampleVariance(xs)
	if err != nil {
		return math.NaN()
	}
	return v
}
