// Package correction adjusts p-value vectors for multiple comparisons.
//
// Every method works on the finite p-values sorted ascending. NaN entries are
// excluded from ranking (they sort to the end), stay NaN in the output, and
// still count towards the family size m, so a missing test never makes the
// remaining adjustments less conservative.
package correction

import (
	"math"
	"sort"

	"genexpr/domain/core"
	"genexpr/domain/stats"
)

// adjuster maps ascending finite p-values to adjusted values in the same
// order, for a family of n tests (n >= len(p)).
type adjuster func(p []float64, n int) []float64

var adjusters = map[stats.CorrectionMethod]adjuster{
	stats.MethodNone:       identity,
	stats.MethodHolm:       holm,
	stats.MethodBonferroni: bonferroni,
	stats.MethodHochberg:   hochberg,
	stats.MethodHommel:     hommel,
	stats.MethodBH:         benjaminiHochberg,
	stats.MethodBY:         benjaminiYekutieli,
}

// Supported reports whether the dispatch table has an entry for method.
func Supported(method stats.CorrectionMethod) bool {
	_, ok := adjusters[method]
	return ok
}

// Adjust returns the adjusted p-values for method, aligned with p.
// The input is not modified.
func Adjust(p []float64, method stats.CorrectionMethod) ([]float64, error) {
	adjust, ok := adjusters[method]
	if !ok {
		return nil, core.NewUnknownCorrectionMethodError(string(method))
	}

	order := make([]int, 0, len(p))
	for i, v := range p {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 1 {
			return nil, core.NewInvalidPValueError(i, v)
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })

	sorted := make([]float64, len(order))
	for k, i := range order {
		sorted[k] = p[i]
	}

	out := make([]float64, len(p))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(sorted) == 0 {
		return out, nil
	}

	adjusted := adjust(sorted, len(p))
	for k, i := range order {
		out[i] = adjusted[k]
	}
	return out, nil
}

// AdjustAll applies each method to the same raw vector.
func AdjustAll(p []float64, methods ...stats.CorrectionMethod) ([]stats.CorrectedPValues, error) {
	out := make([]stats.CorrectedPValues, 0, len(methods))
	for _, m := range methods {
		values, err := Adjust(p, m)
		if err != nil {
			return nil, err
		}
		out = append(out, stats.CorrectedPValues{Method: m, Values: values})
	}
	return out, nil
}

func identity(p []float64, _ int) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}

func bonferroni(p []float64, n int) []float64 {
	out := make([]float64, len(p))
	for k, v := range p {
		out[k] = math.Min(1, float64(n)*v)
	}
	return out
}

// holm is the step-down Bonferroni: (n-i+1)*p_(i), running max upward.
func holm(p []float64, n int) []float64 {
	out := make([]float64, len(p))
	running := 0.0
	for k, v := range p {
		running = math.Max(running, float64(n-k)*v)
		out[k] = math.Min(1, running)
	}
	return out
}

// hochberg is the step-up counterpart of holm: running min from the largest.
func hochberg(p []float64, n int) []float64 {
	out := make([]float64, len(p))
	running := math.Inf(1)
	for k := len(p) - 1; k >= 0; k-- {
		running = math.Min(running, float64(n-k)*p[k])
		out[k] = math.Min(1, running)
	}
	return out
}

func benjaminiHochberg(p []float64, n int) []float64 {
	return stepUp(p, n, 1)
}

// benjaminiYekutieli scales BH by the harmonic number H_n, valid under
// arbitrary dependence between tests.
func benjaminiYekutieli(p []float64, n int) []float64 {
	return stepUp(p, n, harmonic(n))
}

// stepUp computes min(1, cummin_{j>=i}(scale * n/j * p_(j))).
func stepUp(p []float64, n int, scale float64) []float64 {
	out := make([]float64, len(p))
	running := math.Inf(1)
	for k := len(p) - 1; k >= 0; k-- {
		running = math.Min(running, scale*float64(n)/float64(k+1)*p[k])
		out[k] = math.Min(1, running)
	}
	return out
}

func harmonic(n int) float64 {
	h := 0.0
	for k := 1; k <= n; k++ {
		h += 1 / float64(k)
	}
	return h
}

// hommel implements Hommel's closed-testing adjustment. Tests beyond len(p)
// in the family are treated as p = 1.
func hommel(p []float64, n int) []float64 {
	if n == 2 {
		return hochberg(p, n)
	}

	// 1-based working copies keep the indices close to the textbook form.
	ps := make([]float64, n+1)
	copy(ps[1:], p)
	for i := len(p) + 1; i <= n; i++ {
		ps[i] = 1
	}

	start := math.Inf(1)
	for i := 1; i <= n; i++ {
		start = math.Min(start, float64(n)*ps[i]/float64(i))
	}
	q := make([]float64, n+1)
	pa := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		q[i], pa[i] = start, start
	}

	for m := n - 1; m >= 2; m-- {
		q1 := math.Inf(1)
		for k := 2; k <= m; k++ {
			q1 = math.Min(q1, float64(m)*ps[n-m+k]/float64(k))
		}
		for i := 1; i <= n-m+1; i++ {
			q[i] = math.Min(float64(m)*ps[i], q1)
		}
		for i := n - m + 2; i <= n; i++ {
			q[i] = q[n-m+1]
		}
		for i := 1; i <= n; i++ {
			pa[i] = math.Max(pa[i], q[i])
		}
	}

	out := make([]float64, len(p))
	for k := range out {
		out[k] = math.Min(1, math.Max(pa[k+1], ps[k+1]))
	}
	return out
}
