// Package correlation computes gene-gene Pearson correlation structure
// separately within each tissue group.
package correlation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"genexpr/domain/core"
	"genexpr/domain/dataset"
)

// GroupCorrelation holds one correlation matrix per group over the same genes.
type GroupCorrelation struct {
	Genes     []core.GeneKey
	LabelA    string
	LabelB    string
	A         *mat.SymDense
	B         *mat.SymDense
	RowsUsedA int
	RowsUsedB int
}

// Pair is one off-diagonal entry of a correlation matrix.
type Pair struct {
	I     int          `json:"i"`
	J     int          `json:"j"`
	GeneI core.GeneKey `json:"gene_i"`
	GeneJ core.GeneKey `json:"gene_j"`
	R     float64      `json:"r"`
}

// WithinGroups correlates the selected columns over group A rows and over
// group B rows independently.
func WithinGroups(m dataset.FeatureMatrix, p dataset.GroupPartition, columns []int) (*GroupCorrelation, error) {
	a, usedA, err := Matrix(m, p.RowsA, columns)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", p.LabelA, err)
	}
	b, usedB, err := Matrix(m, p.RowsB, columns)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", p.LabelB, err)
	}

	genes := make([]core.GeneKey, len(columns))
	for k, j := range columns {
		genes[k] = m.Gene(j)
	}

	return &GroupCorrelation{
		Genes:     genes,
		LabelA:    p.LabelA,
		LabelB:    p.LabelB,
		A:         a,
		B:         b,
		RowsUsedA: usedA,
		RowsUsedB: usedB,
	}, nil
}

// Matrix returns the Pearson correlation of the given columns over the given
// rows. Rows with a non-finite value in any selected column are dropped
// (complete cases only); the number of rows used is returned.
// A constant column yields NaN entries in its row and column.
func Matrix(m dataset.FeatureMatrix, rows []int, columns []int) (*mat.SymDense, int, error) {
	if len(columns) < 2 {
		return nil, 0, fmt.Errorf("%w: need at least 2 genes, got %d", core.ErrInsufficientData, len(columns))
	}
	_, cols := m.Dims()
	for _, j := range columns {
		if j < 0 || j >= cols {
			return nil, 0, core.NewShapeMismatchError(fmt.Sprintf("column index %d", j), cols, j)
		}
	}

	complete := make([]float64, 0, len(rows)*len(columns))
	used := 0
	for _, i := range rows {
		ok := true
		for _, j := range columns {
			v := m.Data[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, j := range columns {
			complete = append(complete, m.Data[i][j])
		}
		used++
	}
	if used < 3 {
		return nil, used, fmt.Errorf("%w: %d complete rows, need 3", core.ErrInsufficientData, used)
	}

	x := mat.NewDense(used, len(columns), complete)
	corr := mat.NewSymDense(len(columns), nil)
	stat.CorrelationMatrix(corr, x, nil)
	return corr, used, nil
}

// TopPairs returns the k off-diagonal pairs with the largest |r|, strongest
// first. NaN entries are skipped. k <= 0 returns every pair.
func TopPairs(corr *mat.SymDense, genes []core.GeneKey, k int) []Pair {
	n := corr.SymmetricDim()
	var pairs []Pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := corr.At(i, j)
			if math.IsNaN(r) {
				continue
			}
			pair := Pair{I: i, J: j, R: r}
			if i < len(genes) && j < len(genes) {
				pair.GeneI, pair.GeneJ = genes[i], genes[j]
			}
			pairs = append(pairs, pair)
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return math.Abs(pairs[a].R) > math.Abs(pairs[b].R) })
	if k > 0 && len(pairs) > k {
		pairs = pairs[:k]
	}
	return pairs
}

// MeanAbsolute is the mean |r| over finite off-diagonal entries.
func MeanAbsolute(corr *mat.SymDense) float64 {
	n := corr.SymmetricDim()
	sum, count := 0.0, 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r := corr.At(i, j); !math.IsNaN(r) {
				sum += math.Abs(r)
				count++
			}
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}
