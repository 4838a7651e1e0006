package correlation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genexpr/domain/core"
	"genexpr/domain/dataset"
)

// Group A rows: genes 0 and 1 move together, gene 2 moves against them.
// Group B rows: gene 0 and 1 move against each other.
func fixture() (dataset.FeatureMatrix, dataset.GroupPartition) {
	m := dataset.NewFeatureMatrix([][]float64{
		{1, 2, 9, 5},
		{2, 4, 7, 5},
		{3, 6, 5, 5},
		{4, 8, 3, 5},
		{1, 8, 2, 5},
		{2, 6, 4, 5},
		{3, 4, 1, 5},
		{4, 2, 3, 5},
	}, []core.GeneKey{"g1", "g2", "g3", "const"})
	p := dataset.GroupPartition{
		LabelA: "normal", LabelB: "tumor",
		RowsA: []int{0, 1, 2, 3},
		RowsB: []int{4, 5, 6, 7},
	}
	return m, p
}

func TestWithinGroups(t *testing.T) {
	m, p := fixture()

	gc, err := WithinGroups(m, p, []int{0, 1, 2})
	require.NoError(t, err)

	assert.Equal(t, []core.GeneKey{"g1", "g2", "g3"}, gc.Genes)
	assert.Equal(t, 4, gc.RowsUsedA)
	assert.InDelta(t, 1.0, gc.A.At(0, 1), 1e-12)
	assert.InDelta(t, -1.0, gc.A.At(0, 2), 1e-12)
	assert.InDelta(t, -1.0, gc.B.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, gc.A.At(2, 2), 1e-12)
}

func TestMatrixDropsIncompleteRows(t *testing.T) {
	m, p := fixture()
	m.Data[1][0] = math.NaN()

	corr, used, err := Matrix(m, p.RowsA, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, used)
	assert.InDelta(t, 1.0, corr.At(0, 1), 1e-12)
}

func TestMatrixErrors(t *testing.T) {
	m, p := fixture()

	_, _, err := Matrix(m, p.RowsA, []int{0})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, _, err = Matrix(m, p.RowsA, []int{0, 9})
	assert.ErrorIs(t, err, core.ErrShapeMismatch)

	_, _, err = Matrix(m, p.RowsA[:2], []int{0, 1})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestTopPairsSkipsConstantGene(t *testing.T) {
	m, p := fixture()

	corr, _, err := Matrix(m, p.RowsA, []int{0, 1, 2, 3})
	require.NoError(t, err)

	pairs := TopPairs(corr, []core.GeneKey{"g1", "g2", "g3", "const"}, 0)
	require.Len(t, pairs, 3)
	for _, pair := range pairs {
		assert.NotEqual(t, core.GeneKey("const"), pair.GeneJ)
		assert.InDelta(t, 1.0, math.Abs(pair.R), 1e-12)
	}

	top := TopPairs(corr, nil, 1)
	assert.Len(t, top, 1)

	assert.InDelta(t, 1.0, MeanAbsolute(corr), 1e-12)
}
