package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genexpr/domain/core"
)

func sampleDataset() *Dataset {
	return &Dataset{
		Expression: NewFeatureMatrix([][]float64{
			{1, 10, 100},
			{2, 20, 200},
			{3, 30, 300},
			{4, 40, 400},
		}, []core.GeneKey{"H08393", "M26383", "R87126"}),
		Status: GroupLabels{"tumor", "normal", "tumor", "normal"},
		Source: "memory",
	}
}

func TestFeatureMatrixValidate(t *testing.T) {
	ds := sampleDataset()
	require.NoError(t, ds.Validate())

	rows, cols := ds.Expression.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)

	ragged := NewFeatureMatrix([][]float64{{1, 2}, {3}}, nil)
	assert.ErrorIs(t, ragged.Validate(), core.ErrShapeMismatch)

	empty := NewFeatureMatrix(nil, nil)
	assert.ErrorIs(t, empty.Validate(), core.ErrInsufficientData)

	noCols := NewFeatureMatrix([][]float64{{}, {}}, nil)
	assert.ErrorIs(t, noCols.Validate(), core.ErrInsufficientData)

	badNames := NewFeatureMatrix([][]float64{{1, 2}}, []core.GeneKey{"a"})
	assert.ErrorIs(t, badNames.Validate(), core.ErrShapeMismatch)
}

func TestDatasetValidateLabelCount(t *testing.T) {
	ds := sampleDataset()
	ds.Status = ds.Status[:3]
	assert.ErrorIs(t, ds.Validate(), core.ErrShapeMismatch)
}

func TestColumnAccess(t *testing.T) {
	m := sampleDataset().Expression

	assert.Equal(t, []float64{10, 20, 30, 40}, m.Column(1))
	assert.Equal(t, []float64{200, 400}, m.ColumnAt([]int{1, 3}, 2))

	col := m.Column(0)
	col[0] = -1
	assert.Equal(t, 1.0, m.Data[0][0], "Column must copy")

	idx, ok := m.GeneIndex("R87126")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	unnamed := NewFeatureMatrix([][]float64{{1, 2}}, nil)
	assert.Equal(t, core.GeneKey("gene_0002"), unnamed.Gene(1))
}

func TestPartitionLexicalEncoding(t *testing.T) {
	labels := GroupLabels{"tumor", "normal", "tumor", "normal", "tumor"}

	p, err := Partition(labels, 5, "")
	require.NoError(t, err)
	assert.Equal(t, "normal", p.LabelA)
	assert.Equal(t, "tumor", p.LabelB)
	assert.Equal(t, []int{1, 3}, p.RowsA)
	assert.Equal(t, []int{0, 2, 4}, p.RowsB)

	// Encoding does not depend on first appearance.
	reversed := GroupLabels{"normal", "tumor", "normal", "tumor", "tumor"}
	p2, err := Partition(reversed, 5, "")
	require.NoError(t, err)
	assert.Equal(t, "normal", p2.LabelA)
}

func TestPartitionReferenceGroup(t *testing.T) {
	labels := GroupLabels{"tumor", "normal", "tumor"}

	p, err := Partition(labels, 3, "tumor")
	require.NoError(t, err)
	assert.Equal(t, "tumor", p.LabelA)
	assert.Equal(t, []int{0, 2}, p.RowsA)
	assert.Equal(t, []int{1}, p.Rows("normal"))
	assert.Nil(t, p.Rows("adenoma"))

	_, err = Partition(labels, 3, "adenoma")
	assert.ErrorIs(t, err, core.ErrUnknownReferenceGroup)
}

func TestPartitionErrors(t *testing.T) {
	_, err := Partition(GroupLabels{"a", "b"}, 3, "")
	assert.ErrorIs(t, err, core.ErrShapeMismatch)

	_, err = Partition(GroupLabels{"a", "b", "c"}, 3, "")
	assert.ErrorIs(t, err, core.ErrInvalidGroupCount)

	_, err = Partition(GroupLabels{"a", "a"}, 2, "")
	assert.ErrorIs(t, err, core.ErrInvalidGroupCount)
}

func TestFingerprint(t *testing.T) {
	a := sampleDataset()
	b := sampleDataset()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Expression.Data[2][1] = math.NaN()
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c := sampleDataset()
	c.Status[0] = "normal"
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
