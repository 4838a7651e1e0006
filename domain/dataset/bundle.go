package dataset

import (
	"fmt"

	"genexpr/domain/core"
)

// FeatureMatrix is dense expression data: rows are samples, columns are genes.
// It is owned by the caller and never modified by the analysis.
type FeatureMatrix struct {
	Data  [][]float64    // rows=samples, cols=genes
	Genes []core.GeneKey // optional column names, len 0 or len(cols)
}

// NewFeatureMatrix wraps rows of data with optional gene names
func NewFeatureMatrix(data [][]float64, genes []core.GeneKey) FeatureMatrix {
	return FeatureMatrix{Data: data, Genes: genes}
}

// Dims returns (samples, genes). Column count is taken from the first row.
func (m FeatureMatrix) Dims() (rows, cols int) {
	rows = len(m.Data)
	if rows > 0 {
		cols = len(m.Data[0])
	}
	return rows, cols
}

// Validate ensures the matrix is non-empty and rectangular
func (m FeatureMatrix) Validate() error {
	rows, cols := m.Dims()
	if rows == 0 {
		return fmt.Errorf("%w: matrix has no rows", core.ErrInsufficientData)
	}
	if cols == 0 {
		return fmt.Errorf("%w: matrix has no columns", core.ErrInsufficientData)
	}
	for i, row := range m.Data {
		if len(row) != cols {
			return core.NewShapeMismatchError(fmt.Sprintf("row %d column count", i), cols, len(row))
		}
	}
	if len(m.Genes) != 0 && len(m.Genes) != cols {
		return core.NewShapeMismatchError("gene name count", cols, len(m.Genes))
	}
	return nil
}

// Gene returns the name of column j, or a positional default.
func (m FeatureMatrix) Gene(j int) core.GeneKey {
	if j < len(m.Genes) && m.Genes[j] != "" {
		return m.Genes[j]
	}
	return core.DefaultGeneKey(j)
}

// GeneIndex returns the column index for a gene name
func (m FeatureMatrix) GeneIndex(gene core.GeneKey) (int, bool) {
	_, cols := m.Dims()
	for j := 0; j < cols; j++ {
		if m.Gene(j) == gene {
			return j, true
		}
	}
	return -1, false
}

// Column returns a copy of column j
func (m FeatureMatrix) Column(j int) []float64 {
	col := make([]float64, len(m.Data))
	for i, row := range m.Data {
		col[i] = row[j]
	}
	return col
}

// ColumnAt returns column j restricted to the given rows, in row order.
func (m FeatureMatrix) ColumnAt(rows []int, j int) []float64 {
	col := make([]float64, len(rows))
	for k, i := range rows {
		col[k] = m.Data[i][j]
	}
	return col
}

// Dataset mirrors the serialized two-field structure: an expression matrix and
// a parallel status label vector.
type Dataset struct {
	Expression FeatureMatrix
	Status     GroupLabels
	Source     string
}

// Validate ensures the matrix is well formed and labels line up with its rows
func (d *Dataset) Validate() error {
	if err := d.Expression.Validate(); err != nil {
		return err
	}
	rows, _ := d.Expression.Dims()
	if len(d.Status) != rows {
		return core.NewShapeMismatchError("status label count", rows, len(d.Status))
	}
	return nil
}

// Fingerprint hashes the shape, labels, gene names and values of the dataset.
func (d *Dataset) Fingerprint() core.Hash {
	rows, cols := d.Expression.Dims()
	f := core.NewFingerprinter().Int(rows).Int(cols)
	for _, label := range d.Status {
		f.String(label)
	}
	for j := 0; j < cols; j++ {
		f.String(d.Expression.Gene(j).String())
	}
	for _, row := range d.Expression.Data {
		for _, v := range row {
			f.Float(v)
		}
	}
	return f.Sum()
}
