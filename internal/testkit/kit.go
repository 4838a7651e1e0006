// Package testkit provides deterministic synthetic expression data for tests,
// demos and the simulate command.
package testkit

import (
	"math"

	"genexpr/domain/core"
	"genexpr/domain/dataset"
)

// SmallDataset is a hand-written 6-sample, 4-gene dataset with known structure:
// gene 0 differs strongly between groups, gene 1 does not, gene 2 is constant
// with equal means in both groups, gene 3 has a missing cell.
func SmallDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Expression: dataset.NewFeatureMatrix([][]float64{
			{10.1, 5.0, 3, 1.0},
			{1.2, 5.2, 3, 2.0},
			{10.4, 4.9, 3, math.NaN()},
			{0.9, 5.1, 3, 2.5},
			{9.8, 5.3, 3, 1.5},
			{1.1, 4.8, 3, 2.2},
		}, []core.GeneKey{"DE", "FLAT", "CONST", "GAPPY"}),
		Status: dataset.GroupLabels{"tumor", "normal", "tumor", "normal", "tumor", "normal"},
		Source: "testkit:small",
	}
}
