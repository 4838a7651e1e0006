package ports

import (
	"context"

	"genexpr/domain/dataset"
	"genexpr/domain/stats"
)

// MultiTestPort runs per-gene two-sample tests and multiple-comparison corrections
type MultiTestPort interface {
	// ComputeAll tests every column once and applies each method to the raw vector.
	ComputeAll(ctx context.Context, matrix dataset.FeatureMatrix, labels dataset.GroupLabels, methods ...stats.CorrectionMethod) (*stats.MultiTestResult, error)
}
