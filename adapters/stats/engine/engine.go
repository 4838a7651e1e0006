// Package engine runs per-gene two-sample tests over an expression matrix and
// corrects the resulting p-values for multiple comparisons.
package engine

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"genexpr/adapters/stats/correction"
	"genexpr/adapters/stats/ttest"
	"genexpr/domain/core"
	"genexpr/domain/dataset"
	"genexpr/domain/stats"
	"genexpr/internal"
)

// Options configures a MultiTestCorrector
type Options struct {
	// Variance selects Welch (default) or pooled-variance t-tests.
	Variance stats.VarianceAssumption
	// ReferenceGroup is the label mapped to group A. Empty means the
	// lexicographically first label.
	ReferenceGroup string
	// Workers bounds the per-gene fan-out. Values < 1 mean runtime.NumCPU().
	Workers int
}

// DefaultOptions returns Welch tests, lexical group encoding and one worker per CPU.
func DefaultOptions() Options {
	return Options{
		Variance: stats.VarianceWelch,
		Workers:  runtime.NumCPU(),
	}
}

// MultiTestCorrector computes per-gene p-values and adjusts them.
type MultiTestCorrector struct {
	opts   Options
	logger *internal.Logger
}

// NewMultiTestCorrector creates a corrector. A nil logger uses internal.DefaultLogger.
func NewMultiTestCorrector(opts Options, logger *internal.Logger) *MultiTestCorrector {
	if opts.Variance == "" {
		opts.Variance = stats.VarianceWelch
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MultiTestCorrector{opts: opts, logger: logger}
}

// Options returns the effective configuration
func (c *MultiTestCorrector) Options() Options {
	return c.opts
}

// Compute returns adjusted p-values, one per column, in column order.
func (c *MultiTestCorrector) Compute(ctx context.Context, matrix dataset.FeatureMatrix, labels dataset.GroupLabels, method stats.CorrectionMethod) ([]float64, error) {
	res, err := c.ComputeAll(ctx, matrix, labels, method)
	if err != nil {
		return nil, err
	}
	return res.Corrected[0].Values, nil
}

// RawPValues returns the uncorrected per-gene p-values.
func (c *MultiTestCorrector) RawPValues(ctx context.Context, matrix dataset.FeatureMatrix, labels dataset.GroupLabels) ([]float64, error) {
	res, err := c.ComputeAll(ctx, matrix, labels)
	if err != nil {
		return nil, err
	}
	return res.Raw, nil
}

// ComputeAll runs the per-gene tests once and applies each method to the
// collected raw vector. All inputs are validated before any test runs.
func (c *MultiTestCorrector) ComputeAll(ctx context.Context, matrix dataset.FeatureMatrix, labels dataset.GroupLabels, methods ...stats.CorrectionMethod) (*stats.MultiTestResult, error) {
	for _, m := range methods {
		if !m.Valid() || !correction.Supported(m) {
			return nil, core.NewUnknownCorrectionMethodError(string(m))
		}
	}
	if err := matrix.Validate(); err != nil {
		return nil, err
	}
	rows, cols := matrix.Dims()
	partition, err := dataset.Partition(labels, rows, c.opts.ReferenceGroup)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tests, err := c.testColumns(ctx, matrix, partition, cols)
	if err != nil {
		return nil, err
	}

	raw := make([]float64, cols)
	skipped := 0
	for j, t := range tests {
		raw[j] = t.PValue
		if t.Skipped {
			skipped++
		}
	}

	// Correction needs the complete raw vector.
	corrected, err := correction.AdjustAll(raw, methods...)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("multitest: %d genes, %s=%d vs %s=%d, %d degenerate, %s t-test, %v",
		cols, partition.LabelA, len(partition.RowsA), partition.LabelB, len(partition.RowsB),
		skipped, c.opts.Variance, time.Since(start))

	return &stats.MultiTestResult{
		Partition: partition,
		Variance:  c.opts.Variance,
		Tests:     tests,
		Raw:       raw,
		Corrected: corrected,
	}, nil
}

// testColumns fans the per-gene tests out over a bounded worker pool. Each
// worker reads its own column and writes its own slot.
func (c *MultiTestCorrector) testColumns(ctx context.Context, matrix dataset.FeatureMatrix, partition dataset.GroupPartition, cols int) ([]stats.FeatureTest, error) {
	tests := make([]stats.FeatureTest, cols)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.opts.Workers == 1 {
		for j := 0; j < cols; j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tests[j] = c.testColumn(matrix, partition, j)
		}
		return tests, nil
	}

	sem := semaphore.NewWeighted(int64(c.opts.Workers))
	var wg sync.WaitGroup
	var acquireErr error
	for j := 0; j < cols; j++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = err
			break
		}
		wg.Add(1)
		go func(j int) {
			defer wg.Done()
			defer sem.Release(1)
			tests[j] = c.testColumn(matrix, partition, j)
		}(j)
	}
	wg.Wait()

	if acquireErr != nil {
		return nil, acquireErr
	}
	return tests, nil
}

func (c *MultiTestCorrector) testColumn(matrix dataset.FeatureMatrix, partition dataset.GroupPartition, j int) stats.FeatureTest {
	r := ttest.TwoSample(matrix.ColumnAt(partition.RowsA, j), matrix.ColumnAt(partition.RowsB, j), c.opts.Variance)

	ft := stats.FeatureTest{
		Index:  j,
		Gene:   matrix.Gene(j),
		T:      r.T,
		DoF:    r.DoF,
		PValue: r.P,
		MeanA:  r.MeanA,
		MeanB:  r.MeanB,
		NA:     r.NA,
		NB:     r.NB,
	}
	if r.Degenerate != "" {
		ft.Skipped = true
		ft.SkipReason = r.Degenerate
		ft.PValue = math.NaN()
	}
	return ft
}
