package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"genexpr/adapters/stats/correlation"
	"genexpr/domain/core"
	"genexpr/domain/dataset"
	"genexpr/domain/stats"
	"genexpr/internal"
	"genexpr/internal/errors"
	"genexpr/ports"
)

// DefaultAlpha is the significance level used when a request leaves it unset.
const DefaultAlpha = 0.10

// DefaultMethods are one FWER and one FDR procedure.
var DefaultMethods = []stats.CorrectionMethod{stats.MethodHolm, stats.MethodBY}

// AnalysisService runs the differential expression workflow over one dataset
type AnalysisService struct {
	multitest ports.MultiTestPort
	logger    *internal.Logger
}

// AnalysisRequest defines the inputs for one run
type AnalysisRequest struct {
	Alpha        float64
	Methods      []stats.CorrectionMethod
	TopK         int // ranked genes to keep; <= 0 keeps all
	CorrelateTop int // most significant genes to correlate; < 2 disables
	RunID        core.RunID
}

// GeneRanking is one row of the ranked gene table
type GeneRanking struct {
	Rank     int                                `json:"rank"`
	Index    int                                `json:"index"`
	Gene     core.GeneKey                       `json:"gene"`
	T        float64                            `json:"t"`
	PValue   float64                            `json:"p_value"`
	MeanA    float64                            `json:"mean_a"`
	MeanB    float64                            `json:"mean_b"`
	Adjusted map[stats.CorrectionMethod]float64 `json:"adjusted"`
	Skipped  bool                               `json:"skipped"`
}

// CorrelationSummary describes gene-gene correlation within each group
type CorrelationSummary struct {
	Genes     []core.GeneKey     `json:"genes"`
	LabelA    string             `json:"label_a"`
	LabelB    string             `json:"label_b"`
	RowsUsedA int                `json:"rows_used_a"`
	RowsUsedB int                `json:"rows_used_b"`
	MeanAbsA  float64            `json:"mean_abs_a"`
	MeanAbsB  float64            `json:"mean_abs_b"`
	TopA      []correlation.Pair `json:"top_a"`
	TopB      []correlation.Pair `json:"top_b"`
}

// AnalysisResult contains the complete output of a run
type AnalysisResult struct {
	RunID       core.RunID               `json:"run_id"`
	Source      string                   `json:"source"`
	Fingerprint core.Hash                `json:"fingerprint"`
	Samples     int                      `json:"samples"`
	Genes       int                      `json:"genes"`
	Alpha       float64                  `json:"alpha"`
	Methods     []stats.CorrectionMethod `json:"methods"`
	MultiTest   *stats.MultiTestResult   `json:"multitest"`
	Rejections  []stats.RejectionSummary `json:"rejections"`
	TopGenes    []GeneRanking            `json:"top_genes"`
	Correlation *CorrelationSummary      `json:"correlation,omitempty"`
	RuntimeMs   int64                    `json:"runtime_ms"`
}

// NewAnalysisService creates an analysis service. A nil logger uses internal.DefaultLogger.
func NewAnalysisService(multitest ports.MultiTestPort, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{multitest: multitest, logger: logger}
}

// Run tests every gene, applies the requested corrections and summarizes the outcome.
func (s *AnalysisService) Run(ctx context.Context, ds *dataset.Dataset, req AnalysisRequest) (*AnalysisResult, error) {
	start := time.Now()

	if ds == nil {
		return nil, errors.InvalidInput("dataset is required")
	}
	req, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	res, err := s.multitest.ComputeAll(ctx, ds.Expression, ds.Status, req.Methods...)
	if err != nil {
		return nil, errors.Wrap(err, "multiple testing failed")
	}

	rows, cols := ds.Expression.Dims()
	result := &AnalysisResult{
		RunID:       req.RunID,
		Source:      ds.Source,
		Fingerprint: ds.Fingerprint(),
		Samples:     rows,
		Genes:       cols,
		Alpha:       req.Alpha,
		Methods:     req.Methods,
		MultiTest:   res,
		Rejections:  res.Summarize(req.Alpha),
	}

	ranked := RankGenes(res)
	if req.TopK > 0 && len(ranked) > req.TopK {
		result.TopGenes = ranked[:req.TopK]
	} else {
		result.TopGenes = ranked
	}

	if req.CorrelateTop >= 2 {
		summary, err := s.correlate(ds, res.Partition, ranked, req.CorrelateTop)
		switch {
		case err == nil:
			result.Correlation = summary
		case core.IsValidationError(err):
			s.logger.Warn("[AnalysisService] run %s: correlation skipped: %v", req.RunID, err)
		default:
			return nil, errors.Wrap(err, "correlation failed")
		}
	}

	result.RuntimeMs = time.Since(start).Milliseconds()
	for _, r := range result.Rejections {
		s.logger.Info("[AnalysisService] run %s: %s rejects %d/%d genes at alpha=%.2f",
			req.RunID, r.Method, r.Rejected, r.Tested, r.Alpha)
	}
	return result, nil
}

// RunFrom loads the dataset from reader and runs it.
func (s *AnalysisService) RunFrom(ctx context.Context, reader ports.DatasetReader, req AnalysisRequest) (*AnalysisResult, error) {
	ds, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load dataset")
	}
	return s.Run(ctx, ds, req)
}

func normalizeRequest(req AnalysisRequest) (AnalysisRequest, error) {
	if req.Alpha == 0 {
		req.Alpha = DefaultAlpha
	}
	if !(req.Alpha > 0 && req.Alpha < 1) {
		return req, errors.InvalidInput(fmt.Sprintf("alpha must be in (0,1), got %v", req.Alpha))
	}
	if len(req.Methods) == 0 {
		req.Methods = DefaultMethods
	}
	if req.RunID == "" {
		req.RunID = core.NewRunID()
	}
	return req, nil
}

// RankGenes orders genes by ascending raw p-value. Untestable genes go last,
// ties keep column order.
func RankGenes(res *stats.MultiTestResult) []GeneRanking {
	order := make([]int, len(res.Tests))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := res.Raw[order[a]], res.Raw[order[b]]
		if math.IsNaN(pb) {
			return !math.IsNaN(pa)
		}
		return pa < pb
	})

	ranked := make([]GeneRanking, len(order))
	for rank, j := range order {
		t := res.Tests[j]
		adjusted := make(map[stats.CorrectionMethod]float64, len(res.Corrected))
		for _, c := range res.Corrected {
			adjusted[c.Method] = c.Values[j]
		}
		ranked[rank] = GeneRanking{
			Rank:     rank + 1,
			Index:    j,
			Gene:     t.Gene,
			T:        t.T,
			PValue:   t.PValue,
			MeanA:    t.MeanA,
			MeanB:    t.MeanB,
			Adjusted: adjusted,
			Skipped:  t.Skipped,
		}
	}
	return ranked
}

func (s *AnalysisService) correlate(ds *dataset.Dataset, partition dataset.GroupPartition, ranked []GeneRanking, k int) (*CorrelationSummary, error) {
	var columns []int
	for _, g := range ranked {
		if len(columns) == k {
			break
		}
		if !g.Skipped {
			columns = append(columns, g.Index)
		}
	}

	gc, err := correlation.WithinGroups(ds.Expression, partition, columns)
	if err != nil {
		return nil, err
	}
	return &CorrelationSummary{
		Genes:     gc.Genes,
		LabelA:    gc.LabelA,
		LabelB:    gc.LabelB,
		RowsUsedA: gc.RowsUsedA,
		RowsUsedB: gc.RowsUsedB,
		MeanAbsA:  correlation.MeanAbsolute(gc.A),
		MeanAbsB:  correlation.MeanAbsolute(gc.B),
		TopA:      correlation.TopPairs(gc.A, gc.Genes, k),
		TopB:      correlation.TopPairs(gc.B, gc.Genes, k),
	}, nil
}
