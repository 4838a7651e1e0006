package app

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"genexpr/adapters/stats/engine"
	"genexpr/domain/core"
	"genexpr/domain/dataset"
	"genexpr/domain/stats"
	"genexpr/internal"
	"genexpr/internal/errors"
	"genexpr/internal/testkit"
)

func newService() *AnalysisService {
	logger := internal.NewLoggerTo(io.Discard, internal.LogLevelError)
	return NewAnalysisService(engine.NewMultiTestCorrector(engine.DefaultOptions(), logger), logger)
}

func TestRunSmallDataset(t *testing.T) {
	ds := testkit.SmallDataset()

	res, err := newService().Run(context.Background(), ds, AnalysisRequest{CorrelateTop: 3})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, ds.Fingerprint(), res.Fingerprint)
	assert.Equal(t, 6, res.Samples)
	assert.Equal(t, 4, res.Genes)
	assert.Equal(t, DefaultAlpha, res.Alpha)
	assert.Equal(t, DefaultMethods, res.Methods)

	require.Len(t, res.TopGenes, 4)
	assert.Equal(t, core.GeneKey("DE"), res.TopGenes[0].Gene)
	assert.Equal(t, 1, res.TopGenes[0].Rank)
	last := res.TopGenes[3]
	assert.Equal(t, core.GeneKey("CONST"), last.Gene)
	assert.True(t, last.Skipped)
	assert.True(t, math.IsNaN(last.Adjusted[stats.MethodHolm]))

	require.Len(t, res.Rejections, 3)
	assert.Equal(t, stats.MethodNone, res.Rejections[0].Method)
	assert.Equal(t, 3, res.Rejections[0].Tested)

	// GAPPY leaves only two complete tumor rows.
	assert.Nil(t, res.Correlation)
}

func TestRunColonDataset(t *testing.T) {
	cfg := testkit.DefaultColonConfig()
	cfg.Genes = 300
	colon, err := testkit.GenerateColon(cfg)
	require.NoError(t, err)

	res, err := newService().Run(context.Background(), colon.Dataset, AnalysisRequest{
		Alpha:        0.05,
		Methods:      []stats.CorrectionMethod{stats.MethodHolm, stats.MethodBY},
		TopK:         10,
		CorrelateTop: 5,
	})
	require.NoError(t, err)

	require.Len(t, res.TopGenes, 10)
	for i := 1; i < len(res.TopGenes); i++ {
		assert.LessOrEqual(t, res.TopGenes[i-1].PValue, res.TopGenes[i].PValue)
	}
	for _, g := range res.TopGenes {
		assert.GreaterOrEqual(t, g.Adjusted[stats.MethodHolm], g.PValue)
	}

	raw, holm, by := res.Rejections[0], res.Rejections[1], res.Rejections[2]
	assert.Equal(t, stats.MethodHolm, holm.Method)
	assert.Equal(t, stats.MethodBY, by.Method)
	assert.LessOrEqual(t, holm.Rejected, raw.Rejected)
	assert.LessOrEqual(t, by.Rejected, raw.Rejected)
	assert.Greater(t, raw.Rejected, 0)

	require.NotNil(t, res.Correlation)
	assert.Len(t, res.Correlation.Genes, 5)
	assert.Equal(t, "normal", res.Correlation.LabelA)
	assert.Equal(t, 22, res.Correlation.RowsUsedA)
	assert.Equal(t, 40, res.Correlation.RowsUsedB)
	assert.Len(t, res.Correlation.TopA, 5)
}

func TestRunRejectsBadAlpha(t *testing.T) {
	_, err := newService().Run(context.Background(), testkit.SmallDataset(), AnalysisRequest{Alpha: 1.5})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = newService().Run(context.Background(), nil, AnalysisRequest{})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestRunPropagatesValidationErrors(t *testing.T) {
	ds := testkit.SmallDataset()
	ds.Status = append(dataset.GroupLabels{}, ds.Status[:5]...)

	_, err := newService().Run(context.Background(), ds, AnalysisRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

type MockMultiTest struct {
	mock.Mock
}

func (m *MockMultiTest) ComputeAll(ctx context.Context, matrix dataset.FeatureMatrix, labels dataset.GroupLabels, methods ...stats.CorrectionMethod) (*stats.MultiTestResult, error) {
	args := m.Called(ctx, matrix, labels, methods)
	res, _ := args.Get(0).(*stats.MultiTestResult)
	return res, args.Error(1)
}

func TestRunCanceled(t *testing.T) {
	mt := new(MockMultiTest)
	mt.On("ComputeAll", mock.Anything, mock.Anything, mock.Anything, DefaultMethods).Return(nil, context.Canceled)
	svc := NewAnalysisService(mt, internal.NewLoggerTo(io.Discard, internal.LogLevelError))

	_, err := svc.Run(context.Background(), testkit.SmallDataset(), AnalysisRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, errors.CodeCanceled, errors.GetCode(err))
	mt.AssertExpectations(t)
}

func TestRunPassesRequestedMethods(t *testing.T) {
	ds := testkit.SmallDataset()
	methods := []stats.CorrectionMethod{stats.MethodBH}
	mt := new(MockMultiTest)
	mt.On("ComputeAll", mock.Anything, mock.AnythingOfType("dataset.FeatureMatrix"), ds.Status, methods).Return(&stats.MultiTestResult{
		Partition: dataset.GroupPartition{LabelA: "normal", LabelB: "tumor", RowsA: []int{1, 3, 5}, RowsB: []int{0, 2, 4}},
		Tests: []stats.FeatureTest{
			{Index: 0, Gene: "DE", PValue: 0.001},
			{Index: 1, Gene: "FLAT", PValue: 0.8},
			{Index: 2, Gene: "CONST", PValue: math.NaN(), Skipped: true},
			{Index: 3, Gene: "GAPPY", PValue: 0.2},
		},
		Raw:       []float64{0.001, 0.8, math.NaN(), 0.2},
		Corrected: []stats.CorrectedPValues{{Method: stats.MethodBH, Values: []float64{0.003, 0.8, math.NaN(), 0.3}}},
	}, nil)
	svc := NewAnalysisService(mt, internal.NewLoggerTo(io.Discard, internal.LogLevelError))

	res, err := svc.Run(context.Background(), ds, AnalysisRequest{Methods: methods, Alpha: 0.05})
	require.NoError(t, err)
	mt.AssertExpectations(t)

	require.Len(t, res.Rejections, 2)
	assert.Equal(t, 1, res.Rejections[0].Rejected)
	assert.Equal(t, stats.MethodBH, res.Rejections[1].Method)
	assert.Equal(t, 1, res.Rejections[1].Rejected)
	assert.Equal(t, core.GeneKey("GAPPY"), res.TopGenes[1].Gene)
	assert.Equal(t, 0.3, res.TopGenes[1].Adjusted[stats.MethodBH])
}

func TestRankGenesPutsNaNLast(t *testing.T) {
	nan := math.NaN()
	res := &stats.MultiTestResult{
		Tests: []stats.FeatureTest{
			{Index: 0, Gene: "a", PValue: nan, Skipped: true},
			{Index: 1, Gene: "b", PValue: 0.3},
			{Index: 2, Gene: "c", PValue: 0.01},
			{Index: 3, Gene: "d", PValue: 0.3},
		},
		Raw: []float64{nan, 0.3, 0.01, 0.3},
	}

	ranked := RankGenes(res)
	var order []core.GeneKey
	for _, g := range ranked {
		order = append(order, g.Gene)
	}
	assert.Equal(t, []core.GeneKey{"c", "b", "d", "a"}, order)
	assert.Equal(t, 4, ranked[3].Rank)
}

type MockDatasetReader struct {
	mock.Mock
}

func (m *MockDatasetReader) Read() (*dataset.Dataset, error) {
	args := m.Called()
	ds, _ := args.Get(0).(*dataset.Dataset)
	return ds, args.Error(1)
}

func TestRunFrom(t *testing.T) {
	ok := new(MockDatasetReader)
	ok.On("Read").Return(testkit.SmallDataset(), nil).Once()
	res, err := newService().RunFrom(context.Background(), ok, AnalysisRequest{TopK: 2})
	require.NoError(t, err)
	assert.Len(t, res.TopGenes, 2)
	ok.AssertExpectations(t)

	broken := new(MockDatasetReader)
	broken.On("Read").Return(nil, core.NewDatasetFormatError("x.json", "truncated"))
	_, err = newService().RunFrom(context.Background(), broken, AnalysisRequest{})
	assert.ErrorIs(t, err, core.ErrDatasetFormat)
	assert.Equal(t, errors.CodeDatasetInvalid, errors.GetCode(err))
}
