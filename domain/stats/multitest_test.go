package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiTestResultSummarize(t *testing.T) {
	nan := math.NaN()
	res := &MultiTestResult{
		Raw: []float64{0.01, 0.04, nan, 0.2},
		Corrected: []CorrectedPValues{
			{Method: MethodNone, Values: []float64{0.01, 0.04, nan, 0.2}},
			{Method: MethodHolm, Values: []float64{0.04, 0.12, nan, 0.4}},
			{Method: MethodBY, Values: []float64{0.07, 0.14, nan, 0.4}},
		},
	}

	summary := res.Summarize(0.10)
	require.Len(t, summary, 3)

	assert.Equal(t, MethodNone, summary[0].Method)
	assert.Equal(t, 2, summary[0].Rejected)
	assert.Equal(t, 3, summary[0].Tested)

	assert.Equal(t, MethodHolm, summary[1].Method)
	assert.Equal(t, ErrorRateFWER, summary[1].ErrorRate)
	assert.Equal(t, 1, summary[1].Rejected)

	assert.Equal(t, ErrorRateFDR, summary[2].ErrorRate)
	assert.Equal(t, 1, summary[2].Rejected)

	v, ok := res.Adjusted(MethodBY)
	assert.True(t, ok)
	assert.Equal(t, 0.07, v[0])
	_, ok = res.Adjusted(MethodHommel)
	assert.False(t, ok)
}
