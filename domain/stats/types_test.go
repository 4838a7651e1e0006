package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genexpr/domain/core"
)

func TestParseCorrectionMethod(t *testing.T) {
	tests := []struct {
		tag      string
		expected CorrectionMethod
	}{
		{"none", MethodNone},
		{"holm", MethodHolm},
		{"HOLM", MethodHolm},
		{"BY", MethodBY},
		{"fdr_by", MethodBY},
		{"fdr", MethodBH},
		{" bh ", MethodBH},
		{"hommel", MethodHommel},
		{"hochberg", MethodHochberg},
		{"bonferroni", MethodBonferroni},
	}

	for _, test := range tests {
		m, err := ParseCorrectionMethod(test.tag)
		require.NoError(t, err, "tag %q", test.tag)
		assert.Equal(t, test.expected, m, "tag %q", test.tag)
	}

	_, err := ParseCorrectionMethod("sidak")
	assert.ErrorIs(t, err, core.ErrUnknownCorrectionMethod)
}

func TestParseCorrectionMethods(t *testing.T) {
	methods, err := ParseCorrectionMethods("holm, BY,holm,,")
	require.NoError(t, err)
	assert.Equal(t, []CorrectionMethod{MethodHolm, MethodBY}, methods)

	_, err = ParseCorrectionMethods("holm,nope")
	assert.ErrorIs(t, err, core.ErrUnknownCorrectionMethod)
}

func TestMethodsAreClassified(t *testing.T) {
	for _, m := range AllMethods() {
		assert.True(t, m.Valid(), "method %s", m)
		assert.NotEmpty(t, m.Controls(), "method %s", m)
	}
	assert.False(t, CorrectionMethod("sidak").Valid())
	assert.Equal(t, ErrorRateFWER, MethodHolm.Controls())
	assert.Equal(t, ErrorRateFDR, MethodBY.Controls())
	assert.Equal(t, ErrorRateNone, MethodNone.Controls())
}

func TestParseVarianceAssumption(t *testing.T) {
	v, err := ParseVarianceAssumption("")
	require.NoError(t, err)
	assert.Equal(t, VarianceWelch, v)

	v, err = ParseVarianceAssumption("Equal")
	require.NoError(t, err)
	assert.Equal(t, VariancePooled, v)

	_, err = ParseVarianceAssumption("bayes")
	assert.Error(t, err)
}

func TestRejections(t *testing.T) {
	p := []float64{0.01, 0.1, 0.099, math.NaN(), 0.5, 0}
	assert.Equal(t, 3, Rejections(p, 0.10))
	assert.Equal(t, 0, Rejections(nil, 0.10))
}
