package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genexpr/domain/stats"
	"genexpr/internal"
	"genexpr/internal/errors"
)

var configKeys = []string{
	"DATASET_PATH", "ALPHA", "CORRECTION_METHODS", "VARIANCE_ASSUMPTION",
	"REFERENCE_GROUP", "WORKERS", "TOP_GENES", "CORRELATE_TOP", "PORT", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.10, cfg.Analysis.Alpha)
	assert.Equal(t, []stats.CorrectionMethod{stats.MethodHolm, stats.MethodBY}, cfg.Analysis.Methods)
	assert.Equal(t, stats.VarianceWelch, cfg.Analysis.Variance)
	assert.Equal(t, 20, cfg.Analysis.TopGenes)
	assert.Equal(t, 10, cfg.Analysis.CorrelateTop)
	assert.GreaterOrEqual(t, cfg.Analysis.Workers, 1)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, internal.LogLevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALPHA", "0.05")
	t.Setenv("CORRECTION_METHODS", "bonferroni, fdr")
	t.Setenv("VARIANCE_ASSUMPTION", "pooled")
	t.Setenv("REFERENCE_GROUP", " tumor ")
	t.Setenv("WORKERS", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATASET_PATH", "colon.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Analysis.Alpha)
	assert.Equal(t, []stats.CorrectionMethod{stats.MethodBonferroni, stats.MethodBH}, cfg.Analysis.Methods)
	assert.Equal(t, stats.VariancePooled, cfg.Analysis.Variance)
	assert.Equal(t, "tumor", cfg.Analysis.ReferenceGroup)
	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, internal.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "colon.json", cfg.Data.DatasetPath)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ALPHA", "1.5"},
		{"ALPHA", "abc"},
		{"CORRECTION_METHODS", "holm,sidak"},
		{"VARIANCE_ASSUMPTION", "bayes"},
		{"WORKERS", "0"},
		{"CORRELATE_TOP", "1"},
		{"PORT", "http"},
		{"LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TOP_GENES=7\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TOP_GENES") })

	// godotenv does not override variables already present, so drop the
	// empty placeholder first.
	require.NoError(t, os.Unsetenv("TOP_GENES"))
	require.NoError(t, LoadDotEnv(path))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Analysis.TopGenes)

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
