package testkit

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"genexpr/domain/core"
	"genexpr/domain/dataset"
)

// ColonGeneratorConfig configures the synthetic tumor/normal expression generator
type ColonGeneratorConfig struct {
	Tumor                int     `json:"tumor"`
	Normal               int     `json:"normal"`
	Genes                int     `json:"genes"`
	DifferentialFraction float64 `json:"differential_fraction"` // share of genes with a group shift
	MaxEffect            float64 `json:"max_effect"`            // largest shift, in gene standard deviations
	MissingRate          float64 `json:"missing_rate"`          // share of cells replaced by NaN
	TumorLabel           string  `json:"tumor_label"`
	NormalLabel          string  `json:"normal_label"`
	Seed                 uint64  `json:"seed"`
}

// DefaultColonConfig mirrors the shape of the colon microarray study:
// 62 tissue samples (40 tumor, 22 normal) over 2000 genes.
func DefaultColonConfig() ColonGeneratorConfig {
	return ColonGeneratorConfig{
		Tumor:                40,
		Normal:               22,
		Genes:                2000,
		DifferentialFraction: 0.3,
		MaxEffect:            2.0,
		TumorLabel:           "tumor",
		NormalLabel:          "normal",
		Seed:                 42,
	}
}

// ColonDataset is a generated dataset plus its ground truth.
type ColonDataset struct {
	*dataset.Dataset
	Differential []bool    // per gene: shifted between groups
	Effect       []float64 // per gene: tumor minus normal shift, in SD units
}

// ColonGenerator produces reproducible expression matrices
type ColonGenerator struct {
	config ColonGeneratorConfig
	rng    *rand.Rand
	src    rand.Source
}

// NewColonGenerator creates a generator seeded from config.Seed
func NewColonGenerator(config ColonGeneratorConfig) *ColonGenerator {
	src := rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)
	return &ColonGenerator{
		config: config,
		rng:    rand.New(src),
		src:    src,
	}
}

// Generate builds the dataset. Sample order is shuffled so groups interleave.
func (g *ColonGenerator) Generate() (*ColonDataset, error) {
	cfg := g.config
	if cfg.Tumor < 1 || cfg.Normal < 1 || cfg.Genes < 1 {
		return nil, fmt.Errorf("colon generator needs at least one sample per group and one gene, got %d/%d/%d",
			cfg.Tumor, cfg.Normal, cfg.Genes)
	}
	if cfg.DifferentialFraction < 0 || cfg.DifferentialFraction > 1 {
		return nil, fmt.Errorf("differential fraction %v outside [0, 1]", cfg.DifferentialFraction)
	}

	rows := cfg.Tumor + cfg.Normal
	labels := make(dataset.GroupLabels, rows)
	for i := range labels {
		if i < cfg.Tumor {
			labels[i] = cfg.TumorLabel
		} else {
			labels[i] = cfg.NormalLabel
		}
	}
	g.rng.Shuffle(rows, func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })

	differential := make([]bool, cfg.Genes)
	for _, j := range g.rng.Perm(cfg.Genes)[:int(float64(cfg.Genes)*cfg.DifferentialFraction)] {
		differential[j] = true
	}

	data := make([][]float64, rows)
	for i := range data {
		data[i] = make([]float64, cfg.Genes)
	}
	genes := make([]core.GeneKey, cfg.Genes)
	effects := make([]float64, cfg.Genes)

	for j := 0; j < cfg.Genes; j++ {
		genes[j] = core.GeneKey(fmt.Sprintf("G%05d", j+1))
		base := distuv.Normal{
			Mu:    4 + 6*g.rng.Float64(),
			Sigma: 0.5 + g.rng.Float64(),
			Src:   g.src,
		}

		if differential[j] {
			effects[j] = cfg.MaxEffect * g.rng.Float64()
			if g.rng.IntN(2) == 0 {
				effects[j] = -effects[j]
			}
		}

		for i := 0; i < rows; i++ {
			v := base.Rand()
			if labels[i] == cfg.TumorLabel {
				v += effects[j] * base.Sigma
			}
			if cfg.MissingRate > 0 && g.rng.Float64() < cfg.MissingRate {
				v = math.NaN()
			}
			data[i][j] = v
		}
	}

	return &ColonDataset{
		Dataset: &dataset.Dataset{
			Expression: dataset.NewFeatureMatrix(data, genes),
			Status:     labels,
			Source:     fmt.Sprintf("synthetic:colon:seed=%d", cfg.Seed),
		},
		Differential: differential,
		Effect:       effects,
	}, nil
}

// GenerateColon is a shorthand for NewColonGenerator(cfg).Generate()
func GenerateColon(cfg ColonGeneratorConfig) (*ColonDataset, error) {
	return NewColonGenerator(cfg).Generate()
}
