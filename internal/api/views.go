package api

import (
	"math"
	"strconv"

	"genexpr/adapters/stats/correlation"
	"genexpr/app"
	"genexpr/domain/core"
	"genexpr/domain/stats"
)

// jsonFloat encodes NaN and infinities as null.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func jsonFloats(xs []float64) []jsonFloat {
	out := make([]jsonFloat, len(xs))
	for i, v := range xs {
		out[i] = jsonFloat(v)
	}
	return out
}

type errorView struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type partitionView struct {
	LabelA string `json:"label_a"`
	LabelB string `json:"label_b"`
	NA     int    `json:"n_a"`
	NB     int    `json:"n_b"`
}

type multiTestView struct {
	Method    stats.CorrectionMethod   `json:"method"`
	Variance  stats.VarianceAssumption `json:"variance"`
	Partition partitionView            `json:"partition"`
	Genes     []core.GeneKey           `json:"genes"`
	Raw       []jsonFloat              `json:"raw"`
	Adjusted  []jsonFloat              `json:"adjusted"`
	Skipped   int                      `json:"skipped"`
}

func newMultiTestView(method stats.CorrectionMethod, res *stats.MultiTestResult) multiTestView {
	adjusted, _ := res.Adjusted(method)
	view := multiTestView{
		Method:   method,
		Variance: res.Variance,
		Partition: partitionView{
			LabelA: res.Partition.LabelA,
			LabelB: res.Partition.LabelB,
			NA:     len(res.Partition.RowsA),
			NB:     len(res.Partition.RowsB),
		},
		Genes:    make([]core.GeneKey, len(res.Tests)),
		Raw:      jsonFloats(res.Raw),
		Adjusted: jsonFloats(adjusted),
	}
	for j, t := range res.Tests {
		view.Genes[j] = t.Gene
		if t.Skipped {
			view.Skipped++
		}
	}
	return view
}

type geneView struct {
	Rank     int                                  `json:"rank"`
	Index    int                                  `json:"index"`
	Gene     core.GeneKey                         `json:"gene"`
	T        jsonFloat                            `json:"t"`
	PValue   jsonFloat                            `json:"p_value"`
	MeanA    jsonFloat                            `json:"mean_a"`
	MeanB    jsonFloat                            `json:"mean_b"`
	Adjusted map[stats.CorrectionMethod]jsonFloat `json:"adjusted"`
	Skipped  bool                                 `json:"skipped"`
}

type correlationView struct {
	Genes     []core.GeneKey     `json:"genes"`
	RowsUsedA int                `json:"rows_used_a"`
	RowsUsedB int                `json:"rows_used_b"`
	MeanAbsA  jsonFloat          `json:"mean_abs_a"`
	MeanAbsB  jsonFloat          `json:"mean_abs_b"`
	TopA      []correlation.Pair `json:"top_a"`
	TopB      []correlation.Pair `json:"top_b"`
}

type analysisView struct {
	RunID       core.RunID               `json:"run_id"`
	Fingerprint string                   `json:"fingerprint"`
	Samples     int                      `json:"samples"`
	Genes       int                      `json:"genes"`
	Alpha       float64                  `json:"alpha"`
	Methods     []stats.CorrectionMethod `json:"methods"`
	Variance    stats.VarianceAssumption `json:"variance"`
	Partition   partitionView            `json:"partition"`
	Rejections  []stats.RejectionSummary `json:"rejections"`
	TopGenes    []geneView               `json:"top_genes"`
	Correlation *correlationView         `json:"correlation,omitempty"`
	RuntimeMs   int64                    `json:"runtime_ms"`
}

func newAnalysisView(res *app.AnalysisResult) analysisView {
	mt := res.MultiTest
	view := analysisView{
		RunID:       res.RunID,
		Fingerprint: res.Fingerprint.String(),
		Samples:     res.Samples,
		Genes:       res.Genes,
		Alpha:       res.Alpha,
		Methods:     res.Methods,
		Variance:    mt.Variance,
		Partition: partitionView{
			LabelA: mt.Partition.LabelA,
			LabelB: mt.Partition.LabelB,
			NA:     len(mt.Partition.RowsA),
			NB:     len(mt.Partition.RowsB),
		},
		Rejections: res.Rejections,
		TopGenes:   make([]geneView, len(res.TopGenes)),
		RuntimeMs:  res.RuntimeMs,
	}
	for i, g := range res.TopGenes {
		adjusted := make(map[stats.CorrectionMethod]jsonFloat, len(g.Adjusted))
		for m, v := range g.Adjusted {
			adjusted[m] = jsonFloat(v)
		}
		view.TopGenes[i] = geneView{
			Rank:     g.Rank,
			Index:    g.Index,
			Gene:     g.Gene,
			T:        jsonFloat(g.T),
			PValue:   jsonFloat(g.PValue),
			MeanA:    jsonFloat(g.MeanA),
			MeanB:    jsonFloat(g.MeanB),
			Adjusted: adjusted,
			Skipped:  g.Skipped,
		}
	}
	if c := res.Correlation; c != nil {
		view.Correlation = &correlationView{
			Genes:     c.Genes,
			RowsUsedA: c.RowsUsedA,
			RowsUsedB: c.RowsUsedB,
			MeanAbsA:  jsonFloat(c.MeanAbsA),
			MeanAbsB:  jsonFloat(c.MeanAbsB),
			TopA:      c.TopA,
			TopB:      c.TopB,
		}
	}
	return view
}
