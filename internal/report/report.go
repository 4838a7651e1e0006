// Package report renders analysis results as CSV, Markdown and HTML.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"genexpr/adapters/stats/correlation"
	"genexpr/app"
)

// WriteCSV writes one row per gene in column order with the raw p-value and
// every adjusted vector side by side. NaN is written as NA.
func WriteCSV(w io.Writer, result *app.AnalysisResult) error {
	mt := result.MultiTest
	cw := csv.NewWriter(w)

	header := []string{"gene", "index", "t", "dof", "mean_" + mt.Partition.LabelA, "mean_" + mt.Partition.LabelB, "raw"}
	for _, c := range mt.Corrected {
		header = append(header, string(c.Method))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for j, t := range mt.Tests {
		record := []string{
			t.Gene.String(),
			strconv.Itoa(t.Index),
			formatFloat(t.T),
			formatFloat(t.DoF),
			formatFloat(t.MeanA),
			formatFloat(t.MeanB),
			formatFloat(mt.Raw[j]),
		}
		for _, c := range mt.Corrected {
			record = append(record, formatFloat(c.Values[j]))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func short(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// Markdown summarizes rejection counts, the top genes and correlation structure.
func Markdown(result *app.AnalysisResult) string {
	var b strings.Builder
	mt := result.MultiTest
	p := mt.Partition

	fmt.Fprintf(&b, "# Differential expression: %s vs %s\n\n", p.LabelB, p.LabelA)
	fmt.Fprintf(&b, "- Run: `%s`\n", result.RunID)
	if result.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", result.Source)
	}
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n", result.Fingerprint.Short())
	fmt.Fprintf(&b, "- Samples: %d (%s %d, %s %d)\n", result.Samples, p.LabelA, len(p.RowsA), p.LabelB, len(p.RowsB))
	fmt.Fprintf(&b, "- Genes: %d\n", result.Genes)
	fmt.Fprintf(&b, "- Test: two-sided %s t-test, alpha = %g\n\n", mt.Variance, result.Alpha)

	b.WriteString("## Rejections\n\n")
	b.WriteString("| Method | Controls | Rejected | Tested |\n")
	b.WriteString("|---|---|---:|---:|\n")
	for _, r := range result.Rejections {
		fmt.Fprintf(&b, "| %s | %s | %d | %d |\n", r.Method, r.ErrorRate, r.Rejected, r.Tested)
	}
	b.WriteString("\n")

	if len(result.TopGenes) > 0 {
		fmt.Fprintf(&b, "## Top %d genes\n\n", len(result.TopGenes))
		b.WriteString("| Rank | Gene | t | raw p |")
		align := "|---:|---|---:|---:|"
		for _, c := range mt.Corrected {
			fmt.Fprintf(&b, " %s |", c.Method)
			align += "---:|"
		}
		fmt.Fprintf(&b, " mean %s | mean %s |\n%s---:|---:|\n", p.LabelA, p.LabelB, align)
		for _, g := range result.TopGenes {
			fmt.Fprintf(&b, "| %d | %s | %s | %s |", g.Rank, g.Gene, short(g.T), short(g.PValue))
			for _, c := range mt.Corrected {
				fmt.Fprintf(&b, " %s |", short(g.Adjusted[c.Method]))
			}
			fmt.Fprintf(&b, " %s | %s |\n", short(g.MeanA), short(g.MeanB))
		}
		b.WriteString("\n")
	}

	if c := result.Correlation; c != nil {
		fmt.Fprintf(&b, "## Correlation among the top %d genes\n\n", len(c.Genes))
		fmt.Fprintf(&b, "Mean |r|: %s %s (%d complete samples), %s %s (%d complete samples).\n\n",
			c.LabelA, short(c.MeanAbsA), c.RowsUsedA, c.LabelB, short(c.MeanAbsB), c.RowsUsedB)
		writePairs(&b, c.LabelA, c.TopA)
		writePairs(&b, c.LabelB, c.TopB)
	}

	return b.String()
}

func writePairs(b *strings.Builder, label string, pairs []correlation.Pair) {
	if len(pairs) == 0 {
		return
	}
	fmt.Fprintf(b, "### Strongest pairs in %s\n\n", label)
	b.WriteString("| Gene | Gene | r |\n|---|---|---:|\n")
	for _, pair := range pairs {
		fmt.Fprintf(b, "| %s | %s | %s |\n", pair.GeneI, pair.GeneJ, short(pair.R))
	}
	b.WriteString("\n")
}

// HTML renders the Markdown summary as a standalone page.
func HTML(result *app.AnalysisResult) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("genexpr run %s", result.RunID),
	})
	return markdown.ToHTML([]byte(Markdown(result)), p, renderer)
}
