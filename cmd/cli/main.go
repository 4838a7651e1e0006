package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	datasetadapter "genexpr/adapters/dataset"
	"genexpr/adapters/stats/correction"
	"genexpr/adapters/stats/engine"
	"genexpr/app"
	"genexpr/domain/dataset"
	"genexpr/domain/stats"
	"genexpr/internal"
	"genexpr/internal/api"
	"genexpr/internal/config"
	"genexpr/internal/report"
	"genexpr/internal/testkit"
)

var (
	cfg    *config.Config
	logger *internal.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "genexpr",
		Short: "Per-gene two-sample testing with multiple-comparison correction",
		Long: `genexpr compares gene expression between two tissue groups (for example
tumor and normal colon samples) with a two-sample t-test per gene, then
adjusts the p-values for multiple comparisons.

Defaults come from the environment (and an optional .env file):
- ALPHA (default: 0.10)
- CORRECTION_METHODS (default: holm,BY)
- VARIANCE_ASSUMPTION (default: welch)
- REFERENCE_GROUP, WORKERS, TOP_GENES, CORRELATE_TOP, PORT, LOG_LEVEL`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger = internal.NewLogger(cfg.LogLevel)
			return nil
		},
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newAdjustCmd(),
		newSimulateCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		alpha        float64
		methods      string
		variance     string
		reference    string
		top          int
		correlateTop int
		workers      int
		csvPath      string
		htmlPath     string
	)

	cmd := &cobra.Command{
		Use:   "analyze [dataset]",
		Short: "Test every gene and report raw and adjusted rejections",
		Long: `Load a dataset (.json, .xlsx or .csv), run a two-sample t-test per gene and
apply each correction method. A Markdown summary is printed to stdout.

Example: genexpr analyze colon.json --alpha 0.1 --methods holm,BY --csv pvalues.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Data.DatasetPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no dataset given (pass a path or set DATASET_PATH)")
			}

			analysis := cfg.Analysis
			flags := cmd.Flags()
			if flags.Changed("alpha") {
				analysis.Alpha = alpha
			}
			if flags.Changed("methods") {
				parsed, err := stats.ParseCorrectionMethods(methods)
				if err != nil {
					return err
				}
				analysis.Methods = parsed
			}
			if flags.Changed("variance") {
				v, err := stats.ParseVarianceAssumption(variance)
				if err != nil {
					return err
				}
				analysis.Variance = v
			}
			if flags.Changed("reference") {
				analysis.ReferenceGroup = reference
			}
			if flags.Changed("top") {
				analysis.TopGenes = top
			}
			if flags.Changed("correlate-top") {
				analysis.CorrelateTop = correlateTop
			}
			if flags.Changed("workers") {
				analysis.Workers = workers
			}
			if err := analysis.Validate(); err != nil {
				return err
			}

			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), path, analysis, csvPath, htmlPath)
		},
	}

	cmd.Flags().Float64Var(&alpha, "alpha", 0.10, "Significance level for rejection counts")
	cmd.Flags().StringVar(&methods, "methods", "holm,BY", "Comma separated correction methods (none, holm, bonferroni, hochberg, hommel, BH, BY)")
	cmd.Flags().StringVar(&variance, "variance", "welch", "t-test variance assumption: welch or pooled")
	cmd.Flags().StringVar(&reference, "reference", "", "Label treated as group A (default: lexicographically first)")
	cmd.Flags().IntVar(&top, "top", 20, "Number of ranked genes to report (0 = all)")
	cmd.Flags().IntVar(&correlateTop, "correlate-top", 10, "Correlate the N most significant genes within each group (0 disables)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel per-gene workers (default: number of CPUs)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write per-gene raw and adjusted p-values to this CSV file")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Write an HTML report to this file")

	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, path string, analysis config.AnalysisConfig, csvPath, htmlPath string) error {
	reader, err := datasetadapter.NewDataReader(path, logger)
	if err != nil {
		return err
	}

	corrector := engine.NewMultiTestCorrector(engine.Options{
		Variance:       analysis.Variance,
		ReferenceGroup: analysis.ReferenceGroup,
		Workers:        analysis.Workers,
	}, logger)
	service := app.NewAnalysisService(corrector, logger)

	result, err := service.RunFrom(ctx, reader, app.AnalysisRequest{
		Alpha:        analysis.Alpha,
		Methods:      analysis.Methods,
		TopK:         analysis.TopGenes,
		CorrelateTop: analysis.CorrelateTop,
	})
	if err != nil {
		return err
	}

	if csvPath != "" {
		if err := writeFile(csvPath, func(w io.Writer) error { return report.WriteCSV(w, result) }); err != nil {
			return err
		}
		logger.Info("wrote %s", csvPath)
	}
	if htmlPath != "" {
		if err := os.WriteFile(htmlPath, report.HTML(result), 0o644); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
		logger.Info("wrote %s", htmlPath)
	}

	_, err = io.WriteString(out, report.Markdown(result))
	return err
}

func newAdjustCmd() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "adjust [file]",
		Short: "Adjust a list of p-values read one per line",
		Long: `Read p-values (one per line, NA for missing) from a file or stdin and print
the adjusted values in the same order.

Example: genexpr adjust pvalues.txt --method BY`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := stats.ParseCorrectionMethod(method)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			p, err := readPValues(in)
			if err != nil {
				return err
			}
			adjusted, err := correction.Adjust(p, m)
			if err != nil {
				return err
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, v := range adjusted {
				if math.IsNaN(v) {
					fmt.Fprintln(w, "NA")
				} else {
					fmt.Fprintln(w, strconv.FormatFloat(v, 'g', -1, 64))
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&method, "method", "holm", "Correction method")

	return cmd
}

func readPValues(r io.Reader) ([]float64, error) {
	var p []float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if strings.EqualFold(text, "NA") || strings.EqualFold(text, "NaN") {
			p = append(p, math.NaN())
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p = append(p, v)
	}
	return p, scanner.Err()
}

func newSimulateCmd() *cobra.Command {
	var out string
	genCfg := testkit.DefaultColonConfig()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Write a synthetic colon-like tumor/normal dataset",
		Long: `Generate a reproducible dataset shaped like the colon microarray study
(40 tumor, 22 normal samples over 2000 genes by default). The output format
follows the file extension: .json, .csv or .xlsx.

Example: genexpr simulate --out colon.json --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			colon, err := testkit.GenerateColon(genCfg)
			if err != nil {
				return err
			}
			if err := writeDataset(out, colon.Dataset); err != nil {
				return err
			}
			differential := 0
			for _, d := range colon.Differential {
				if d {
					differential++
				}
			}
			logger.Info("wrote %s: %d samples x %d genes, %d differential",
				out, genCfg.Tumor+genCfg.Normal, genCfg.Genes, differential)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "colon.json", "Output path (.json, .csv or .xlsx)")
	cmd.Flags().IntVar(&genCfg.Tumor, "tumor", genCfg.Tumor, "Tumor samples")
	cmd.Flags().IntVar(&genCfg.Normal, "normal", genCfg.Normal, "Normal samples")
	cmd.Flags().IntVar(&genCfg.Genes, "genes", genCfg.Genes, "Genes")
	cmd.Flags().Float64Var(&genCfg.DifferentialFraction, "differential", genCfg.DifferentialFraction, "Fraction of differentially expressed genes")
	cmd.Flags().Float64Var(&genCfg.MaxEffect, "max-effect", genCfg.MaxEffect, "Largest group shift in standard deviations")
	cmd.Flags().Float64Var(&genCfg.MissingRate, "missing", genCfg.MissingRate, "Fraction of cells left missing")
	cmd.Flags().Uint64Var(&genCfg.Seed, "seed", genCfg.Seed, "Random seed")

	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the multitest and analysis HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = cfg.Server.Port
			}

			corrector := engine.NewMultiTestCorrector(engine.Options{
				Variance:       cfg.Analysis.Variance,
				ReferenceGroup: cfg.Analysis.ReferenceGroup,
				Workers:        cfg.Analysis.Workers,
			}, logger)

			registry := prometheus.NewRegistry()
			server := api.NewServer(corrector, cfg.Analysis, registry, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.ListenAndServe(ctx, ":"+port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8080", "Listen port")

	return cmd
}

func writeDataset(path string, ds *dataset.Dataset) error {
	format, err := datasetadapter.FormatFromPath(path)
	if err != nil {
		return err
	}
	switch format {
	case datasetadapter.FormatXLSX:
		return datasetadapter.WriteXLSX(path, ds)
	case datasetadapter.FormatCSV:
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			return writeFile(path, func(w io.Writer) error { return datasetadapter.WriteTSV(w, ds) })
		}
		return writeFile(path, func(w io.Writer) error { return datasetadapter.WriteCSV(w, ds) })
	default:
		return writeFile(path, func(w io.Writer) error { return datasetadapter.WriteJSON(w, ds) })
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
