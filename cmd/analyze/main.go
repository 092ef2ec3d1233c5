package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spacesedan/reviewsentiment/config"
	"github.com/spacesedan/reviewsentiment/internal/app"
	"github.com/spacesedan/reviewsentiment/internal/logging"
	"github.com/spacesedan/reviewsentiment/internal/pipeline"
)

type analyzeOptions struct {
	text      string
	file      string
	report    string
	chart     string
	noChart   bool
	noHeader  bool
	backend   string
	textStdin bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify review sentiment from text and spreadsheets",
		Long: `Splits free text on periods and line breaks, appends the first column of
an optional spreadsheet, classifies every review and writes the report
workbook (and the distribution chart) to disk.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.text, "text", "t", "", "reviews separated by periods or new lines")
	flags.BoolVar(&opts.textStdin, "stdin", false, "read the free text from standard input")
	flags.StringVarP(&opts.file, "file", "f", "", "spreadsheet (.xlsx, .xlsm, .csv, .tsv) whose first column holds reviews")
	flags.StringVar(&opts.report, "report", "", "report workbook path (default from REPORT_PATH)")
	flags.StringVar(&opts.chart, "chart", "", "chart image path (default from CHART_PATH)")
	flags.BoolVar(&opts.noChart, "no-chart", false, "skip the distribution chart")
	flags.BoolVar(&opts.noHeader, "no-header", false, "treat the first spreadsheet row as a review")
	flags.StringVar(&opts.backend, "backend", "", "sentiment backend: vader, hugot, huggingface or openai")

	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, in io.Reader, opts *analyzeOptions) error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	if opts.report != "" {
		cfg.ReportPath = opts.report
	}
	if opts.chart != "" {
		cfg.ChartPath = opts.chart
	}
	if opts.noChart {
		cfg.ChartEnabled = false
	}
	if opts.noHeader {
		cfg.SheetHasHeader = false
	}
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	// The CLI run is a one-off; publishers stay server-only.
	cfg.KafkaBroker = ""
	cfg.DynamoDBTable = ""

	input := pipeline.Input{Text: opts.text}
	if opts.textStdin {
		b, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		input.Text = string(b)
	}

	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("failed to open spreadsheet: %w", err)
		}
		defer f.Close()
		input.File = &pipeline.Upload{Name: filepath.Base(opts.file), Reader: f}
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.Orchestrator().Process(ctx, input)
	if err != nil {
		slog.Error("[Analyze] Run failed", slog.String("error", err.Error()))
		return err
	}

	return printOutcome(out, outcome)
}

func printOutcome(out io.Writer, outcome *pipeline.Outcome) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REVIEW\tSENTIMENT")
	for _, row := range outcome.Report {
		fmt.Fprintf(tw, "%s\t%s\n", row.ReviewText, row.SentimentLabel)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(outcome.Chart) > 0 {
		fmt.Fprintln(out)
		for _, c := range outcome.Chart {
			fmt.Fprintf(out, "%-20s %d\n", c.Label, c.Count)
		}
	}
	if outcome.ReportPath != "" {
		fmt.Fprintf(out, "\nreport: %s\n", outcome.ReportPath)
	}
	if outcome.ChartPath != "" {
		fmt.Fprintf(out, "chart:  %s\n", outcome.ChartPath)
	}
	return nil
}
