package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spacesedan/reviewsentiment/internal/chart"
	"github.com/spacesedan/reviewsentiment/internal/models"
	"github.com/spacesedan/reviewsentiment/internal/reviews"
	"github.com/spacesedan/reviewsentiment/internal/sentiment"
	"github.com/spacesedan/reviewsentiment/internal/spreadsheet"
)

// ErrReadInput wraps every failure to read an uploaded spreadsheet.
var ErrReadInput = errors.New("failed to read spreadsheet")

// Publisher receives every finished report. Publishing is best effort.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, report models.Report) error
}

// Upload is a spreadsheet handed over by the caller, routed by Name's suffix.
type Upload struct {
	Name   string
	Reader io.Reader
}

type Input struct {
	Text string
	// File is optional. A read failure aborts the request.
	File *Upload
	// Values are extra reviews that already went through CellString.
	Values []string
}

// InputFromRequest converts a decoded AnalyzeRequest. Numbers and booleans
// become their text, nulls are dropped like missing cells.
func InputFromRequest(req models.AnalyzeRequest) Input {
	in := Input{Text: req.Text}
	for _, v := range req.Reviews {
		if s, ok := spreadsheet.CellString(v); ok {
			in.Values = append(in.Values, s)
		}
	}
	return in
}

type Outcome struct {
	ReportID     string
	Report       models.ReportTable
	Distribution models.SentimentDistribution
	Chart        []models.LabelCount
	// ReportPath and ChartPath are empty when nothing was written.
	ReportPath string
	ChartPath  string
}

type Orchestrator struct {
	adapter        *sentiment.Adapter
	reportPath     string
	chartPath      string
	chartEnabled   bool
	sheetHasHeader bool
	publishers     []Publisher

	writeReport func(path string, table models.ReportTable) error
	renderChart func(path string, counts []models.LabelCount) error
	now         func() time.Time
}

type Option func(*Orchestrator)

// WithChart enables the extended variant: a bar chart written to path.
func WithChart(path string) Option {
	return func(o *Orchestrator) {
		o.chartEnabled = path != ""
		o.chartPath = path
	}
}

func WithPublishers(publishers ...Publisher) Option {
	return func(o *Orchestrator) {
		o.publishers = append(o.publishers, publishers...)
	}
}

func WithSheetHeader(hasHeader bool) Option {
	return func(o *Orchestrator) {
		o.sheetHasHeader = hasHeader
	}
}

func NewOrchestrator(classifier sentiment.Classifier, reportPath string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		adapter:        sentiment.NewAdapter(classifier),
		reportPath:     reportPath,
		sheetHasHeader: true,
		writeReport:    spreadsheet.WriteReport,
		renderChart:    chart.RenderBarChart,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs one request: collect reviews, classify them in order, persist
// the report and, in the extended variant, the chart. Per-review failures
// end up as labels; only file problems are returned as errors.
func (o *Orchestrator) Process(ctx context.Context, in Input) (*Outcome, error) {
	start := time.Now()

	items, err := o.collect(in)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		slog.Info("[Orchestrator] No reviews supplied")
		return &Outcome{Report: models.NoInputReport()}, nil
	}

	outcome := &Outcome{
		ReportID: uuid.NewString(),
		Report:   o.Classify(ctx, items),
	}

	if err := o.writeReport(o.reportPath, outcome.Report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	outcome.ReportPath = o.reportPath

	distribution, counts, ok := Aggregate(outcome.Report)
	outcome.Distribution = distribution
	outcome.Chart = counts

	if o.chartEnabled && ok {
		if err := o.renderChart(o.chartPath, counts); err != nil {
			return nil, fmt.Errorf("failed to save chart: %w", err)
		}
		outcome.ChartPath = o.chartPath
	}

	o.publish(ctx, models.Report{
		ID:           outcome.ReportID,
		CreatedAt:    o.now().UTC(),
		Rows:         outcome.Report,
		Distribution: counts,
	})

	slog.Info("[Orchestrator] Batch complete",
		slog.String("report_id", outcome.ReportID),
		slog.Int("reviews", len(outcome.Report)),
		slog.Int("labels", len(counts)),
		slog.Duration("elapsed", time.Since(start)))

	return outcome, nil
}

// Classify labels every item strictly in order, one at a time. The returned
// table always has one row per item.
func (o *Orchestrator) Classify(ctx context.Context, items []models.ReviewItem) models.ReportTable {
	table := make(models.ReportTable, 0, len(items))
	for _, item := range items {
		table = append(table, o.classifyItem(ctx, item))
	}
	return table
}

func (o *Orchestrator) classifyItem(ctx context.Context, item models.ReviewItem) models.ClassificationResult {
	if strings.TrimSpace(item.RawValue) == "" {
		return models.ClassificationResult{ReviewText: item.RawValue, SentimentLabel: models.LabelInvalid}
	}

	label, err := o.adapter.Label(ctx, item.RawValue)
	if err != nil {
		return models.ClassificationResult{ReviewText: item.RawValue, SentimentLabel: models.ErrorLabelPrefix + err.Error()}
	}
	return models.ClassificationResult{ReviewText: item.RawValue, SentimentLabel: label}
}

func (o *Orchestrator) collect(in Input) ([]models.ReviewItem, error) {
	free := reviews.FromFreeText(in.Text)

	var sheet []models.ReviewItem
	if in.File != nil {
		var err error
		sheet, err = spreadsheet.Read(in.File.Name, in.File.Reader, o.sheetHasHeader)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrReadInput, in.File.Name, err)
		}
	}

	values := make([]models.ReviewItem, 0, len(in.Values))
	for _, v := range in.Values {
		values = append(values, models.NewReviewItem(v, models.SourceAPI))
	}

	items := reviews.Merge(free, sheet, values)
	slog.Debug("[Orchestrator] Collected reviews",
		slog.Int("free_text", len(free)),
		slog.Int("spreadsheet", len(sheet)),
		slog.Int("api", len(values)))
	return items, nil
}

func (o *Orchestrator) publish(ctx context.Context, report models.Report) {
	for _, p := range o.publishers {
		if err := p.Publish(ctx, report); err != nil {
			slog.Warn("[Orchestrator] Failed to publish report",
				slog.String("publisher", p.Name()),
				slog.String("report_id", report.ID),
				slog.String("error", err.Error()))
		}
	}
}
