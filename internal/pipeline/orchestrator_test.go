package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewsentiment/internal/models"
	"github.com/spacesedan/reviewsentiment/internal/sentiment"
	"github.com/spacesedan/reviewsentiment/internal/spreadsheet"
)

// keywordClassifier labels text containing "bad" as NEGATIVE, fails on
// "explode" and panics on "panic".
func keywordClassifier(calls *[]string) sentiment.Classifier {
	return sentiment.ClassifierFunc(func(ctx context.Context, text string) (sentiment.Prediction, error) {
		if calls != nil {
			*calls = append(*calls, text)
		}
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "panic"):
			panic("tokenizer blew up")
		case strings.Contains(lower, "explode"):
			return sentiment.Prediction{}, errors.New("model exploded")
		case strings.Contains(lower, "bad"):
			return sentiment.Prediction{Label: "NEGATIVE", Score: 0.9}, nil
		default:
			return sentiment.Prediction{Label: "POSITIVE", Score: 0.8}, nil
		}
	})
}

type recordingPublisher struct {
	reports []models.Report
	err     error
}

func (p *recordingPublisher) Name() string { return "recording" }

func (p *recordingPublisher) Publish(ctx context.Context, report models.Report) error {
	p.reports = append(p.reports, report)
	return p.err
}

func newTestOrchestrator(t *testing.T, classifier sentiment.Classifier, opts ...Option) (*Orchestrator, string, string) {
	t.Helper()
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "review_sentiments.xlsx")
	chartPath := filepath.Join(dir, "sentiment_distribution.png")
	opts = append([]Option{WithChart(chartPath)}, opts...)
	return NewOrchestrator(classifier, reportPath, opts...), reportPath, chartPath
}

func csvUpload(content string) *Upload {
	return &Upload{Name: "reviews.csv", Reader: strings.NewReader(content)}
}

func TestProcessNoInput(t *testing.T) {
	var calls []string
	publisher := &recordingPublisher{}
	o, reportPath, chartPath := newTestOrchestrator(t, keywordClassifier(&calls), WithPublishers(publisher))

	outcome, err := o.Process(context.Background(), Input{Text: " \n . ", File: csvUpload("Review\n")})
	require.NoError(t, err)

	assert.Equal(t, models.ReportTable{{ReviewText: "No input provided", SentimentLabel: "N/A"}}, outcome.Report)
	assert.Empty(t, outcome.ReportPath)
	assert.Empty(t, outcome.ChartPath)
	assert.Nil(t, outcome.Chart)
	assert.Empty(t, calls)
	assert.Empty(t, publisher.reports)
	assert.NoFileExists(t, reportPath)
	assert.NoFileExists(t, chartPath)
}

func TestProcessMergesTextBeforeSpreadsheet(t *testing.T) {
	var calls []string
	o, reportPath, chartPath := newTestOrchestrator(t, keywordClassifier(&calls))

	outcome, err := o.Process(context.Background(), Input{
		Text: "Great product. Bad service.\nOk overall.",
		File: csvUpload("Review\nLoved the packaging\nbad smell\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReportTable{
		{ReviewText: "Great product", SentimentLabel: "POSITIVE"},
		{ReviewText: "Bad service", SentimentLabel: "NEGATIVE"},
		{ReviewText: "Ok overall", SentimentLabel: "POSITIVE"},
		{ReviewText: "Loved the packaging", SentimentLabel: "POSITIVE"},
		{ReviewText: "bad smell", SentimentLabel: "NEGATIVE"},
	}, outcome.Report)
	assert.Equal(t, []string{"Great product", "Bad service", "Ok overall", "Loved the packaging", "bad smell"}, calls)

	assert.Equal(t, models.SentimentDistribution{"POSITIVE": 3, "NEGATIVE": 2}, outcome.Distribution)
	assert.Equal(t, "POSITIVE", outcome.Chart[0].Label)
	assert.NotEmpty(t, outcome.ReportID)
	assert.Equal(t, reportPath, outcome.ReportPath)
	assert.Equal(t, chartPath, outcome.ChartPath)
	assert.FileExists(t, chartPath)

	saved, err := spreadsheet.ReadFile(reportPath, true)
	require.NoError(t, err)
	assert.Len(t, saved, 5)
}

func TestProcessIsolatesFailingItem(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, keywordClassifier(nil))

	outcome, err := o.Process(context.Background(), Input{Text: "first is fine\nsecond will explode\nthird is fine"})
	require.NoError(t, err)

	require.Len(t, outcome.Report, 3)
	assert.Equal(t, "POSITIVE", outcome.Report[0].SentimentLabel)
	assert.Equal(t, "Error: model exploded", outcome.Report[1].SentimentLabel)
	assert.Equal(t, "second will explode", outcome.Report[1].ReviewText)
	assert.True(t, outcome.Report[1].IsError())
	assert.Equal(t, "POSITIVE", outcome.Report[2].SentimentLabel)
}

func TestProcessIsolatesPanickingItem(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, keywordClassifier(nil))

	outcome, err := o.Process(context.Background(), Input{Text: "good\nthis will panic\nbad"})
	require.NoError(t, err)

	require.Len(t, outcome.Report, 3)
	assert.Equal(t, "Error: tokenizer blew up", outcome.Report[1].SentimentLabel)
	assert.Equal(t, "NEGATIVE", outcome.Report[2].SentimentLabel)
}

func TestProcessWhitespaceCellIsInvalid(t *testing.T) {
	var calls []string
	o, _, _ := newTestOrchestrator(t, keywordClassifier(&calls))

	outcome, err := o.Process(context.Background(), Input{File: csvUpload("Review\n   \nnice\n")})
	require.NoError(t, err)

	assert.Equal(t, models.ReportTable{
		{ReviewText: "   ", SentimentLabel: models.LabelInvalid},
		{ReviewText: "nice", SentimentLabel: "POSITIVE"},
	}, outcome.Report)
	assert.Equal(t, []string{"nice"}, calls)
}

func TestProcessWritesReportWhenEveryRowFails(t *testing.T) {
	o, reportPath, _ := newTestOrchestrator(t, keywordClassifier(nil))

	outcome, err := o.Process(context.Background(), Input{Text: "explode one. explode two"})
	require.NoError(t, err)

	assert.FileExists(t, reportPath)
	assert.Equal(t, models.SentimentDistribution{"Error: model exploded": 2}, outcome.Distribution)
}

func TestProcessWithoutChart(t *testing.T) {
	dir := t.TempDir()
	o := NewOrchestrator(keywordClassifier(nil), filepath.Join(dir, "report.xlsx"))

	outcome, err := o.Process(context.Background(), Input{Text: "good"})
	require.NoError(t, err)

	assert.Empty(t, outcome.ChartPath)
	assert.Equal(t, []models.LabelCount{{Label: "POSITIVE", Count: 1}}, outcome.Chart)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProcessIsDeterministic(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, keywordClassifier(nil))
	in := func() Input {
		return Input{Text: "good. bad. explode", File: csvUpload("Review\nfine\n  \n")}
	}

	first, err := o.Process(context.Background(), in())
	require.NoError(t, err)
	second, err := o.Process(context.Background(), in())
	require.NoError(t, err)

	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, first.Chart, second.Chart)
	assert.NotEqual(t, first.ReportID, second.ReportID)
}

func TestProcessPropagatesSpreadsheetErrors(t *testing.T) {
	o, reportPath, _ := newTestOrchestrator(t, keywordClassifier(nil))

	_, err := o.Process(context.Background(), Input{
		Text: "good",
		File: &Upload{Name: "reviews.xlsx", Reader: strings.NewReader("definitely not a workbook")},
	})
	assert.ErrorIs(t, err, ErrReadInput)
	assert.NoFileExists(t, reportPath)

	_, err = o.Process(context.Background(), Input{File: &Upload{Name: "reviews.pdf", Reader: strings.NewReader("")}})
	assert.ErrorIs(t, err, spreadsheet.ErrUnsupportedFile)
}

func TestProcessPropagatesWriteErrors(t *testing.T) {
	o := NewOrchestrator(keywordClassifier(nil), filepath.Join(t.TempDir(), "missing", "report.xlsx"))

	_, err := o.Process(context.Background(), Input{Text: "good"})
	assert.ErrorContains(t, err, "failed to save report")
}

func TestProcessPropagatesChartErrors(t *testing.T) {
	dir := t.TempDir()
	o := NewOrchestrator(keywordClassifier(nil), filepath.Join(dir, "report.xlsx"),
		WithChart(filepath.Join(dir, "missing", "chart.png")))

	_, err := o.Process(context.Background(), Input{Text: "good"})
	assert.ErrorContains(t, err, "failed to save chart")
}

func TestProcessPublishesBestEffort(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("broker down")}
	recording := &recordingPublisher{}
	o, _, _ := newTestOrchestrator(t, keywordClassifier(nil), WithPublishers(failing, recording))

	outcome, err := o.Process(context.Background(), Input{Text: "good. bad", Values: []string{"api review"}})
	require.NoError(t, err)

	require.Len(t, recording.reports, 1)
	report := recording.reports[0]
	assert.Equal(t, outcome.ReportID, report.ID)
	assert.Equal(t, outcome.Report, report.Rows)
	assert.Equal(t, outcome.Chart, report.Distribution)
	assert.Len(t, failing.reports, 1)
	assert.Equal(t, "api review", outcome.Report[2].ReviewText)
}

func TestProcessHeaderlessSpreadsheet(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, keywordClassifier(nil), WithSheetHeader(false))

	outcome, err := o.Process(context.Background(), Input{File: csvUpload("first row counts\n")})
	require.NoError(t, err)
	assert.Equal(t, "first row counts", outcome.Report[0].ReviewText)
}

func TestInputFromRequest(t *testing.T) {
	in := InputFromRequest(models.AnalyzeRequest{
		Text:    "free text",
		Reviews: []any{"plain", nil, json.Number("4.50"), true, "  "},
	})

	assert.Equal(t, "free text", in.Text)
	assert.Nil(t, in.File)
	assert.Equal(t, []string{"plain", "4.50", "True", "  "}, in.Values)
}
