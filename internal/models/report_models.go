package models

import (
	"strings"
	"time"
)

const (
	ReviewNoInput    = "No input provided"
	LabelNoInput     = "N/A"
	LabelInvalid     = "Invalid/Empty"
	ErrorLabelPrefix = "Error: "
)

type ClassificationResult struct {
	ReviewText     string `json:"review" dynamodbav:"review"`
	SentimentLabel string `json:"sentiment" dynamodbav:"sentiment"`
}

// IsError reports whether the label is one of the sentinel values rather
// than a model output.
func (r ClassificationResult) IsError() bool {
	return r.SentimentLabel == LabelInvalid ||
		r.SentimentLabel == LabelNoInput ||
		strings.HasPrefix(r.SentimentLabel, ErrorLabelPrefix)
}

type ReportTable []ClassificationResult

func NoInputReport() ReportTable {
	return ReportTable{{ReviewText: ReviewNoInput, SentimentLabel: LabelNoInput}}
}

// IsNoInput is true for the single sentinel row returned when nothing was submitted.
func (t ReportTable) IsNoInput() bool {
	return len(t) == 1 && t[0].ReviewText == ReviewNoInput && t[0].SentimentLabel == LabelNoInput
}

type SentimentDistribution map[string]int

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Report is the envelope handed to the optional publishers once a batch is done.
type Report struct {
	ID           string       `json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	Rows         ReportTable  `json:"rows"`
	Distribution []LabelCount `json:"distribution,omitempty"`
}
