package hugot_classifier

import (
	"testing"

	"github.com/knights-analytics/hugot/pipelines"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewsentiment/internal/sentiment"
)

func TestToPredictionsKeepsModelLabels(t *testing.T) {
	outputs := []pipelines.ClassificationOutput{
		{Label: "negative", Score: 0.1},
		{Label: "neutral", Score: 0.7},
		{Label: "positive", Score: 0.2},
	}

	best, err := sentiment.TopPrediction(toPredictions(outputs))
	require.NoError(t, err)
	assert.Equal(t, "neutral", best.Label)
	assert.InDelta(t, 0.7, best.Score, 1e-6)
}

func TestNewHugotClassifierNeedsModel(t *testing.T) {
	_, err := NewHugotClassifier("", "", t.TempDir())
	assert.ErrorContains(t, err, "no model name to download")
}
