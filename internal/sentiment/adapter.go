package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Adapter wraps a Classifier so a single review can never take the batch
// down: panics inside the capability come back as ordinary errors.
type Adapter struct {
	classifier Classifier
}

func NewAdapter(classifier Classifier) *Adapter {
	return &Adapter{classifier: classifier}
}

// Label classifies text and returns the label of the best prediction.
func (a *Adapter) Label(ctx context.Context, text string) (label string, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[SentimentAdapter] Classifier panicked",
				slog.Any("panic", r))
			label = ""
			err = fmt.Errorf("%v", r)
		}
	}()

	start := time.Now()
	prediction, err := a.classifier.Classify(ctx, text)
	if err != nil {
		slog.Warn("[SentimentAdapter] Classification failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return "", err
	}
	if prediction.Label == "" {
		return "", ErrNoPrediction
	}

	slog.Debug("[SentimentAdapter] Classified review",
		slog.String("label", prediction.Label),
		slog.Float64("score", prediction.Score),
		slog.Duration("elapsed", time.Since(start)))

	return prediction.Label, nil
}
