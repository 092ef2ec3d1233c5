package sentiment

import (
	"context"
	"errors"
	"strings"
)

const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
	LabelNeutral  = "NEUTRAL"
)

var ErrNoPrediction = errors.New("classifier returned no prediction")

type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier is the opaque sentiment capability: one text in, the best label
// and its confidence out. Implementations are shared across requests and must
// be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (Prediction, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) (Prediction, error) {
	return f(ctx, text)
}

// TopPrediction picks the highest scoring entry; the first one wins a tie.
func TopPrediction(predictions []Prediction) (Prediction, error) {
	if len(predictions) == 0 {
		return Prediction{}, ErrNoPrediction
	}

	best := predictions[0]
	for _, p := range predictions[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, nil
}

// NormalizeLabel canonicalises free-form answers (positive, Neg, NEU) onto
// the sst-2 style names. Model outputs such as LABEL_2 have no fixed meaning
// and are returned trimmed but otherwise unchanged.
func NormalizeLabel(label string) string {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "POSITIVE", "POS":
		return LabelPositive
	case "NEGATIVE", "NEG":
		return LabelNegative
	case "NEUTRAL", "NEU":
		return LabelNeutral
	default:
		return strings.TrimSpace(label)
	}
}
