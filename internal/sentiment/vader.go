package sentiment

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
)

const VADER_THRESHOLD = 0.20

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
)

func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders markdown and drops the markup, so pasted
// reviews with emphasis or links score on their words alone.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(RemoveLinks(input)), blackfriday.WithNoExtensions())
	plain := htmlTagPattern.ReplaceAllString(string(output), " ")
	return strings.Join(strings.Fields(plain), " ")
}

// VaderClassifier scores text with the VADER lexicon. It needs no model
// download, which makes it the default backend.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
	neutral  bool
}

// NewVaderClassifier builds the lexicon analyzer. With allowNeutral false the
// output is restricted to POSITIVE/NEGATIVE like the sst-2 model.
func NewVaderClassifier(allowNeutral bool) *VaderClassifier {
	return &VaderClassifier{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
		neutral:  allowNeutral,
	}
}

func (v *VaderClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	score := v.analyzer.PolarityScores(ConvertMarkdownToText(text)).Compound

	switch {
	case score >= VADER_THRESHOLD:
		return Prediction{Label: LabelPositive, Score: score}, nil
	case score <= -VADER_THRESHOLD:
		return Prediction{Label: LabelNegative, Score: math.Abs(score)}, nil
	case v.neutral:
		return Prediction{Label: LabelNeutral, Score: 1 - math.Abs(score)}, nil
	case score >= 0:
		return Prediction{Label: LabelPositive, Score: score}, nil
	default:
		return Prediction{Label: LabelNegative, Score: math.Abs(score)}, nil
	}
}
