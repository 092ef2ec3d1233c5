package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/spacesedan/reviewsentiment/internal/sentiment"
)

const openAIRequestTimeout = 60 * time.Second

const openAISentimentPrompt = `Classify the sentiment of the customer review sent by the user.
Answer with a single JSON object and nothing else:
{"label": "POSITIVE" | "NEGATIVE", "confidence": <number between 0 and 1>}`

type OpenAIClassifier struct {
	Client *openai.Client
	Model  string
}

type openAISentimentAnswer struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

func NewOpenAIClassifier(apiKey, model string, opts ...option.RequestOption) *OpenAIClassifier {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(openAIRequestTimeout),
	}, opts...)

	slog.Info("[OpenAIClient] OpenAI classifier initialized",
		slog.String("model", model),
		slog.Duration("timeout", openAIRequestTimeout))

	return &OpenAIClassifier{
		Client: openai.NewClient(opts...),
		Model:  model,
	}
}

func (o *OpenAIClassifier) Classify(ctx context.Context, text string) (sentiment.Prediction, error) {
	completion, err := o.Client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openAISentimentPrompt),
			openai.UserMessage(text),
		}),
		Model:       openai.F(openai.ChatModel(o.Model)),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return sentiment.Prediction{}, fmt.Errorf("openai completion failed: %w", err)
	}

	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return sentiment.Prediction{}, sentiment.ErrNoPrediction
	}

	return parseOpenAIAnswer(completion.Choices[0].Message.Content)
}

func parseOpenAIAnswer(raw string) (sentiment.Prediction, error) {
	var answer openAISentimentAnswer
	if err := json.Unmarshal([]byte(cleanOpenAIResponse(raw)), &answer); err != nil {
		slog.Warn("[OpenAIClient] Unparseable sentiment answer",
			slog.String("raw_openai_response", raw))
		return sentiment.Prediction{}, fmt.Errorf("failed to parse openai answer: %w", err)
	}
	if answer.Label == "" {
		return sentiment.Prediction{}, sentiment.ErrNoPrediction
	}

	return sentiment.Prediction{
		Label: sentiment.NormalizeLabel(answer.Label),
		Score: answer.Confidence,
	}, nil
}

// cleanOpenAIResponse strips the markdown fences models like to wrap JSON in.
func cleanOpenAIResponse(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
