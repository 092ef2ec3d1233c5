package hugot_classifier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelineBackends"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/spacesedan/reviewsentiment/internal/sentiment"
)

// ONNX export of distilbert-base-uncased-finetuned-sst-2-english.
const HUGOT_DEFAULT_MODEL = "KnightsAnalytics/distilbert-base-uncased-finetuned-sst-2-english"

const hugotPipelineName = "review-sentiment"

// HugotClassifier runs a text-classification pipeline in process on the ONNX
// runtime. The model is loaded once and shared; calls into the pipeline are
// serialized.
type HugotClassifier struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.Mutex
}

// NewHugotClassifier loads the model at modelPath. When modelPath does not
// exist and modelName is set, the model is downloaded into modelDir first.
// The onnxruntime shared library must be installed where hugot looks for it.
func NewHugotClassifier(modelPath, modelName, modelDir string) (*HugotClassifier, error) {
	if _, err := os.Stat(modelPath); modelPath == "" || err != nil {
		if modelName == "" {
			return nil, fmt.Errorf("model path %q not found and no model name to download", modelPath)
		}
		start := time.Now()
		slog.Info("[HugotClassifier] Downloading model",
			slog.String("model", modelName),
			slog.String("dir", modelDir))

		downloaded, err := hugot.DownloadModel(modelName, modelDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to download model %s: %w", modelName, err)
		}
		modelPath = downloaded
		slog.Info("[HugotClassifier] Model downloaded",
			slog.String("path", modelPath),
			slog.Duration("elapsed", time.Since(start)))
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	cfg := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      hugotPipelineName,
		Options: []pipelineBackends.PipelineOption[*pipelines.TextClassificationPipeline]{
			pipelines.WithSoftmax(),
		},
	}

	pipeline, err := hugot.NewPipeline(session, cfg)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("failed to create text classification pipeline: %w", err)
	}

	slog.Info("[HugotClassifier] Pipeline ready", slog.String("model_path", modelPath))

	return &HugotClassifier{session: session, pipeline: pipeline}, nil
}

func (h *HugotClassifier) Classify(ctx context.Context, text string) (sentiment.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return sentiment.Prediction{}, err
	}

	h.mu.Lock()
	output, err := h.pipeline.RunPipeline([]string{text})
	h.mu.Unlock()
	if err != nil {
		return sentiment.Prediction{}, err
	}
	if len(output.ClassificationOutputs) == 0 {
		return sentiment.Prediction{}, sentiment.ErrNoPrediction
	}

	return sentiment.TopPrediction(toPredictions(output.ClassificationOutputs[0]))
}

// toPredictions keeps the labels exactly as the model's id2label names them.
func toPredictions(outputs []pipelines.ClassificationOutput) []sentiment.Prediction {
	predictions := make([]sentiment.Prediction, 0, len(outputs))
	for _, c := range outputs {
		predictions = append(predictions, sentiment.Prediction{
			Label: strings.TrimSpace(c.Label),
			Score: float64(c.Score),
		})
	}
	return predictions
}

func (h *HugotClassifier) Close() error {
	if h.session == nil {
		return nil
	}
	return h.session.Destroy()
}
