package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/spacesedan/reviewsentiment/internal/models"
	"github.com/spacesedan/reviewsentiment/internal/sentiment"
)

// HuggingFaceClient classifies text against a hosted text-classification
// model (the HF Inference API or a dedicated endpoint speaking the same JSON).
type HuggingFaceClient struct {
	Client   *http.Client
	Endpoint string

	maxRetries int
	backoff    time.Duration
}

type HuggingFaceOption func(*HuggingFaceClient)

func WithRetryPolicy(maxRetries int, initialBackoff time.Duration) HuggingFaceOption {
	return func(h *HuggingFaceClient) {
		h.maxRetries = max(maxRetries, 1)
		h.backoff = initialBackoff
	}
}

// NewHuggingFaceClient targets endpoint, or the public inference URL of model
// when endpoint is empty. A non-empty token is sent as a bearer token.
func NewHuggingFaceClient(endpoint, model, token string, timeout time.Duration, opts ...HuggingFaceOption) *HuggingFaceClient {
	if endpoint == "" {
		endpoint = HF_INFERENCE_BASE_URL + model
	}

	var client *http.Client
	if token != "" {
		client = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
	} else {
		client = &http.Client{}
	}
	client.Timeout = timeout

	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.String("endpoint", endpoint),
		slog.Duration("timeout", timeout),
		slog.Bool("authenticated", token != ""))

	h := &HuggingFaceClient{
		Client:     client,
		Endpoint:   endpoint,
		maxRetries: MAX_RETRIES,
		backoff:    INITIAL_BACKOFF,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// DoWithRetry retries transport errors and 5xx responses (a cold model
// answers 503 while it loads) with exponential backoff.
func (h *HuggingFaceClient) DoWithRetry(ctx context.Context, newRequest func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := h.backoff

	for attempt := 0; attempt < h.maxRetries; attempt++ {
		req, buildErr := newRequest()
		if buildErr != nil {
			return nil, buildErr
		}

		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if attempt == h.maxRetries-1 {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, MAX_BACKOFF)
	}

	return resp, err
}

func (h *HuggingFaceClient) Classify(ctx context.Context, text string) (sentiment.Prediction, error) {
	start := time.Now()

	var result models.TextClassificationResponse
	err := h.postJSON(ctx, h.Endpoint, models.TextClassificationRequest{
		Inputs:  text,
		Options: &models.TextClassificationOption{WaitForModel: true},
	}, &result)
	if err != nil {
		slog.Error("[HuggingFaceClient] Sentiment Analysis request failed",
			slog.Duration("elapsed", time.Since(start)))
		return sentiment.Prediction{}, err
	}
	if len(result) == 0 {
		return sentiment.Prediction{}, sentiment.ErrNoPrediction
	}

	predictions := make([]sentiment.Prediction, 0, len(result[0]))
	for _, s := range result[0] {
		predictions = append(predictions, sentiment.Prediction{
			Label: strings.TrimSpace(s.Label),
			Score: s.Score,
		})
	}

	return sentiment.TopPrediction(predictions)
}

// HealthCheck reports whether the endpoint answers at all; a model that is
// still loading counts as healthy.
func (h *HuggingFaceClient) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Endpoint, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := h.Client.Do(req)
	if err != nil {
		slog.Warn("[HuggingFaceClient] Health check failed",
			slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 500 || resp.StatusCode == http.StatusServiceUnavailable
}

// helper function for posting data to the inference service
func (h *HuggingFaceClient) postJSON(ctx context.Context, endpoint string, input interface{}, output *models.TextClassificationResponse) error {
	body, err := json.Marshal(input)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to marshal input",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	resp, err := h.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		return req, nil
	})
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr models.InferenceErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("inference request failed with status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("inference request failed with status %d", resp.StatusCode)
	}

	if err := decodeClassification(respBody, output); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// decodeClassification accepts both the nested [[...]] shape of the inference
// API and the flat [...] shape some endpoints return for a single input.
func decodeClassification(body []byte, output *models.TextClassificationResponse) error {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[[") {
		return json.Unmarshal(body, output)
	}

	var flat []models.TextClassificationScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return err
	}
	*output = models.TextClassificationResponse{flat}
	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
