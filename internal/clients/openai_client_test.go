package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewsentiment/internal/sentiment"
)

func TestCleanOpenAIResponse(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: `{"label":"POSITIVE"}`, want: `{"label":"POSITIVE"}`},
		{raw: "```json\n{\"label\":\"NEGATIVE\"}\n```", want: `{"label":"NEGATIVE"}`},
		{raw: "  ```\n{}\n```  ", want: `{}`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, cleanOpenAIResponse(tc.raw))
	}
}

func TestParseOpenAIAnswer(t *testing.T) {
	prediction, err := parseOpenAIAnswer("```json\n{\"label\": \"negative\", \"confidence\": 0.82}\n```")
	require.NoError(t, err)
	assert.Equal(t, sentiment.Prediction{Label: "NEGATIVE", Score: 0.82}, prediction)

	_, err = parseOpenAIAnswer("I think it is positive")
	assert.ErrorContains(t, err, "failed to parse openai answer")

	_, err = parseOpenAIAnswer(`{"confidence": 0.5}`)
	assert.ErrorIs(t, err, sentiment.ErrNoPrediction)
}

func TestOpenAIClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"label\":\"POSITIVE\",\"confidence\":0.97}"}
			}]
		}`)
	}))
	defer srv.Close()

	classifier := NewOpenAIClassifier("sk-test", "gpt-4o-mini",
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0))

	prediction, err := classifier.Classify(context.Background(), "Fantastic blender")
	require.NoError(t, err)
	assert.Equal(t, sentiment.Prediction{Label: "POSITIVE", Score: 0.97}, prediction)
}
