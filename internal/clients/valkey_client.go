package clients

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/reviewsentiment/internal/sentiment"
)

const VALKEY_SENTIMENT_KEY_PREFIX = "reviews:sentiment"

// NewValkeyClient connects and pings the server once before handing the client out.
func NewValkeyClient(addr, password string, useTLS bool) (valkey.Client, error) {
	opts := valkey.ClientOption{
		InitAddress: []string{
			addr,
		},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}

	if useTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey",
		slog.String("address", addr))
	return client, nil
}

// CachedClassifier memoizes predictions of another classifier in Valkey.
// Cache failures are logged and bypassed; only successful predictions are stored.
type CachedClassifier struct {
	next      sentiment.Classifier
	client    valkey.Client
	namespace string
	ttl       time.Duration
}

// NewCachedClassifier keys entries by namespace (the backend and model) so
// switching models never serves stale labels.
func NewCachedClassifier(next sentiment.Classifier, client valkey.Client, namespace string, ttl time.Duration) *CachedClassifier {
	return &CachedClassifier{
		next:      next,
		client:    client,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (c *CachedClassifier) Classify(ctx context.Context, text string) (sentiment.Prediction, error) {
	key := CacheKey(c.namespace, text)

	cached, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).ToString()
	switch {
	case err == nil:
		var p sentiment.Prediction
		if jsonErr := json.Unmarshal([]byte(cached), &p); jsonErr == nil && p.Label != "" {
			return p, nil
		}
		slog.Warn("[ValkeyClient] Dropping malformed cache entry", slog.String("key", key))
	case !valkey.IsValkeyNil(err):
		slog.Warn("[ValkeyClient] Cache lookup failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	prediction, err := c.next.Classify(ctx, text)
	if err != nil {
		return prediction, err
	}

	payload, err := json.Marshal(prediction)
	if err != nil {
		return prediction, nil
	}
	set := c.client.B().Set().Key(key).Value(string(payload))
	var setCmd valkey.Completed
	if c.ttl > 0 {
		setCmd = set.ExSeconds(int64(c.ttl.Seconds())).Build()
	} else {
		setCmd = set.Build()
	}
	if err := c.client.Do(ctx, setCmd).Error(); err != nil {
		slog.Warn("[ValkeyClient] Cache store failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	return prediction, nil
}

// HealthCheck delegates to the wrapped classifier when it can report health.
func (c *CachedClassifier) HealthCheck(ctx context.Context) bool {
	if hc, ok := c.next.(interface{ HealthCheck(context.Context) bool }); ok {
		return hc.HealthCheck(ctx)
	}
	return true
}

func CacheKey(namespace, text string) string {
	sum := sha256.Sum256([]byte(text))
	return strings.Join([]string{VALKEY_SENTIMENT_KEY_PREFIX, namespace, hex.EncodeToString(sum[:])}, ":")
}
