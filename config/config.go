package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendVader       = "vader"
	BackendHugot       = "hugot"
	BackendHuggingFace = "huggingface"
	BackendOpenAI      = "openai"
)

const (
	DEFAULT_REPORT_PATH = "review_sentiments.xlsx"
	DEFAULT_CHART_PATH  = "sentiment_distribution.png"
	DEFAULT_HF_MODEL    = "distilbert/distilbert-base-uncased-finetuned-sst-2-english"
)

type Config struct {
	Env      string
	HTTPAddr string
	LogLevel slog.Level

	Backend      string
	HFModel      string
	HFModelPath  string
	HFEndpoint   string
	HFAPIToken   string
	OpenAIAPIKey string
	OpenAIModel  string

	ReportPath     string
	ChartPath      string
	ChartEnabled   bool
	SheetHasHeader bool
	MaxUploadBytes int64

	ValkeyAddr     string
	ValkeyPassword string
	ValkeyTLS      bool
	CacheTTL       time.Duration

	KafkaBroker       string
	KafkaReportTopic  string
	KafkaRequestTopic string
	KafkaGroupID      string
	// Empty derives one from the binary name and hostname.
	KafkaTransactionalID string

	DynamoDBTable string
	AWSEndpoint   string
	AWSRegion     string
}

// Load reads the process environment. Call LoadEnv first so .env files are applied.
func Load() Config {
	cfg := Config{
		Env:      getEnv("APP_ENV", "dev"),
		HTTPAddr: getEnv("HTTP_ADDR", ":7860"),
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),

		Backend:      strings.ToLower(getEnv("SENTIMENT_BACKEND", BackendVader)),
		HFModel:      getEnv("HF_MODEL", DEFAULT_HF_MODEL),
		HFModelPath:  os.Getenv("HF_MODEL_PATH"),
		HFEndpoint:   os.Getenv("HF_ENDPOINT"),
		HFAPIToken:   os.Getenv("HF_API_TOKEN"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		ReportPath:     getEnv("REPORT_PATH", DEFAULT_REPORT_PATH),
		ChartPath:      getEnv("CHART_PATH", DEFAULT_CHART_PATH),
		ChartEnabled:   getBool("CHART_ENABLED", true),
		SheetHasHeader: getBool("SPREADSHEET_HAS_HEADER", true),
		MaxUploadBytes: int64(getInt("MAX_UPLOAD_MB", 32)) << 20,

		ValkeyAddr:     os.Getenv("VALKEY_INIT_ADDRESS"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyTLS:      getBool("VALKEY_TLS", false),
		CacheTTL:       getDuration("CACHE_TTL", 24*time.Hour),

		KafkaBroker:          os.Getenv("KAFKA_BROKER"),
		KafkaReportTopic:     getEnv("KAFKA_REPORT_TOPIC", "review-sentiment-reports"),
		KafkaRequestTopic:    getEnv("KAFKA_REQUEST_TOPIC", "review-analysis-requests"),
		KafkaGroupID:         getEnv("KAFKA_GROUP_ID", "reviewsentiment-worker"),
		KafkaTransactionalID: os.Getenv("KAFKA_TRANSACTIONAL_ID"),

		DynamoDBTable: os.Getenv("DYNAMODB_TABLE"),
		AWSEndpoint:   os.Getenv("AWS_ENDPOINT"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
	}

	if cfg.HTTPAddr != "" && !strings.Contains(cfg.HTTPAddr, ":") {
		cfg.HTTPAddr = ":" + cfg.HTTPAddr
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
