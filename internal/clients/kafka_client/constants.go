package kafka_client

import "time"

const (
	KAFKA_TOPIC_REPORTS  = "review-sentiment-reports" // finished review sentiment reports
	KAFKA_TOPIC_REQUESTS = "review-analysis-requests" // AnalyzeRequest payloads for the worker
	KAFKA_GROUP_ID       = "reviewsentiment-worker"
)

const (
	MAX_RETRIES   = 3
	RETRY_DELAY   = 500 * time.Millisecond
	FLUSH_TIMEOUT = 5 * time.Second
	POLL_TIMEOUT  = time.Second

	TRANSACTION_TIMEOUT = 30 * time.Second
)
