package kafka_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/reviewsentiment/internal/models"
)

// transactionalProducer is the subset of *kafka.Producer used for publishing.
type transactionalProducer interface {
	BeginTransaction() error
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	CommitTransaction(ctx context.Context) error
	AbortTransaction(ctx context.Context) error
	Flush(timeoutMs int) int
	Close()
}

// ReportPublisher publishes each finished report as one message, keyed by
// report id, inside its own producer transaction. Transactions are serialized.
type ReportPublisher struct {
	mu         sync.Mutex
	producer   transactionalProducer
	topic      string
	retryDelay time.Duration
	txnTimeout time.Duration
}

func NewReportPublisher(cfg KafkaConfig) (*ReportPublisher, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker),
		slog.String("topic", cfg.Topic))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      cfg.TransactionalID,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), TRANSACTION_TIMEOUT)
	defer cancel()
	if err := p.InitTransactions(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return newReportPublisher(p, cfg.Topic), nil
}

func newReportPublisher(p transactionalProducer, topic string) *ReportPublisher {
	return &ReportPublisher{
		producer:   p,
		topic:      topic,
		retryDelay: RETRY_DELAY,
		txnTimeout: TRANSACTION_TIMEOUT,
	}
}

func (rp *ReportPublisher) Name() string { return "kafka" }

// Publish runs the transaction on its own deadline so a cancelled caller
// cannot leave it half finished. Any transaction that fails after it began is
// aborted before returning.
func (rp *ReportPublisher) Publish(_ context.Context, report models.Report) error {
	msg, err := NewReportMessage(rp.topic, report)
	if err != nil {
		return err
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	if err := rp.producer.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaClient] failed to begin transaction: %w", err)
	}

	for i := 0; i < MAX_RETRIES; i++ {
		err = rp.producer.Produce(msg, nil)
		if err == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		time.Sleep(rp.retryDelay)
	}
	if err != nil {
		return rp.abort(fmt.Errorf("[KafkaClient] failed to produce message after %d retries: %w", MAX_RETRIES, err))
	}

	for i := 0; i < MAX_RETRIES; i++ {
		err = rp.commit()
		if err == nil {
			break
		}
		var kerr kafka.Error
		if errors.As(err, &kerr) && kerr.TxnRequiresAbort() {
			break
		}
		slog.Warn("[KafkaClient] Failed to commit transaction, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		time.Sleep(rp.retryDelay)
	}
	if err != nil {
		return rp.abort(fmt.Errorf("[KafkaClient] failed to commit transaction: %w", err))
	}

	slog.Info("[KafkaClient] Published report to Kafka transactionally",
		slog.String("topic", rp.topic),
		slog.String("report_id", report.ID),
		slog.Int("rows", len(report.Rows)))

	return nil
}

func (rp *ReportPublisher) commit() error {
	ctx, cancel := context.WithTimeout(context.Background(), rp.txnTimeout)
	defer cancel()
	return rp.producer.CommitTransaction(ctx)
}

// abort rolls back the open transaction and returns cause, joined with the
// abort error when the rollback fails too.
func (rp *ReportPublisher) abort(cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), rp.txnTimeout)
	defer cancel()
	if err := rp.producer.AbortTransaction(ctx); err != nil {
		slog.Error("[KafkaClient] Failed to abort transaction",
			slog.String("error", err.Error()))
		return errors.Join(cause, fmt.Errorf("[KafkaClient] failed to abort transaction: %w", err))
	}
	slog.Warn("[KafkaClient] Transaction aborted", slog.String("cause", cause.Error()))
	return cause
}

func (rp *ReportPublisher) Close() {
	slog.Info("[KafkaClient] Shutting down Kafka producer...")
	if remaining := rp.producer.Flush(int(FLUSH_TIMEOUT.Milliseconds())); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	rp.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

// NewReportMessage serializes the report into a message keyed by its id.
func NewReportMessage(topic string, report models.Report) (*kafka.Message, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] failed to marshal report: %w", err)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(report.ID),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}
