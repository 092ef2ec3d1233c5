package kafka_client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewsentiment/internal/models"
)

func TestNewReportMessage(t *testing.T) {
	report := models.Report{
		ID:        "report-1",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Rows: models.ReportTable{
			{ReviewText: "Great", SentimentLabel: "POSITIVE"},
		},
		Distribution: []models.LabelCount{{Label: "POSITIVE", Count: 1}},
	}

	msg, err := NewReportMessage(KAFKA_TOPIC_REPORTS, report)
	require.NoError(t, err)

	assert.Equal(t, KAFKA_TOPIC_REPORTS, *msg.TopicPartition.Topic)
	assert.Equal(t, kafka.PartitionAny, msg.TopicPartition.Partition)
	assert.Equal(t, []byte("report-1"), msg.Key)

	var decoded models.Report
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, report, decoded)
}

func TestNewKafkaConfigDefaults(t *testing.T) {
	cfg := NewKafkaConfig("broker:9092", "")
	assert.Equal(t, KAFKA_TOPIC_REPORTS, cfg.Topic)
	assert.Equal(t, "broker:9092", cfg.Broker)
	assert.NotEmpty(t, cfg.TransactionalID)
	assert.Equal(t, DefaultTransactionalID(), cfg.TransactionalID)
}

func TestTransactionalIDsDifferPerProcess(t *testing.T) {
	webform := transactionalID("webform", "host-a")
	worker := transactionalID("worker", "host-a")
	otherHost := transactionalID("worker", "host-b")

	assert.Equal(t, "reviewsentiment-webform-host-a", webform)
	assert.NotEqual(t, webform, worker)
	assert.NotEqual(t, worker, otherHost)
}

func TestWithTransactionalID(t *testing.T) {
	cfg := NewKafkaConfig("broker:9092", "")
	derived := cfg.TransactionalID

	assert.Equal(t, derived, cfg.WithTransactionalID("  ").TransactionalID)
	assert.Equal(t, "worker-7", cfg.WithTransactionalID("worker-7").TransactionalID)
}

type fakeProducer struct {
	produceErr error
	commitErrs []error

	produced  int
	commits   int
	aborts    int
	commitCtx []error
}

func (f *fakeProducer) BeginTransaction() error { return nil }

func (f *fakeProducer) Produce(*kafka.Message, chan kafka.Event) error {
	if f.produceErr != nil {
		return f.produceErr
	}
	f.produced++
	return nil
}

func (f *fakeProducer) CommitTransaction(ctx context.Context) error {
	f.commitCtx = append(f.commitCtx, ctx.Err())
	f.commits++
	if len(f.commitErrs) == 0 {
		return nil
	}
	err := f.commitErrs[0]
	f.commitErrs = f.commitErrs[1:]
	return err
}

func (f *fakeProducer) AbortTransaction(context.Context) error {
	f.aborts++
	return nil
}

func (f *fakeProducer) Flush(int) int { return 0 }
func (f *fakeProducer) Close()        {}

func newTestPublisher(p *fakeProducer) *ReportPublisher {
	rp := newReportPublisher(p, KAFKA_TOPIC_REPORTS)
	rp.retryDelay = 0
	return rp
}

func TestPublishCommits(t *testing.T) {
	fake := &fakeProducer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, newTestPublisher(fake).Publish(ctx, models.Report{ID: "r1"}))
	assert.Equal(t, 1, fake.produced)
	assert.Equal(t, 1, fake.commits)
	assert.Equal(t, []error{nil}, fake.commitCtx)
	assert.Zero(t, fake.aborts)
}

func TestPublishRetriesCommit(t *testing.T) {
	fake := &fakeProducer{commitErrs: []error{errors.New("coordinator busy")}}

	require.NoError(t, newTestPublisher(fake).Publish(context.Background(), models.Report{ID: "r1"}))
	assert.Equal(t, 2, fake.commits)
	assert.Zero(t, fake.aborts)
}

func TestPublishAbortsWhenCommitFails(t *testing.T) {
	commitErr := errors.New("coordinator unavailable")
	fake := &fakeProducer{commitErrs: []error{commitErr, commitErr, commitErr}}
	rp := newTestPublisher(fake)

	err := rp.Publish(context.Background(), models.Report{ID: "r1"})
	require.ErrorIs(t, err, commitErr)
	assert.Equal(t, MAX_RETRIES, fake.commits)
	assert.Equal(t, 1, fake.aborts)

	require.NoError(t, rp.Publish(context.Background(), models.Report{ID: "r2"}))
	assert.Equal(t, 1, fake.aborts)
}

func TestPublishAbortsWhenProduceFails(t *testing.T) {
	produceErr := errors.New("queue full")
	fake := &fakeProducer{produceErr: produceErr}

	err := newTestPublisher(fake).Publish(context.Background(), models.Report{ID: "r1"})
	require.ErrorIs(t, err, produceErr)
	assert.Zero(t, fake.commits)
	assert.Equal(t, 1, fake.aborts)
}
