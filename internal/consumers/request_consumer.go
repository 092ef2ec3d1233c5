package consumers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/reviewsentiment/internal/models"
	"github.com/spacesedan/reviewsentiment/internal/pipeline"
)

type MessageSource interface {
	Next() (*kafka.Message, error)
}

type Committer interface {
	Commit(msg *kafka.Message) error
}

type Processor interface {
	Process(ctx context.Context, in pipeline.Input) (*pipeline.Outcome, error)
}

// RequestConsumer runs every AnalyzeRequest read from the request topic
// through the orchestrator, one message at a time. The offset is committed
// after each message whatever its outcome, so a poison request is skipped
// rather than redelivered forever.
type RequestConsumer struct {
	source    MessageSource
	committer Committer
	processor Processor
	gate      HealthGate
}

func NewRequestConsumer(source MessageSource, committer Committer, processor Processor, gate HealthGate) *RequestConsumer {
	return &RequestConsumer{
		source:    source,
		committer: committer,
		processor: processor,
		gate:      gate,
	}
}

// Run consumes until ctx is cancelled or the source fails for good.
func (rc *RequestConsumer) Run(ctx context.Context) error {
	slog.Info("[RequestConsumer] Listening for messages...")

	for {
		if !rc.gate.Wait(ctx) {
			slog.Warn("[RequestConsumer] Stopping consumer...")
			return nil
		}

		msg, err := rc.source.Next()
		if err != nil {
			if ctx.Err() != nil {
				slog.Warn("[RequestConsumer] Stopping consumer...")
				return nil
			}
			return fmt.Errorf("[RequestConsumer] failed to read request: %w", err)
		}

		if _, err := rc.Handle(ctx, msg); err != nil {
			slog.Error("[RequestConsumer] Request failed",
				slog.String("key", string(msg.Key)),
				slog.String("error", err.Error()))
		}

		if err := rc.committer.Commit(msg); err != nil {
			slog.Warn("[RequestConsumer] Failed to commit offset",
				slog.String("error", err.Error()))
			if errors.Is(err, context.Canceled) {
				return nil
			}
		}
	}
}

// Handle decodes and processes a single request message.
func (rc *RequestConsumer) Handle(ctx context.Context, msg *kafka.Message) (*pipeline.Outcome, error) {
	var req models.AnalyzeRequest
	decoder := json.NewDecoder(bytes.NewReader(msg.Value))
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}

	// Shutdown stops the poll loop, not a batch already in flight.
	outcome, err := rc.processor.Process(context.WithoutCancel(ctx), pipeline.InputFromRequest(req))
	if err != nil {
		return nil, err
	}

	slog.Info("[RequestConsumer] Request processed",
		slog.String("request_id", req.RequestID),
		slog.String("report_id", outcome.ReportID),
		slog.Int("reviews", len(outcome.Report)))
	return outcome, nil
}
