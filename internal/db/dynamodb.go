package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/reviewsentiment/internal/models"
	"github.com/spacesedan/reviewsentiment/internal/utils"
)

const (
	DEFAULT_REPORTS_TABLE_NAME = "ReviewSentiments"
	DYNAMODB_BATCH_SIZE        = 25
	REPORT_TTL                 = 30 * 24 * time.Hour
)

// BatchWriter is the part of the DynamoDB client the store needs.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type ReportRowItem struct {
	ReportID  string `dynamodbav:"report_id"`
	RowIndex  int    `dynamodbav:"row_index"`
	Review    string `dynamodbav:"review"`
	Sentiment string `dynamodbav:"sentiment"`
	IsError   bool   `dynamodbav:"is_error"`
	CreatedAt int64  `dynamodbav:"created_at"`
	TTL       int64  `dynamodbav:"ttl"`
}

// DynamoReportStore keeps one item per report row, keyed by report id and row index.
type DynamoReportStore struct {
	client BatchWriter
	table  string
	// backoff before the first retry of unprocessed items; doubles per retry
	backoff time.Duration
}

func NewDynamoReportStore(client BatchWriter, table string) *DynamoReportStore {
	if table == "" {
		table = DEFAULT_REPORTS_TABLE_NAME
	}
	return &DynamoReportStore{client: client, table: table, backoff: 500 * time.Millisecond}
}

func (s *DynamoReportStore) Name() string { return "dynamodb" }

func (s *DynamoReportStore) Publish(ctx context.Context, report models.Report) error {
	items, err := ReportToDynamoDBItems(report)
	if err != nil {
		return err
	}

	for _, chunk := range utils.Chunk(items, DYNAMODB_BATCH_SIZE) {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		writeRequests := make([]types.WriteRequest, 0, len(chunk))
		for _, item := range chunk {
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.writeWithRetry(ctx, writeRequests); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Successfully stored report",
		slog.String("report_id", report.ID),
		slog.Int("rows", len(items)))
	return nil
}

func (s *DynamoReportStore) writeWithRetry(ctx context.Context, writeRequests []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			s.table: writeRequests,
		},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write report rows: %w", err)
	}

	retryCount := 0
	backoff := s.backoff
	for len(out.UnprocessedItems) > 0 && retryCount < 3 {
		time.Sleep(backoff)
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed report rows...",
			slog.Int("attempt", retryCount+1),
			slog.Int("remaining", len(out.UnprocessedItems[s.table])))

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error %w", err)
		}
		retryCount++
	}

	if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d report rows not written after retries", remaining)
	}
	return nil
}

func ReportToDynamoDBItems(report models.Report) ([]map[string]types.AttributeValue, error) {
	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	items := make([]map[string]types.AttributeValue, 0, len(report.Rows))
	for i, row := range report.Rows {
		item, err := attributevalue.MarshalMap(ReportRowItem{
			ReportID:  report.ID,
			RowIndex:  i,
			Review:    row.ReviewText,
			Sentiment: row.SentimentLabel,
			IsError:   row.IsError(),
			CreatedAt: createdAt.Unix(),
			TTL:       createdAt.Add(REPORT_TTL).Unix(),
		})
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] failed to marshal report row %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}
