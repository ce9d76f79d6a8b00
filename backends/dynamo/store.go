package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/hearthside/foyer"
	"github.com/hearthside/foyer/core/models"
	"github.com/nyaruka/gocommon/aws/dynamo"
)

func init() {
	foyer.RegisterStore("dynamo", newStore)
}

// store is a DynamoDB backed implementation of foyer.Store. All records live in a single table
// keyed by pk and sk. The client is safe for concurrent use so handlers share this instance.
type store struct {
	config *foyer.Config
	dynamo *dynamo.Service
	table  string
}

func newStore(config *foyer.Config) foyer.Store {
	return &store{config: config}
}

func (s *store) Start() error {
	cfg := s.config

	ds, err := dynamo.NewService(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSRegion, cfg.DynamoEndpoint, cfg.DynamoTablePrefix)
	if err != nil {
		return fmt.Errorf("error creating DynamoDB service: %w", err)
	}
	s.dynamo = ds
	s.table = ds.TableName(cfg.DynamoTable)

	// test our connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = ds.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		slog.Error("dynamo not reachable", "comp", "store", "table", s.table, "error", err)
	} else {
		slog.Info("dynamo ok", "comp", "store", "table", s.table)
	}

	return nil
}

func (s *store) Stop() error { return nil }

// PutRecord writes the passed in record, unconditionally. Records whose sort key already exists
// are overwritten, which is what makes repeat subscribes idempotent.
func (s *store) PutRecord(ctx context.Context, r *models.Record) error {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return fmt.Errorf("error marshalling record %s: %w", r.DynamoKey, err)
	}

	_, err = s.dynamo.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("error writing record %s: %w", r.DynamoKey, err)
	}

	return nil
}

// SampleRecords reads a single page of at most limit records. This is deliberately a bounded
// sample rather than a full scan, so counts computed from it are approximate.
func (s *store) SampleRecords(ctx context.Context, limit int) ([]*models.Record, error) {
	resp, err := s.dynamo.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
		Limit:     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning records: %w", err)
	}

	records := make([]*models.Record, 0, len(resp.Items))
	if err := attributevalue.UnmarshalListOfMaps(resp.Items, &records); err != nil {
		return nil, fmt.Errorf("error unmarshalling records: %w", err)
	}

	return records, nil
}

func (s *store) Health() string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.dynamo.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return fmt.Sprintf("\n% 16s: %v", "dynamo err", err)
	}
	return ""
}
