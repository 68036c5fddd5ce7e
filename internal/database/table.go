package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"catalog-service/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Item is a single stored record: attribute name to scalar value.
// Numbers come back from the store as float64.
type Item map[string]any

// Store is a keyed item store over one table.
type Store interface {
	// Create writes the item, replacing any item with the same key.
	Create(ctx context.Context, item Item) error
	// Read returns nil when no item has the given key.
	Read(ctx context.Context, id string) (Item, error)
	// Update sets only the given attributes and reports whether the item existed.
	Update(ctx context.Context, id string, attrs Item) (bool, error)
	// ReadAll returns every item in the table, never nil.
	ReadAll(ctx context.Context) ([]Item, error)
}

// DynamoDBAPI is the subset of the DynamoDB client used by Table.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// TableConfig names a table and its string partition key attribute.
type TableConfig struct {
	Name string
	Key  string
}

func (c TableConfig) validate() error {
	if c.Name == "" {
		return errors.New("table name is required")
	}
	if c.Key == "" {
		return errors.New("key attribute is required")
	}
	return nil
}

// Table is a Store backed by a single DynamoDB table.
type Table struct {
	client  DynamoDBAPI
	config  TableConfig
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewTable creates a Table. collector may be nil.
func NewTable(client DynamoDBAPI, cfg TableConfig, logger *zap.Logger, collector *metrics.Collector) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid table config: %w", err)
	}

	return &Table{
		client:  client,
		config:  cfg,
		logger:  logger.Named("database").With(zap.String("table", cfg.Name)),
		metrics: collector,
	}, nil
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.config.Name
}

// Create writes item unconditionally. Writing the same item twice is a no-op.
func (t *Table) Create(ctx context.Context, item Item) (err error) {
	defer t.observe("put", time.Now(), &err)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.config.Name),
		Item:      av,
	})
	if err != nil {
		t.logger.Error("Failed to put item", zap.Any("key", item[t.config.Key]), zap.Error(err))
		return fmt.Errorf("failed to put item: %w", err)
	}

	return nil
}

// Read fetches the item stored under id.
func (t *Table) Read(ctx context.Context, id string) (item Item, err error) {
	defer t.observe("get", time.Now(), &err)

	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.config.Name),
		Key:       t.key(id),
	})
	if err != nil {
		t.logger.Error("Failed to get item", zap.String("key", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if len(out.Item) == 0 {
		return nil, nil
	}

	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return item, nil
}

// Update sets each attribute in attrs on the item stored under id. The write
// is conditional on the item existing, so the store itself confirms presence.
// The key attribute is never rewritten.
func (t *Table) Update(ctx context.Context, id string, attrs Item) (found bool, err error) {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		if name != t.config.Key {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		item, err := t.Read(ctx, id)
		return item != nil, err
	}

	defer t.observe("update", time.Now(), &err)

	// Stable placeholder numbering across calls
	sort.Strings(names)

	var update expression.UpdateBuilder
	for _, name := range names {
		update = update.Set(expression.Name(name), expression.Value(attrs[name]))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(t.config.Key))).
		Build()
	if err != nil {
		return false, fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.config.Name),
		Key:                       t.key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return false, nil
		}
		t.logger.Error("Failed to update item", zap.String("key", id), zap.Strings("attributes", names), zap.Error(err))
		return false, fmt.Errorf("failed to update item: %w", err)
	}

	return true, nil
}

// ReadAll scans the whole table, following every page.
func (t *Table) ReadAll(ctx context.Context) (items []Item, err error) {
	defer t.observe("scan", time.Now(), &err)

	items = make([]Item, 0)
	paginator := dynamodb.NewScanPaginator(t.client, &dynamodb.ScanInput{
		TableName: aws.String(t.config.Name),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			t.logger.Error("Failed to scan table", zap.Int("items_read", len(items)), zap.Error(err))
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}

		var batch []Item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		items = append(items, batch...)
	}

	return items, nil
}

// Health reports the table status as seen by DescribeTable.
func (t *Table) Health(ctx context.Context) map[string]string {
	stats := map[string]string{"table": t.config.Name}

	out, err := t.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(t.config.Name),
	})
	if err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	stats["status"] = "up"
	if out.Table == nil {
		return stats
	}
	stats["table_status"] = string(out.Table.TableStatus)
	if out.Table.ItemCount != nil {
		stats["item_count"] = strconv.FormatInt(*out.Table.ItemCount, 10)
	}
	return stats
}

// EnsureTable creates the table with an on-demand string hash key when it does
// not exist yet, then waits until it is active.
func (t *Table) EnsureTable(ctx context.Context, timeout time.Duration) error {
	describe := &dynamodb.DescribeTableInput{TableName: aws.String(t.config.Name)}

	_, err := t.client.DescribeTable(ctx, describe)
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table: %w", err)
	}

	t.logger.Info("Creating table", zap.String("key", t.config.Key))

	_, err = t.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(t.config.Name),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(t.config.Key), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(t.config.Key), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	if err := dynamodb.NewTableExistsWaiter(t.client).Wait(ctx, describe, timeout); err != nil {
		return fmt.Errorf("failed waiting for table: %w", err)
	}

	t.logger.Info("Table is active")
	return nil
}

func (t *Table) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		t.config.Key: &types.AttributeValueMemberS{Value: id},
	}
}

func (t *Table) observe(operation string, start time.Time, err *error) {
	t.metrics.RecordStoreOperation(operation, t.config.Name, start, *err)
}
