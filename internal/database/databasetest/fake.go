// Package databasetest provides an in-memory DynamoDB client for tests.
package databasetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type table struct {
	key   string
	items map[string]map[string]types.AttributeValue
}

// FakeDynamoDB implements the item and table calls of the DynamoDB client
// against maps. Only single string hash keys are supported, and update
// expressions are limited to SET clauses.
type FakeDynamoDB struct {
	mu     sync.Mutex
	tables map[string]*table

	// PageSize caps the items returned per Scan call when the input has no Limit.
	PageSize int

	// Err, when set, is returned by every call.
	Err error

	// Calls counts invocations per operation name.
	Calls map[string]int
}

// NewFakeDynamoDB returns an empty fake with no tables.
func NewFakeDynamoDB() *FakeDynamoDB {
	return &FakeDynamoDB{
		tables:   make(map[string]*table),
		PageSize: 100,
		Calls:    make(map[string]int),
	}
}

// AddTable registers a table keyed by the given string attribute.
func (f *FakeDynamoDB) AddTable(name, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[name] = &table{key: key, items: make(map[string]map[string]types.AttributeValue)}
}

// Len returns the number of items stored in a table.
func (f *FakeDynamoDB) Len(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tables[name]; ok {
		return len(t.items)
	}
	return 0
}

func (f *FakeDynamoDB) begin(op string, name *string) (*table, error) {
	f.Calls[op]++
	if f.Err != nil {
		return nil, f.Err
	}
	t, ok := f.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Cannot do operations on a non-existent table")}
	}
	return t, nil
}

func (t *table) keyValue(key map[string]types.AttributeValue) (string, error) {
	s, ok := key[t.key].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("missing string key attribute %q", t.key)
	}
	return s.Value, nil
}

func (f *FakeDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.begin("GetItem", params.TableName)
	if err != nil {
		return nil, err
	}
	id, err := t.keyValue(params.Key)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: copyItem(t.items[id])}, nil
}

func (f *FakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.begin("PutItem", params.TableName)
	if err != nil {
		return nil, err
	}
	id, err := t.keyValue(params.Item)
	if err != nil {
		return nil, err
	}
	t.items[id] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *FakeDynamoDB) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.begin("UpdateItem", params.TableName)
	if err != nil {
		return nil, err
	}
	id, err := t.keyValue(params.Key)
	if err != nil {
		return nil, err
	}

	existing, found := t.items[id]
	if strings.HasPrefix(aws.ToString(params.ConditionExpression), "attribute_exists") && !found {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	sets, err := parseSet(aws.ToString(params.UpdateExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}

	item := copyItem(existing)
	if item == nil {
		item = copyItem(params.Key)
	}
	for name, value := range sets {
		item[name] = value
	}
	t.items[id] = item

	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *FakeDynamoDB) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.begin("Scan", params.TableName)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if params.ExclusiveStartKey != nil {
		after, err := t.keyValue(params.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		start = sort.SearchStrings(ids, after)
		if start < len(ids) && ids[start] == after {
			start++
		}
	}

	limit := f.PageSize
	if params.Limit != nil {
		limit = int(*params.Limit)
	}

	out := &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{}}
	end := start + limit
	if end >= len(ids) {
		end = len(ids)
	} else {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			t.key: &types.AttributeValueMemberS{Value: ids[end-1]},
		}
	}
	for _, id := range ids[start:end] {
		out.Items = append(out.Items, copyItem(t.items[id]))
	}
	out.Count = int32(len(out.Items))

	return out, nil
}

func (f *FakeDynamoDB) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.begin("DescribeTable", params.TableName)
	if err != nil {
		return nil, err
	}
	count := int64(len(t.items))
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
			ItemCount:   &count,
		},
	}, nil
}

func (f *FakeDynamoDB) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls["CreateTable"]++
	if f.Err != nil {
		return nil, f.Err
	}
	name := aws.ToString(params.TableName)
	if _, ok := f.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}
	if len(params.KeySchema) != 1 {
		return nil, errors.New("only a single hash key is supported")
	}
	f.tables[name] = &table{
		key:   aws.ToString(params.KeySchema[0].AttributeName),
		items: make(map[string]map[string]types.AttributeValue),
	}
	return &dynamodb.CreateTableOutput{
		TableDescription: &types.TableDescription{TableName: params.TableName, TableStatus: types.TableStatusActive},
	}, nil
}

// parseSet resolves "SET #0 = :0, #1 = :1" against the placeholder maps.
func parseSet(expr string, names map[string]string, values map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "SET ") {
		return nil, fmt.Errorf("unsupported update expression %q", expr)
	}

	out := make(map[string]types.AttributeValue)
	for _, clause := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed clause %q", clause)
		}
		namePlaceholder := strings.TrimSpace(parts[0])
		valuePlaceholder := strings.TrimSpace(parts[1])

		name, ok := names[namePlaceholder]
		if !ok {
			name = namePlaceholder
		}
		value, ok := values[valuePlaceholder]
		if !ok {
			return nil, fmt.Errorf("unbound value placeholder %q", valuePlaceholder)
		}
		out[name] = value
	}
	return out, nil
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
