package dynamock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/dynarec"
)

type DynamoDBAPICall[T, U any] = func(context.Context, *T, ...func(*dynamodb.Options)) (*U, error)

// DynamoDBAPI defines the DynamoDB operations required by dynarec and its
// health checks.
type DynamoDBAPI interface {
	dynarec.DynamoDBClient
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// MockClient is a simple expectation-based mock for DynamoDB operations.
// Users can set expectations for specific operations without needing integration.
type MockClient struct {
	PutFunc           DynamoDBAPICall[dynamodb.PutItemInput, dynamodb.PutItemOutput]
	GetFunc           DynamoDBAPICall[dynamodb.GetItemInput, dynamodb.GetItemOutput]
	UpdateFunc        DynamoDBAPICall[dynamodb.UpdateItemInput, dynamodb.UpdateItemOutput]
	DeleteFunc        DynamoDBAPICall[dynamodb.DeleteItemInput, dynamodb.DeleteItemOutput]
	DescribeTableFunc DynamoDBAPICall[dynamodb.DescribeTableInput, dynamodb.DescribeTableOutput]
}

// Ensure MockClient implements DynamoDBAPI
var _ DynamoDBAPI = (*MockClient)(nil)

// NewMockClient creates a new mock DynamoDB client. Every operation fails
// the test until an expectation is set.
func NewMockClient(t testing.TB) *MockClient {
	return &MockClient{
		PutFunc:           defaultFunc[dynamodb.PutItemInput, dynamodb.PutItemOutput](t),
		GetFunc:           defaultFunc[dynamodb.GetItemInput, dynamodb.GetItemOutput](t),
		UpdateFunc:        defaultFunc[dynamodb.UpdateItemInput, dynamodb.UpdateItemOutput](t),
		DeleteFunc:        defaultFunc[dynamodb.DeleteItemInput, dynamodb.DeleteItemOutput](t),
		DescribeTableFunc: defaultFunc[dynamodb.DescribeTableInput, dynamodb.DescribeTableOutput](t),
	}
}

func defaultFunc[T, U any](t testing.TB) DynamoDBAPICall[T, U] {
	return func(ctx context.Context, params *T, optFns ...func(*dynamodb.Options)) (*U, error) {
		t.Helper()
		t.Fatalf("unexpected call with %T", params)
		return nil, nil
	}
}

// Fail returns an expectation that always fails with err.
func Fail[T, U any](err error) DynamoDBAPICall[T, U] {
	return func(ctx context.Context, params *T, optFns ...func(*dynamodb.Options)) (*U, error) {
		return nil, err
	}
}

// PutItem stores an item in the mock table.
func (m *MockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return m.PutFunc(ctx, params, optFns...)
}

// GetItem retrieves an item from the mock table.
func (m *MockClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return m.GetFunc(ctx, params, optFns...)
}

// UpdateItem updates an item in the mock table.
func (m *MockClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return m.UpdateFunc(ctx, params, optFns...)
}

// DeleteItem removes an item from the mock table.
func (m *MockClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return m.DeleteFunc(ctx, params, optFns...)
}

// DescribeTable describes the mock table.
func (m *MockClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return m.DescribeTableFunc(ctx, params, optFns...)
}
