package dynamock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynarec"
)

// DefaultLocalPort is the default port for DynamoDB Local.
const DefaultLocalPort = 8000

// LocalDynamoDB represents a connection to a local DynamoDB instance.
type LocalDynamoDB struct {
	Client   *dynamodb.Client
	Endpoint string
	Port     int
}

// NewLocalClient creates a DynamoDB client configured to connect to a local DynamoDB instance.
//
// Example usage:
//
//	client := dynamock.NewLocalClient(8000)
//	adapter := dynarec.New(client, dynarec.NewTable("movies"))
func NewLocalClient(port int) *dynamodb.Client {
	return NewLocalClientFromConfig(aws.Config{Region: "us-east-1"}, port)
}

// NewLocalClientFromConfig creates a local DynamoDB client from cfg, overriding
// its endpoint and credentials. DynamoDB Local accepts any credentials.
func NewLocalClientFromConfig(cfg aws.Config, port int) *dynamodb.Client {
	endpoint := fmt.Sprintf("http://localhost:%d", port)
	cfg.Credentials = aws.AnonymousCredentials{}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// NewLocalDynamoDB creates a LocalDynamoDB instance with the specified port.
func NewLocalDynamoDB(port int) *LocalDynamoDB {
	return &LocalDynamoDB{
		Client:   NewLocalClient(port),
		Endpoint: fmt.Sprintf("http://localhost:%d", port),
		Port:     port,
	}
}

// NewDefaultLocalDynamoDB creates a LocalDynamoDB instance on DefaultLocalPort.
func NewDefaultLocalDynamoDB() *LocalDynamoDB {
	return NewLocalDynamoDB(DefaultLocalPort)
}

// IsAvailable checks if DynamoDB Local is running on the configured port.
func (l *LocalDynamoDB) IsAvailable(ctx context.Context) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", l.Port), 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()

	_, err = l.Client.ListTables(ctx, &dynamodb.ListTablesInput{})
	return err == nil
}

// CreateRecordTable creates a record table described by table and waits for
// it to become active.
func (l *LocalDynamoDB) CreateRecordTable(ctx context.Context, table *dynarec.Table) error {
	return CreateTable(ctx, l.Client, table, 30*time.Second)
}

// DeleteTable deletes a table and waits for it to be fully deleted.
func (l *LocalDynamoDB) DeleteTable(ctx context.Context, tableName string) error {
	_, err := l.Client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete table %s: %w", tableName, err)
	}

	return waitFor(ctx, 30*time.Second, func() (bool, error) {
		_, err := l.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("error checking table deletion status: %w", err)
		}
		return false, nil
	})
}

// TableCreator is the subset of the DynamoDB client needed to create a table.
type TableCreator interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// CreateTable creates the table described by table and waits up to timeout
// for it to become active. A table that already exists is not an error.
func CreateTable(ctx context.Context, client TableCreator, table *dynarec.Table, timeout time.Duration) error {
	_, err := client.CreateTable(ctx, table.MarshalCreateTable())
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("failed to create table %s: %w", table.TableName, err)
	}

	err = waitFor(ctx, timeout, func() (bool, error) {
		output, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table.TableName),
		})
		if err != nil {
			return false, fmt.Errorf("failed to describe table %s: %w", table.TableName, err)
		}
		return output.Table.TableStatus == types.TableStatusActive, nil
	})
	if err != nil {
		return fmt.Errorf("table %s did not become active: %w", table.TableName, err)
	}
	return nil
}

// waitFor polls done every 500ms until it reports true, fails, or timeout elapses.
func waitFor(ctx context.Context, timeout time.Duration, done func() (bool, error)) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		ok, err := done()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}

	return fmt.Errorf("timed out after %v", timeout)
}
