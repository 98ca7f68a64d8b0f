package dynamock

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nisimpson/dynarec"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	Port             int
	SkipIfNotRunning bool
	TablePrefix      string
	CleanupTimeout   time.Duration
}

// DefaultIntegrationTestConfig returns a default configuration for integration tests.
func DefaultIntegrationTestConfig() *IntegrationTestConfig {
	return &IntegrationTestConfig{
		Port:             DefaultLocalPort,
		SkipIfNotRunning: true,
		TablePrefix:      "integration-test",
		CleanupTimeout:   30 * time.Second,
	}
}

// NewTestTable generates a unique table name for testing.
func NewTestTable(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// RunIntegrationTest creates a fresh record table on DynamoDB Local, runs fn
// against it and deletes the table afterwards. The test is skipped in short
// mode, and also when DynamoDB Local is not running unless the config says
// otherwise.
func RunIntegrationTest(t *testing.T, config *IntegrationTestConfig, fn func(local *LocalDynamoDB, table *dynarec.Table)) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if config == nil {
		config = DefaultIntegrationTestConfig()
	}

	local := NewLocalDynamoDB(config.Port)
	ctx := context.Background()

	if !local.IsAvailable(ctx) {
		if config.SkipIfNotRunning {
			t.Skipf("DynamoDB Local not available on port %d", config.Port)
		}
		t.Fatalf("DynamoDB Local not available on port %d", config.Port)
	}

	table := dynarec.NewTable(NewTestTable(config.TablePrefix))
	if err := local.CreateRecordTable(ctx, table); err != nil {
		t.Fatalf("Failed to create test table %s: %v", table.TableName, err)
	}

	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), config.CleanupTimeout)
		defer cancel()

		if err := local.DeleteTable(cleanupCtx, table.TableName); err != nil {
			t.Errorf("Failed to cleanup table %s: %v", table.TableName, err)
		}
	})

	fn(local, table)
}

// WithIsolatedTable runs fn against a MemoryClient holding a table named
// after the test. It is the in-memory counterpart of RunIntegrationTest.
func WithIsolatedTable(t *testing.T, fn func(client *MemoryClient, table *dynarec.Table)) {
	t.Helper()

	name := strings.NewReplacer("/", "-", " ", "_").Replace(t.Name())
	table := dynarec.NewTable(NewTestTable("test-" + name))
	fn(NewMemoryClient(table.TableName, table.KeyAttribute), table)
}

// SeedTestData is a helper for seeding records into a table.
type SeedTestData struct {
	adapter *dynarec.Adapter
}

// NewSeedTestData creates a new test data seeder that writes through the
// adapter, so seeded items have exactly the layout Create produces.
func NewSeedTestData(client dynarec.DynamoDBClient, table *dynarec.Table) *SeedTestData {
	return &SeedTestData{
		adapter: dynarec.New(client, table),
	}
}

// SeedRecord seeds a single record into the table.
func (s *SeedTestData) SeedRecord(ctx context.Context, req dynarec.CreateRequest) error {
	if _, err := s.adapter.Create(ctx, req); err != nil {
		return fmt.Errorf("failed to seed record %q: %w", req.Key, err)
	}
	return nil
}

// SeedRecords seeds multiple records into the table.
func (s *SeedTestData) SeedRecords(ctx context.Context, reqs ...dynarec.CreateRequest) error {
	for _, req := range reqs {
		if err := s.SeedRecord(ctx, req); err != nil {
			return err
		}
	}
	return nil
}
