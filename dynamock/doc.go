// Package dynamock provides testing utilities for the dynarec library.
//
// This package includes:
//   - Expectation-based mock DynamoDB client for fault injection
//   - In-memory DynamoDB double that honours the adapter's conditions
//   - Local DynamoDB integration utilities
//   - Record builders and JSON seeding helpers
//
// # Mock Client
//
// The MockClient provides an expectation-based mock implementation where you set
// expectations for specific operations. Any operation without an expectation
// fails the test:
//
//	mock := dynamock.NewMockClient(t)
//	mock.GetFunc = func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
//		return nil, dynamock.ThrottlingError()
//	}
//
//	adapter := dynarec.New(mock, dynarec.NewTable("movies"))
//	_, err := adapter.Read(ctx, dynarec.ReadRequest{Key: "Heat"}) // StoreFault, retryable
//
// # Memory Client
//
// MemoryClient stores items in memory and evaluates the condition and update
// expressions the adapter sends (attribute_exists, attribute_not_exists, AND,
// and SET on nested paths). It honours ReturnValues and
// ReturnValuesOnConditionCheckFailure, so not-found and precondition paths
// behave as they do against DynamoDB:
//
//	dynamock.WithIsolatedTable(t, func(client *dynamock.MemoryClient, table *dynarec.Table) {
//		dynamock.NewRecord(table, "Heat", dynamock.WithoutActors()).Put(client)
//
//		adapter := dynarec.New(client, table)
//		_, err := adapter.Delete(ctx, dynarec.DeleteRequest{Key: "Heat"})
//		// errors.Is(err, dynarec.ErrPreconditionFailed)
//	})
//
// # Seeding
//
//	seeder := dynamock.NewSeedTestData(client, table)
//	n, err := seeder.SeedFromJSON(ctx, strings.NewReader(`[{"title": "Heat", "year": "1995"}]`))
//
// # Local DynamoDB Integration
//
// For integration testing with DynamoDB Local:
//
//	func TestWithLocalDynamoDB(t *testing.T) {
//		dynamock.RunIntegrationTest(t, nil, func(local *dynamock.LocalDynamoDB, table *dynarec.Table) {
//			adapter := dynarec.New(local.Client, table)
//			// ...
//		})
//	}
//
// Start DynamoDB Local with:
//
//	docker run -p 8000:8000 amazon/dynamodb-local
//
// Integration tests are skipped in short mode and when DynamoDB Local is not
// running.
package dynamock
