// Package dynarec provides a record-store adapter over the AWS SDK for Go v2
// DynamoDB client.
//
// The adapter exposes four point-access operations against a table whose
// records are addressed by a single key attribute: Create, Read, Update and
// Delete. Each operation is one store round trip; the adapter keeps no state
// between calls and never retries.
//
// # Table Layout
//
// The default layout matches a movies table:
//   - title (hash key): the record key
//   - year: partition hint, written on create only
//   - info: nested map holding actors, rating and plot
//
// Attribute names are configurable on [Table].
//
// # Basic Usage
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	adapter := dynarec.New(dynamodb.NewFromConfig(cfg), dynarec.NewTable("movies"))
//
//	_, err := adapter.Create(ctx, dynarec.CreateRequest{Key: "Inception", Partition: "2010", Actors: "DiCaprio"})
//	rec, err := adapter.Read(ctx, dynarec.ReadRequest{Key: "Inception"})
//	patch, err := adapter.Update(ctx, dynarec.UpdateRequest{Key: "Inception", Rating: "4.8", Plot: "A thief..."})
//	prior, err := adapter.Delete(ctx, dynarec.DeleteRequest{Key: "Inception"})
//
// # Conditions
//
// Update only applies to an existing record and fails with [ErrNotFound]
// otherwise. Delete requires info.actors to exist; if the record exists
// without it, the delete fails with [ErrPreconditionFailed] and the record is
// left in place.
//
// # Envelopes
//
// [NewResponse] wraps an operation result in the {statusCode, headers, body}
// envelope used by the Lambda and HTTP boundaries:
//
//	rec, err := adapter.Read(ctx, req)
//	resp := dynarec.NewResponse(rec, err) // 200, 400, 404, 409, 500 or 503
//
// # Ratings
//
// Ratings are exact decimals ([Rating]) and are stored as DynamoDB numbers in
// canonical form, so writing "4.5" twice stores the same value and never
// drifts through float64.
package dynarec
