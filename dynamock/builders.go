package dynamock

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynarec"
)

// RecordOption is a functional option for configuring records during building.
type RecordOption func(*RecordBuilder)

// RecordBuilder builds raw items in the record table layout. It can produce
// items the adapter itself never writes, such as a record without
// info.actors, to exercise conditional paths.
type RecordBuilder struct {
	table  *dynarec.Table
	key    string
	info   map[string]types.AttributeValue
	noInfo bool
	extra  map[string]types.AttributeValue
}

// NewRecord creates a record builder for key with the given options applied.
// The record starts with year 0 and an empty actors string, matching what
// Create writes for an empty request.
func NewRecord(table *dynarec.Table, key string, opts ...RecordOption) *RecordBuilder {
	b := &RecordBuilder{
		table: table,
		key:   key,
		info: map[string]types.AttributeValue{
			table.ActorsAttribute: &types.AttributeValueMemberS{Value: ""},
		},
		extra: make(map[string]types.AttributeValue),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithYear sets the partition hint. It is stored as a string, as Create does.
func WithYear(year string) RecordOption {
	return func(b *RecordBuilder) {
		b.extra[b.table.PartitionAttribute] = &types.AttributeValueMemberS{Value: year}
	}
}

// WithActors sets info.actors.
func WithActors(actors string) RecordOption {
	return func(b *RecordBuilder) {
		b.info[b.table.ActorsAttribute] = &types.AttributeValueMemberS{Value: actors}
	}
}

// WithoutActors removes info.actors, so a conditional delete will fail.
func WithoutActors() RecordOption {
	return func(b *RecordBuilder) {
		delete(b.info, b.table.ActorsAttribute)
	}
}

// WithoutInfo removes the info map entirely.
func WithoutInfo() RecordOption {
	return func(b *RecordBuilder) {
		b.noInfo = true
	}
}

// WithRating sets info.rating to the given decimal literal.
func WithRating(rating string) RecordOption {
	return func(b *RecordBuilder) {
		b.info[b.table.RatingAttribute] = &types.AttributeValueMemberN{Value: rating}
	}
}

// WithPlot sets info.plot.
func WithPlot(plot string) RecordOption {
	return func(b *RecordBuilder) {
		b.info[b.table.PlotAttribute] = &types.AttributeValueMemberS{Value: plot}
	}
}

// WithAttribute sets an arbitrary top-level attribute.
func WithAttribute(name string, value types.AttributeValue) RecordOption {
	return func(b *RecordBuilder) {
		b.extra[name] = value
	}
}

// Item returns the built item.
func (b *RecordBuilder) Item() dynarec.Item {
	item := dynarec.Item{
		b.table.KeyAttribute: &types.AttributeValueMemberS{Value: b.key},
	}
	if _, ok := b.extra[b.table.PartitionAttribute]; !ok {
		item[b.table.PartitionAttribute] = &types.AttributeValueMemberS{Value: dynarec.DefaultPartition}
	}
	for name, value := range b.extra {
		item[name] = CopyValue(value)
	}
	if !b.noInfo {
		item[b.table.InfoAttribute] = &types.AttributeValueMemberM{Value: CopyItem(b.info)}
	}
	return item
}

// Put stores the built item directly in client, bypassing any condition.
func (b *RecordBuilder) Put(client *MemoryClient) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.items[b.key] = b.Item()
}
