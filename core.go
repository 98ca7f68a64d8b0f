package dynarec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Default attribute names, matching the movies table layout.
const (
	DefaultKeyAttribute       = "title"
	DefaultPartitionAttribute = "year"
	DefaultInfoAttribute      = "info"
	DefaultActorsAttribute    = "actors"
	DefaultRatingAttribute    = "rating"
	DefaultPlotAttribute      = "plot"
)

// Default values substituted for empty request fields.
const (
	DefaultPartition = "0"
	DefaultRating    = "0.0"
)

// Table contains DynamoDB table configuration and attribute names.
type Table struct {
	TableName          string // Main table name
	KeyAttribute       string // Hash key attribute. Default is 'title'.
	PartitionAttribute string // Partition hint attribute, written on create only. Default is 'year'.
	InfoAttribute      string // Nested map attribute holding open fields. Default is 'info'.
	ActorsAttribute    string // Nested attribute under info; delete requires it to exist.
	RatingAttribute    string // Nested attribute under info set by update.
	PlotAttribute      string // Nested attribute under info set by update.
	ConsistentRead     bool   // Use strongly consistent reads. Default is true.
}

// NewTable creates a new Table with default configuration.
func NewTable(tableName string) *Table {
	return &Table{
		TableName:          tableName,
		KeyAttribute:       DefaultKeyAttribute,
		PartitionAttribute: DefaultPartitionAttribute,
		InfoAttribute:      DefaultInfoAttribute,
		ActorsAttribute:    DefaultActorsAttribute,
		RatingAttribute:    DefaultRatingAttribute,
		PlotAttribute:      DefaultPlotAttribute,
		ConsistentRead:     true,
	}
}

func (t *Table) infoPath(attr string) string {
	return t.InfoAttribute + "." + attr
}

// Item is an alias for the dynamodb attribute value map.
type Item = map[string]types.AttributeValue

// Record is a decoded item. Nested maps decode to map[string]any and numbers
// decode to json.Number so that decimal values survive a JSON round trip.
type Record map[string]any

// String returns the string attribute stored under name, or "" if absent.
func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Lookup follows a nested attribute path through map values.
func (r Record) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(r)
	for _, name := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[name]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// UnmarshalRecord decodes item into a Record. An empty item yields an empty,
// non-nil Record.
func UnmarshalRecord(item Item) (Record, error) {
	out := map[string]any{}
	if len(item) == 0 {
		return out, nil
	}

	err := attributevalue.UnmarshalMapWithOptions(item, &out, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return normalizeNumbers(out).(map[string]any), nil
}

// normalizeNumbers swaps attributevalue.Number for json.Number so records
// encode numbers as JSON number literals.
func normalizeNumbers(v any) any {
	switch tv := v.(type) {
	case attributevalue.Number:
		return json.Number(tv)
	case map[string]any:
		for k, elem := range tv {
			tv[k] = normalizeNumbers(elem)
		}
		return tv
	case []any:
		for i, elem := range tv {
			tv[i] = normalizeNumbers(elem)
		}
		return tv
	default:
		return v
	}
}

// DynamoDBClient interface for easier testing and connection management.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ DynamoDBClient = (*dynamodb.Client)(nil)
