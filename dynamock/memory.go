package dynamock

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// MemoryClient is an in-memory DynamoDB double for a single hash-key table.
// It evaluates the condition and update expressions produced by dynarec and
// honours ReturnValues and ReturnValuesOnConditionCheckFailure, so adapter
// behaviour can be tested without DynamoDB Local. Items are deep-copied on
// the way in and out.
type MemoryClient struct {
	TableName    string
	KeyAttribute string

	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
	calls map[string]int
}

var _ DynamoDBAPI = (*MemoryClient)(nil)

// NewMemoryClient creates an empty table keyed by keyAttribute.
func NewMemoryClient(tableName, keyAttribute string) *MemoryClient {
	return &MemoryClient{
		TableName:    tableName,
		KeyAttribute: keyAttribute,
		items:        make(map[string]map[string]types.AttributeValue),
		calls:        make(map[string]int),
	}
}

// Item returns a copy of the stored item for key.
func (m *MemoryClient) Item(key string) (map[string]types.AttributeValue, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[key]
	if !ok {
		return nil, false
	}
	return CopyItem(item), true
}

// Len returns the number of stored items.
func (m *MemoryClient) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Calls returns how many times the named operation (e.g. "PutItem") was invoked.
func (m *MemoryClient) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

func (m *MemoryClient) checkTable(name *string) error {
	if aws.ToString(name) != m.TableName {
		return &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: " + aws.ToString(name))}
	}
	return nil
}

func (m *MemoryClient) keyOf(item map[string]types.AttributeValue) (string, error) {
	av, ok := item[m.KeyAttribute]
	if !ok {
		return "", validationException("One of the required keys was not given a value")
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", validationException("Type mismatch for key " + m.KeyAttribute)
	}
	if s.Value == "" {
		return "", validationException("One or more parameter values are not valid. The AttributeValue for a key attribute cannot contain an empty string value. Key: " + m.KeyAttribute)
	}
	return s.Value, nil
}

func conditionFailed(old map[string]types.AttributeValue, rv types.ReturnValuesOnConditionCheckFailure) error {
	err := &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	if rv == types.ReturnValuesOnConditionCheckFailureAllOld && old != nil {
		err.Item = CopyItem(old)
	}
	return err
}

// PutItem stores an item, replacing any item with the same key.
func (m *MemoryClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["PutItem"]++

	if err := m.checkTable(params.TableName); err != nil {
		return nil, err
	}
	key, err := m.keyOf(params.Item)
	if err != nil {
		return nil, err
	}

	old := m.items[key]
	ok, err := evalCondition(aws.ToString(params.ConditionExpression), params.ExpressionAttributeNames, old)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conditionFailed(old, params.ReturnValuesOnConditionCheckFailure)
	}

	m.items[key] = CopyItem(params.Item)

	out := &dynamodb.PutItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld && old != nil {
		out.Attributes = CopyItem(old)
	}
	return out, nil
}

// GetItem returns the item for the key, or an output with a nil Item.
func (m *MemoryClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetItem"]++

	if err := m.checkTable(params.TableName); err != nil {
		return nil, err
	}
	key, err := m.keyOf(params.Key)
	if err != nil {
		return nil, err
	}

	out := &dynamodb.GetItemOutput{}
	if item, ok := m.items[key]; ok {
		out.Item = CopyItem(item)
	}
	return out, nil
}

// UpdateItem applies SET actions to the item. As in DynamoDB, a missing item
// is created from the key when no condition prevents it.
func (m *MemoryClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["UpdateItem"]++

	if err := m.checkTable(params.TableName); err != nil {
		return nil, err
	}
	key, err := m.keyOf(params.Key)
	if err != nil {
		return nil, err
	}

	old := m.items[key]
	ok, err := evalCondition(aws.ToString(params.ConditionExpression), params.ExpressionAttributeNames, old)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conditionFailed(old, params.ReturnValuesOnConditionCheckFailure)
	}

	actions, err := parseUpdate(aws.ToString(params.UpdateExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}

	updated := CopyItem(old)
	if updated == nil {
		updated = CopyItem(params.Key)
	}
	for _, action := range actions {
		if err := setPath(updated, action.path, CopyValue(action.value)); err != nil {
			return nil, err
		}
	}
	m.items[key] = updated

	out := &dynamodb.UpdateItemOutput{}
	switch params.ReturnValues {
	case types.ReturnValueAllNew:
		out.Attributes = CopyItem(updated)
	case types.ReturnValueAllOld:
		out.Attributes = CopyItem(old)
	case types.ReturnValueUpdatedNew:
		out.Attributes = project(updated, actions)
	case types.ReturnValueUpdatedOld:
		if old != nil {
			out.Attributes = project(old, actions)
		}
	}
	return out, nil
}

// DeleteItem removes the item if the condition holds.
func (m *MemoryClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["DeleteItem"]++

	if err := m.checkTable(params.TableName); err != nil {
		return nil, err
	}
	key, err := m.keyOf(params.Key)
	if err != nil {
		return nil, err
	}

	old := m.items[key]
	ok, err := evalCondition(aws.ToString(params.ConditionExpression), params.ExpressionAttributeNames, old)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conditionFailed(old, params.ReturnValuesOnConditionCheckFailure)
	}

	delete(m.items, key)

	out := &dynamodb.DeleteItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld && old != nil {
		out.Attributes = CopyItem(old)
	}
	return out, nil
}

// DescribeTable reports the table as active.
func (m *MemoryClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["DescribeTable"]++

	if err := m.checkTable(params.TableName); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   aws.String(m.TableName),
			TableStatus: types.TableStatusActive,
			ItemCount:   aws.Int64(int64(len(m.items))),
		},
	}, nil
}

// project copies only the assigned paths out of item, preserving nesting.
func project(item map[string]types.AttributeValue, actions []assignment) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue)
	for _, action := range actions {
		av, ok := lookupPath(item, action.path)
		if !ok {
			continue
		}
		cur := out
		for _, name := range action.path[:len(action.path)-1] {
			next, ok := cur[name].(*types.AttributeValueMemberM)
			if !ok {
				next = &types.AttributeValueMemberM{Value: make(map[string]types.AttributeValue)}
				cur[name] = next
			}
			cur = next.Value
		}
		cur[action.path[len(action.path)-1]] = CopyValue(av)
	}
	return out
}

// CopyItem deep-copies an item. A nil item copies to nil.
func CopyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue deep-copies an attribute value.
func CopyValue(av types.AttributeValue) types.AttributeValue {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return &types.AttributeValueMemberS{Value: v.Value}
	case *types.AttributeValueMemberN:
		return &types.AttributeValueMemberN{Value: v.Value}
	case *types.AttributeValueMemberB:
		return &types.AttributeValueMemberB{Value: append([]byte(nil), v.Value...)}
	case *types.AttributeValueMemberBOOL:
		return &types.AttributeValueMemberBOOL{Value: v.Value}
	case *types.AttributeValueMemberNULL:
		return &types.AttributeValueMemberNULL{Value: v.Value}
	case *types.AttributeValueMemberSS:
		return &types.AttributeValueMemberSS{Value: append([]string(nil), v.Value...)}
	case *types.AttributeValueMemberNS:
		return &types.AttributeValueMemberNS{Value: append([]string(nil), v.Value...)}
	case *types.AttributeValueMemberBS:
		bs := make([][]byte, len(v.Value))
		for i, b := range v.Value {
			bs[i] = append([]byte(nil), b...)
		}
		return &types.AttributeValueMemberBS{Value: bs}
	case *types.AttributeValueMemberM:
		return &types.AttributeValueMemberM{Value: CopyItem(v.Value)}
	case *types.AttributeValueMemberL:
		l := make([]types.AttributeValue, len(v.Value))
		for i, elem := range v.Value {
			l[i] = CopyValue(elem)
		}
		return &types.AttributeValueMemberL{Value: l}
	default:
		return av
	}
}

func validationException(msg string) error {
	return &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: msg,
		Fault:   smithy.FaultClient,
	}
}

// ThrottlingError returns the error DynamoDB reports when provisioned
// throughput is exceeded.
func ThrottlingError() error {
	return &types.ProvisionedThroughputExceededException{
		Message: aws.String("The level of configured provisioned throughput for the table was exceeded"),
	}
}

// AccessDeniedError returns a permission failure.
func AccessDeniedError(action string) error {
	return &smithy.GenericAPIError{
		Code:    "AccessDeniedException",
		Message: fmt.Sprintf("User is not authorized to perform: dynamodb:%s", action),
		Fault:   smithy.FaultClient,
	}
}
