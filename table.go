package dynarec

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key returns the primary key item for the record addressed by key.
func (t *Table) Key(key string) Item {
	return Item{
		t.KeyAttribute: &types.AttributeValueMemberS{Value: key},
	}
}

// MarshalItem builds the full item written by a create request. Empty
// partition and actors values are replaced by their defaults; the key is
// used as given.
func (t *Table) MarshalItem(req CreateRequest) (Item, error) {
	item, err := attributevalue.MarshalMap(map[string]any{
		t.KeyAttribute:       req.Key,
		t.PartitionAttribute: orDefault(req.Partition, DefaultPartition),
		t.InfoAttribute: map[string]any{
			t.ActorsAttribute: req.Actors,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}
	return item, nil
}

// MarshalPut marshals the request into an unconditional put item request.
// An existing record with the same key is overwritten.
func (t *Table) MarshalPut(req CreateRequest) (*dynamodb.PutItemInput, error) {
	item, err := t.MarshalItem(req)
	if err != nil {
		return nil, err
	}

	return &dynamodb.PutItemInput{
		TableName: aws.String(t.TableName),
		Item:      item,
	}, nil
}

// MarshalGet marshals a point lookup of key into a get item request.
func (t *Table) MarshalGet(key string) (*dynamodb.GetItemInput, error) {
	return &dynamodb.GetItemInput{
		TableName:      aws.String(t.TableName),
		Key:            t.Key(key),
		ConsistentRead: aws.Bool(t.ConsistentRead),
	}, nil
}

// MarshalUpdate marshals a partial update of the rating and plot attributes
// nested under the info attribute. The update is conditional on the record
// existing, so it never creates one. Only the updated values are returned on
// success; the current item is returned if the condition fails.
func (t *Table) MarshalUpdate(key string, rating Rating, plot string) (*dynamodb.UpdateItemInput, error) {
	update := expression.
		Set(expression.Name(t.infoPath(t.RatingAttribute)), expression.Value(rating)).
		Set(expression.Name(t.infoPath(t.PlotAttribute)), expression.Value(plot))

	condition := expression.AttributeExists(expression.Name(t.KeyAttribute))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return &dynamodb.UpdateItemInput{
		TableName:                           aws.String(t.TableName),
		Key:                                 t.Key(key),
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValues:                        types.ReturnValueUpdatedNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}, nil
}

// MarshalDelete marshals a conditional delete of key. The delete only
// proceeds if the nested actors attribute exists. The prior item is returned
// on success and on condition failure.
func (t *Table) MarshalDelete(key string) (*dynamodb.DeleteItemInput, error) {
	condition := expression.AttributeExists(expression.Name(t.infoPath(t.ActorsAttribute)))

	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return &dynamodb.DeleteItemInput{
		TableName:                           aws.String(t.TableName),
		Key:                                 t.Key(key),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValues:                        types.ReturnValueAllOld,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}, nil
}

// MarshalCreateTable marshals the table definition: a single string hash key
// with on-demand billing. It is meant for DynamoDB Local and development
// accounts; production tables are provisioned outside this package.
func (t *Table) MarshalCreateTable() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(t.TableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String(t.KeyAttribute),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String(t.KeyAttribute),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
}
