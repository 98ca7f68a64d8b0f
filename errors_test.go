package dynarec

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantCode string
	}{
		{
			name:     "condition failed with item",
			err:      &types.ConditionalCheckFailedException{Item: Item{"title": &types.AttributeValueMemberS{Value: "Heat"}}},
			wantKind: KindPreconditionFailed,
			wantCode: "ConditionalCheckFailedException",
		},
		{
			name:     "condition failed without item",
			err:      &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")},
			wantKind: KindNotFound,
			wantCode: "ConditionalCheckFailedException",
		},
		{
			name:     "validation exception",
			err:      &smithy.GenericAPIError{Code: "ValidationException", Message: "empty key"},
			wantKind: KindValidation,
			wantCode: "ValidationException",
		},
		{
			name:     "throttling",
			err:      &types.ProvisionedThroughputExceededException{},
			wantKind: KindStoreFault,
			wantCode: "ProvisionedThroughputExceededException",
		},
		{
			name:     "access denied",
			err:      &smithy.GenericAPIError{Code: "AccessDeniedException"},
			wantKind: KindStoreFault,
			wantCode: "AccessDeniedException",
		},
		{
			name:     "missing table",
			err:      &types.ResourceNotFoundException{},
			wantKind: KindStoreFault,
			wantCode: "ResourceNotFoundException",
		},
		{
			name:     "context canceled",
			err:      context.Canceled,
			wantKind: KindStoreFault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := classify(OpDelete, "Heat", tt.err)

			if e.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, e.Kind)
			}
			if e.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, e.Code)
			}
			if !errors.Is(e, tt.err) {
				t.Error("expected classified error to wrap the cause")
			}
			if e.Op != OpDelete || e.Key != "Heat" {
				t.Errorf("unexpected op/key %s/%s", e.Op, e.Key)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	sentinels := map[Kind]error{
		KindValidation:         ErrValidation,
		KindNotFound:           ErrNotFound,
		KindPreconditionFailed: ErrPreconditionFailed,
		KindStoreFault:         ErrStoreFault,
	}

	for kind, sentinel := range sentinels {
		t.Run(string(kind), func(t *testing.T) {
			err := fmt.Errorf("handler: %w", &Error{Op: OpRead, Kind: kind, Err: errors.New("cause")})

			if !errors.Is(err, sentinel) {
				t.Errorf("expected errors.Is(%v, %v)", err, sentinel)
			}
			for other, s := range sentinels {
				if other != kind && errors.Is(err, s) {
					t.Errorf("did not expect %s error to match %v", kind, s)
				}
			}
			if KindOf(err) != kind {
				t.Errorf("expected KindOf %s, got %s", kind, KindOf(err))
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	err := &Error{Op: OpUpdate, Key: "Heat", Kind: KindNotFound, Err: ErrNotFound}

	if got, want := err.Error(), `update "Heat": NotFound: record not found`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestKindOf_Foreign(t *testing.T) {
	if KindOf(errors.New("boom")) != KindStoreFault {
		t.Error("expected foreign errors to be store faults")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"provisioned throughput", &types.ProvisionedThroughputExceededException{}, true},
		{"request limit", &types.RequestLimitExceeded{}, true},
		{"internal server error", &types.InternalServerError{}, true},
		{"throttling code", &smithy.GenericAPIError{Code: "ThrottlingException"}, true},
		{"wrapped throttling", &Error{Kind: KindStoreFault, Err: &types.ProvisionedThroughputExceededException{}}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDeniedException"}, false},
		{"condition failed", &types.ConditionalCheckFailedException{}, false},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
