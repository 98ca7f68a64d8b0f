package dynarec

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

func TestNewResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   Kind
	}{
		{"success", nil, http.StatusOK, ""},
		{"validation", validationError(OpCreate, "", errors.New("key is required")), http.StatusBadRequest, KindValidation},
		{"not found", &Error{Op: OpRead, Kind: KindNotFound, Err: ErrNotFound}, http.StatusNotFound, KindNotFound},
		{"precondition", classify(OpDelete, "Heat", &types.ConditionalCheckFailedException{Item: Item{"title": &types.AttributeValueMemberS{Value: "Heat"}}}), http.StatusConflict, KindPreconditionFailed},
		{"throttled", classify(OpRead, "Heat", &types.ProvisionedThroughputExceededException{}), http.StatusServiceUnavailable, KindStoreFault},
		{"timeout", classify(OpRead, "Heat", context.DeadlineExceeded), http.StatusServiceUnavailable, KindStoreFault},
		{"access denied", classify(OpRead, "Heat", &smithy.GenericAPIError{Code: "AccessDeniedException"}), http.StatusInternalServerError, KindStoreFault},
		{"foreign error", errors.New("boom"), http.StatusInternalServerError, KindStoreFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewResponse(Record{"title": "Heat"}, tt.err)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if resp.Headers["Content-Type"] != ContentTypeJSON {
				t.Errorf("expected JSON content type, got %q", resp.Headers["Content-Type"])
			}

			if tt.err == nil {
				if _, ok := resp.Body.(Record); !ok {
					t.Errorf("expected record body, got %T", resp.Body)
				}
				return
			}

			body, ok := resp.Body.(ErrorBody)
			if !ok {
				t.Fatalf("expected error body, got %T", resp.Body)
			}
			if body.Error.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, body.Error.Kind)
			}
			if body.Error.Message == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestResponse_JSON(t *testing.T) {
	err := classify(OpDelete, "Heat", &types.ConditionalCheckFailedException{Item: Item{"title": &types.AttributeValueMemberS{Value: "Heat"}}})
	resp := NewResponse(nil, err)

	raw, merr := json.Marshal(resp)
	if merr != nil {
		t.Fatalf("json.Marshal failed: %v", merr)
	}

	var decoded struct {
		StatusCode int               `json:"statusCode"`
		Headers    map[string]string `json:"headers"`
		Body       struct {
			Error struct {
				Kind string `json:"kind"`
				Code string `json:"code"`
			} `json:"error"`
		} `json:"body"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}

	if decoded.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", decoded.StatusCode)
	}
	if decoded.Body.Error.Kind != "PreconditionFailed" {
		t.Errorf("expected PreconditionFailed, got %s", decoded.Body.Error.Kind)
	}
	if decoded.Body.Error.Code != "ConditionalCheckFailedException" {
		t.Errorf("expected code, got %s", decoded.Body.Error.Code)
	}
}

func TestResponse_APIGatewayProxyResponse(t *testing.T) {
	rec := Record{"info": map[string]any{"rating": json.Number("4.8")}}

	proxy, err := NewResponse(rec, nil).APIGatewayProxyResponse()
	if err != nil {
		t.Fatalf("APIGatewayProxyResponse failed: %v", err)
	}
	if proxy.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", proxy.StatusCode)
	}
	if proxy.Body != `{"info":{"rating":4.8}}` {
		t.Errorf("unexpected body %s", proxy.Body)
	}
	if proxy.Headers["Content-Type"] != ContentTypeJSON {
		t.Errorf("expected JSON content type, got %q", proxy.Headers["Content-Type"])
	}
}
