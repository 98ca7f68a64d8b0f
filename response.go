package dynarec

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// ContentTypeJSON is the content type of every envelope.
const ContentTypeJSON = "application/json"

// Response is the uniform envelope returned by every operation.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       any               `json:"body"`
}

// ErrorBody is the body of a failed operation's envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed operation.
type ErrorDetail struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewResponse wraps the result of an operation in an envelope. A nil err
// yields a 200 envelope carrying body; otherwise the status reflects the
// error kind and the body is an ErrorBody.
func NewResponse(body any, err error) Response {
	resp := Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": ContentTypeJSON},
		Body:       body,
	}
	if err == nil {
		return resp
	}

	detail := ErrorDetail{Kind: KindOf(err), Message: err.Error()}
	var e *Error
	if errors.As(err, &e) {
		detail.Code = e.Code
	}

	resp.StatusCode = StatusCode(err)
	resp.Body = ErrorBody{Error: detail}
	return resp
}

// StatusCode maps err to an HTTP status code.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPreconditionFailed:
		return http.StatusConflict
	default:
		if IsRetryable(err) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
}

// MarshalBody encodes the envelope body as JSON.
func (r Response) MarshalBody() ([]byte, error) {
	return json.Marshal(r.Body)
}

// APIGatewayProxyResponse renders the envelope for an API Gateway proxy
// integration, which requires a string body.
func (r Response) APIGatewayProxyResponse() (events.APIGatewayProxyResponse, error) {
	body, err := r.MarshalBody()
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	return events.APIGatewayProxyResponse{
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
		Body:       string(body),
	}, nil
}
