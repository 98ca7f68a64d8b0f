// Package lambdafn exposes the record adapter as Lambda function handlers.
//
// Each handler returns a dynarec.Response envelope and a nil error, so the
// Lambda host never turns a failed store call into an uncaught fault.
package lambdafn

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/nisimpson/dynarec"
	"go.uber.org/zap"
)

// Handler serves the four record operations.
type Handler struct {
	adapter *dynarec.Adapter
	logger  *zap.Logger
}

// New creates a Handler. A nil logger disables logging.
func New(adapter *dynarec.Adapter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{adapter: adapter, logger: logger}
}

// Create handles a create event: {"title", "year", "actors"}.
func (h *Handler) Create(ctx context.Context, req dynarec.CreateRequest) (dynarec.Response, error) {
	start := time.Now()
	rec, err := h.adapter.Create(ctx, req)
	return h.respond(ctx, "create", req.Key, start, rec, err), nil
}

// Get handles a read event: {"title"}.
func (h *Handler) Get(ctx context.Context, req dynarec.ReadRequest) (dynarec.Response, error) {
	start := time.Now()
	rec, err := h.adapter.Read(ctx, req)
	return h.respond(ctx, "get", req.Key, start, rec, err), nil
}

// Update handles an update event: {"title", "rating", "plot"}.
func (h *Handler) Update(ctx context.Context, req dynarec.UpdateRequest) (dynarec.Response, error) {
	start := time.Now()
	rec, err := h.adapter.Update(ctx, req)
	return h.respond(ctx, "update", req.Key, start, rec, err), nil
}

// Delete handles a delete event: {"title", "year"}.
func (h *Handler) Delete(ctx context.Context, req dynarec.DeleteRequest) (dynarec.Response, error) {
	start := time.Now()
	rec, err := h.adapter.Delete(ctx, req)
	return h.respond(ctx, "delete", req.Key, start, rec, err), nil
}

// ForOperation returns the handler function for lambda.Start.
func (h *Handler) ForOperation(op string) (any, error) {
	switch op {
	case "create":
		return h.Create, nil
	case "get":
		return h.Get, nil
	case "update":
		return h.Update, nil
	case "delete":
		return h.Delete, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

// ProxyFunc handles an API Gateway REST proxy event.
type ProxyFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// ProxyForOperation adapts an operation to API Gateway proxy events. The
// request body is decoded as the operation's event; a {title} path parameter
// takes precedence over the body's title. A body that is not valid JSON
// yields a 400 envelope.
func (h *Handler) ProxyForOperation(op string) (ProxyFunc, error) {
	switch op {
	case "create":
		return proxy(dynarec.OpCreate, h.Create, func(r *dynarec.CreateRequest, key string) { r.Key = key }), nil
	case "get":
		return proxy(dynarec.OpRead, h.Get, func(r *dynarec.ReadRequest, key string) { r.Key = key }), nil
	case "update":
		return proxy(dynarec.OpUpdate, h.Update, func(r *dynarec.UpdateRequest, key string) { r.Key = key }), nil
	case "delete":
		return proxy(dynarec.OpDelete, h.Delete, func(r *dynarec.DeleteRequest, key string) { r.Key = key }), nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func proxy[T any](op string, fn func(context.Context, T) (dynarec.Response, error), setKey func(*T, string)) ProxyFunc {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		var req T
		if event.Body != "" {
			if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
				resp := dynarec.NewResponse(nil, &dynarec.Error{
					Op:   op,
					Kind: dynarec.KindValidation,
					Err:  fmt.Errorf("invalid request body: %w", err),
				})
				return resp.APIGatewayProxyResponse()
			}
		}
		if key, ok := event.PathParameters["title"]; ok && key != "" {
			setKey(&req, key)
		}

		resp, err := fn(ctx, req)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		return resp.APIGatewayProxyResponse()
	}
}

func (h *Handler) respond(ctx context.Context, op, key string, start time.Time, rec dynarec.Record, err error) dynarec.Response {
	resp := dynarec.NewResponse(rec, err)

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("key", key),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		fields = append(fields, zap.String("requestID", lc.AwsRequestID))
	}

	if err != nil {
		fields = append(fields, zap.String("kind", string(dynarec.KindOf(err))), zap.Error(err))
		h.logger.Info("invocation failed", fields...)
	} else {
		h.logger.Info("invocation", fields...)
	}
	return resp
}
