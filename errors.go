package dynarec

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Kind classifies an adapter failure.
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindNotFound           Kind = "NotFound"
	KindPreconditionFailed Kind = "PreconditionFailed"
	KindStoreFault         Kind = "StoreFault"
)

var (
	// ErrValidation is returned when a request is rejected before or by the store
	// because of its shape, such as a missing key.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrPreconditionFailed is returned when a conditional write's condition did not hold.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrStoreFault is returned for any other failure of the underlying store.
	ErrStoreFault = errors.New("store fault")
)

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindPreconditionFailed:
		return ErrPreconditionFailed
	default:
		return ErrStoreFault
	}
}

// Error describes a failed adapter operation.
type Error struct {
	Op   string // Operation name: create, read, update or delete
	Key  string // Record key, possibly empty
	Kind Kind   // Failure classification
	Code string // Store error code, if the store returned one
	Err  error  // Underlying cause
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Op, e.Key, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf returns the kind of err. Errors not produced by the adapter are
// reported as store faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFault
}

// IsRetryable reports whether err is a transient store fault such as
// throttling or a timeout. The adapter itself never retries.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pte *types.ProvisionedThroughputExceededException
	if errors.As(err, &pte) {
		return true
	}
	var rle *types.RequestLimitExceeded
	if errors.As(err, &rle) {
		return true
	}
	var ise *types.InternalServerError
	if errors.As(err, &ise) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "ServiceUnavailable", "RequestTimeout":
			return true
		}
	}
	return false
}

func validationError(op, key string, err error) *Error {
	return &Error{Op: op, Key: key, Kind: KindValidation, Err: err}
}

// classify converts a store error into an *Error. A conditional check
// failure carrying the current item means the record exists but the
// condition did not hold; without an item, the record is missing.
func classify(op, key string, err error) *Error {
	e := &Error{Op: op, Key: key, Kind: KindStoreFault, Err: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e.Code = apiErr.ErrorCode()
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		e.Code = "ConditionalCheckFailedException"
		if len(ccf.Item) > 0 {
			e.Kind = KindPreconditionFailed
		} else {
			e.Kind = KindNotFound
		}
		return e
	}

	if e.Code == "ValidationException" {
		e.Kind = KindValidation
	}
	return e
}
