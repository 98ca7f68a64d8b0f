// Package assert provides fluent assertion utilities for testing dynarec
// operations. It makes tests more readable by providing expressive assertion
// methods over envelopes, records, errors and stored items.
//
// # Usage
//
//	import "github.com/nisimpson/dynarec/dynamock/assert"
//
//	// Assert on envelopes
//	assert.Response(t, resp).
//		HasStatus(http.StatusConflict).
//		HasErrorKind(dynarec.KindPreconditionFailed)
//
//	// Assert on records
//	assert.Record(t, rec).
//		HasString("title", "Heat").
//		HasNumber("4.8", "info", "rating")
//
//	// Assert on stored items
//	assert.Item(t, item).
//		HasKey("title", "Heat").
//		HasPath("info", "actors")
package assert

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynarec"
	"github.com/shopspring/decimal"
)

// ResponseAssertion provides fluent assertions for envelopes.
type ResponseAssertion struct {
	t    testing.TB
	resp dynarec.Response
}

// Response creates a new ResponseAssertion for the given envelope.
func Response(t testing.TB, resp dynarec.Response) *ResponseAssertion {
	return &ResponseAssertion{t: t, resp: resp}
}

// HasStatus asserts the envelope status code.
func (a *ResponseAssertion) HasStatus(expected int) *ResponseAssertion {
	a.t.Helper()
	if a.resp.StatusCode != expected {
		a.t.Errorf("expected status %d, got %d (body %+v)", expected, a.resp.StatusCode, a.resp.Body)
	}
	return a
}

// IsOK asserts a 200 envelope.
func (a *ResponseAssertion) IsOK() *ResponseAssertion {
	a.t.Helper()
	return a.HasStatus(http.StatusOK)
}

// HasJSONContentType asserts the Content-Type header.
func (a *ResponseAssertion) HasJSONContentType() *ResponseAssertion {
	a.t.Helper()
	if got := a.resp.Headers["Content-Type"]; got != dynarec.ContentTypeJSON {
		a.t.Errorf("expected Content-Type %q, got %q", dynarec.ContentTypeJSON, got)
	}
	return a
}

// HasErrorKind asserts that the body is an error body of the given kind.
func (a *ResponseAssertion) HasErrorKind(expected dynarec.Kind) *ResponseAssertion {
	a.t.Helper()
	body, ok := a.resp.Body.(dynarec.ErrorBody)
	if !ok {
		a.t.Errorf("expected error body, got %T", a.resp.Body)
		return a
	}
	if body.Error.Kind != expected {
		a.t.Errorf("expected error kind %s, got %s", expected, body.Error.Kind)
	}
	return a
}

// Record returns a RecordAssertion over the body, failing if the body is not
// a record.
func (a *ResponseAssertion) Record() *RecordAssertion {
	a.t.Helper()
	rec, ok := a.resp.Body.(dynarec.Record)
	if !ok {
		a.t.Errorf("expected record body, got %T", a.resp.Body)
	}
	return Record(a.t, rec)
}

// RecordAssertion provides fluent assertions for decoded records.
type RecordAssertion struct {
	t   testing.TB
	rec dynarec.Record
}

// Record creates a new RecordAssertion for the given record.
func Record(t testing.TB, rec dynarec.Record) *RecordAssertion {
	return &RecordAssertion{t: t, rec: rec}
}

// HasString asserts a top-level string attribute.
func (a *RecordAssertion) HasString(name, expected string) *RecordAssertion {
	a.t.Helper()
	v, ok := a.rec[name]
	if !ok {
		a.t.Errorf("expected attribute %q to exist", name)
		return a
	}
	if s, _ := v.(string); s != expected {
		a.t.Errorf("expected %s = %q, got %#v", name, expected, v)
	}
	return a
}

// HasPathString asserts a nested string attribute.
func (a *RecordAssertion) HasPathString(expected string, path ...string) *RecordAssertion {
	a.t.Helper()
	v, ok := a.rec.Lookup(path...)
	if !ok {
		a.t.Errorf("expected path %v to exist", path)
		return a
	}
	if s, _ := v.(string); s != expected {
		a.t.Errorf("expected %v = %q, got %#v", path, expected, v)
	}
	return a
}

// HasNumber asserts that the attribute at path is a number equal to expected
// as a decimal, so "4.5" matches a stored 4.50.
func (a *RecordAssertion) HasNumber(expected string, path ...string) *RecordAssertion {
	a.t.Helper()
	v, ok := a.rec.Lookup(path...)
	if !ok {
		a.t.Errorf("expected path %v to exist", path)
		return a
	}
	n, ok := v.(json.Number)
	if !ok {
		a.t.Errorf("expected %v to be a json.Number, got %T", path, v)
		return a
	}
	got, err := decimal.NewFromString(n.String())
	if err != nil {
		a.t.Errorf("invalid number at %v: %v", path, err)
		return a
	}
	if !got.Equal(decimal.RequireFromString(expected)) {
		a.t.Errorf("expected %v = %s, got %s", path, expected, n)
	}
	return a
}

// HasPath asserts that the attribute at path exists.
func (a *RecordAssertion) HasPath(path ...string) *RecordAssertion {
	a.t.Helper()
	if _, ok := a.rec.Lookup(path...); !ok {
		a.t.Errorf("expected path %v to exist", path)
	}
	return a
}

// LacksPath asserts that the attribute at path is absent.
func (a *RecordAssertion) LacksPath(path ...string) *RecordAssertion {
	a.t.Helper()
	if v, ok := a.rec.Lookup(path...); ok {
		a.t.Errorf("expected path %v to be absent, got %#v", path, v)
	}
	return a
}

// HasKeys asserts the exact set of top-level attribute names.
func (a *RecordAssertion) HasKeys(expected ...string) *RecordAssertion {
	a.t.Helper()
	if len(a.rec) != len(expected) {
		a.t.Errorf("expected %d attributes %v, got %d: %v", len(expected), expected, len(a.rec), a.rec)
		return a
	}
	for _, name := range expected {
		if _, ok := a.rec[name]; !ok {
			a.t.Errorf("expected attribute %q, got %v", name, a.rec)
		}
	}
	return a
}

// IsEmpty asserts that the record has no attributes.
func (a *RecordAssertion) IsEmpty() *RecordAssertion {
	a.t.Helper()
	if len(a.rec) != 0 {
		a.t.Errorf("expected empty record, got %v", a.rec)
	}
	return a
}

// ErrorAssertion provides fluent assertions for adapter errors.
type ErrorAssertion struct {
	t   testing.TB
	err error
}

// Error creates a new ErrorAssertion for err.
func Error(t testing.TB, err error) *ErrorAssertion {
	return &ErrorAssertion{t: t, err: err}
}

// HasKind asserts that err is an adapter error of the given kind.
func (a *ErrorAssertion) HasKind(expected dynarec.Kind) *ErrorAssertion {
	a.t.Helper()
	if a.err == nil {
		a.t.Errorf("expected %s error, got nil", expected)
		return a
	}
	var e *dynarec.Error
	if !errors.As(a.err, &e) {
		a.t.Errorf("expected *dynarec.Error, got %T: %v", a.err, a.err)
		return a
	}
	if e.Kind != expected {
		a.t.Errorf("expected kind %s, got %s: %v", expected, e.Kind, a.err)
	}
	return a
}

// Is asserts errors.Is(err, target).
func (a *ErrorAssertion) Is(target error) *ErrorAssertion {
	a.t.Helper()
	if !errors.Is(a.err, target) {
		a.t.Errorf("expected error matching %v, got %v", target, a.err)
	}
	return a
}

// HasCode asserts the store error code.
func (a *ErrorAssertion) HasCode(expected string) *ErrorAssertion {
	a.t.Helper()
	var e *dynarec.Error
	if !errors.As(a.err, &e) {
		a.t.Errorf("expected *dynarec.Error, got %T", a.err)
		return a
	}
	if e.Code != expected {
		a.t.Errorf("expected code %q, got %q", expected, e.Code)
	}
	return a
}

// ItemAssertion provides fluent assertions for raw DynamoDB items.
type ItemAssertion struct {
	t    testing.TB
	item map[string]types.AttributeValue
}

// Item creates a new ItemAssertion for the given item.
func Item(t testing.TB, item map[string]types.AttributeValue) *ItemAssertion {
	return &ItemAssertion{t: t, item: item}
}

// HasKey asserts a string attribute at the top level.
func (a *ItemAssertion) HasKey(name, expected string) *ItemAssertion {
	a.t.Helper()
	s, ok := a.item[name].(*types.AttributeValueMemberS)
	if !ok {
		a.t.Errorf("expected string attribute %q, got %T", name, a.item[name])
		return a
	}
	if s.Value != expected {
		a.t.Errorf("expected %s = %q, got %q", name, expected, s.Value)
	}
	return a
}

// HasPath asserts that a nested attribute exists.
func (a *ItemAssertion) HasPath(path ...string) *ItemAssertion {
	a.t.Helper()
	if a.lookup(path) == nil {
		a.t.Errorf("expected path %v to exist in %v", path, a.item)
	}
	return a
}

// HasNumber asserts that the nested attribute at path is an N value with the
// exact stored text.
func (a *ItemAssertion) HasNumber(expected string, path ...string) *ItemAssertion {
	a.t.Helper()
	n, ok := a.lookup(path).(*types.AttributeValueMemberN)
	if !ok {
		a.t.Errorf("expected number at %v, got %T", path, a.lookup(path))
		return a
	}
	if n.Value != expected {
		a.t.Errorf("expected %v = %s, got %s", path, expected, n.Value)
	}
	return a
}

func (a *ItemAssertion) lookup(path []string) types.AttributeValue {
	cur := a.item
	for i, name := range path {
		av, ok := cur[name]
		if !ok {
			return nil
		}
		if i == len(path)-1 {
			return av
		}
		m, ok := av.(*types.AttributeValueMemberM)
		if !ok {
			return nil
		}
		cur = m.Value
	}
	return nil
}
