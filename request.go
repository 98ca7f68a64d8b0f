package dynarec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Keys are limited to 2048 bytes of UTF-8, the DynamoDB partition key limit,
// not 2048 characters.

// CreateRequest writes a full record. Field names follow the event shape of
// the original movie handlers.
type CreateRequest struct {
	Key       string `json:"title" validate:"required,maxbytes=2048"`
	Partition string `json:"year"`
	Actors    string `json:"actors"`
}

// ReadRequest looks up a record by key.
type ReadRequest struct {
	Key string `json:"title" validate:"required,maxbytes=2048"`
}

// UpdateRequest sets the rating and plot of an existing record. Rating
// accepts a JSON number or a numeric string; it is never parsed as a float.
type UpdateRequest struct {
	Key    string      `json:"title" validate:"required,maxbytes=2048"`
	Rating json.Number `json:"rating" validate:"omitempty,decimal"`
	Plot   string      `json:"plot"`
}

// DeleteRequest removes a record. Partition is accepted for compatibility
// with the create shape but is not used to address the record.
type DeleteRequest struct {
	Key       string `json:"title" validate:"required,maxbytes=2048"`
	Partition string `json:"year"`
}

// ValidationMode controls how requests with an empty key are treated.
type ValidationMode int

const (
	// Strict rejects an empty key on every operation before the store is called.
	Strict ValidationMode = iota
	// Lenient substitutes "" for a missing key on create and update and lets
	// the store decide. Read and delete always require a key.
	Lenient
)

// ParseValidationMode parses "strict" or "lenient".
func ParseValidationMode(s string) (ValidationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("unknown validation mode %q", s)
	}
}

func (m ValidationMode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, err := ParseRating(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return v
}

// validateRequest validates req's tags. When keyOptional is set, the Key field
// is skipped.
func validateRequest(req any, keyOptional bool) error {
	var err error
	if keyOptional {
		err = validate.StructExcept(req, "Key")
	} else {
		err = validate.Struct(req)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", field, fe.Param())
	case "decimal":
		return fmt.Sprintf("%s must be a decimal number", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
