package dynarec

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// Rating is an exact decimal value. It is stored as a DynamoDB number using
// its canonical decimal string, never through float64.
type Rating struct {
	d decimal.Decimal
}

var (
	_ attributevalue.Marshaler   = Rating{}
	_ attributevalue.Unmarshaler = (*Rating)(nil)
)

// Limits of a DynamoDB number attribute.
const (
	maxSignificantDigits = 38
	minMagnitudeExponent = -130
	maxMagnitudeExponent = 125
)

// ParseRating parses a decimal literal such as "4.8" or "1e1". Values that
// DynamoDB cannot store as a number are rejected: more than 38 significant
// digits, or a magnitude outside 1E-130 to 1E+126.
func ParseRating(s string) (Rating, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rating{}, fmt.Errorf("invalid rating %q: %w", s, err)
	}
	if err := checkNumberRange(d); err != nil {
		return Rating{}, fmt.Errorf("invalid rating %q: %w", s, err)
	}
	return Rating{d: d}, nil
}

// checkNumberRange works on the coefficient and exponent only, so a huge
// exponent is never expanded into digits.
func checkNumberRange(d decimal.Decimal) error {
	coef := d.Coefficient()
	if coef.Sign() == 0 {
		return nil
	}
	digits := coef.Abs(coef).String()
	if significant := len(strings.TrimRight(digits, "0")); significant > maxSignificantDigits {
		return fmt.Errorf("%d significant digits exceeds %d", significant, maxSignificantDigits)
	}
	// exponent of the leading digit
	magnitude := int64(d.Exponent()) + int64(len(digits)) - 1
	if magnitude < minMagnitudeExponent || magnitude > maxMagnitudeExponent {
		return fmt.Errorf("magnitude 1E%d is outside 1E%d to 1E+%d", magnitude, minMagnitudeExponent, maxMagnitudeExponent+1)
	}
	return nil
}

// MustParseRating is like ParseRating but panics on error.
func MustParseRating(s string) Rating {
	r, err := ParseRating(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the canonical decimal form, without trailing zeros.
func (r Rating) String() string {
	return r.d.String()
}

// Equal reports whether r and o represent the same decimal value.
func (r Rating) Equal(o Rating) bool {
	return r.d.Equal(o.d)
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler.
func (r Rating) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: r.d.String()}, nil
}

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler.
func (r *Rating) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return fmt.Errorf("rating must be a number attribute, got %T", av)
	}
	parsed, err := ParseRating(n.Value)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalJSON encodes the rating as a bare JSON number.
func (r Rating) MarshalJSON() ([]byte, error) {
	return []byte(r.d.String()), nil
}
