package dynamock

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// The evaluator below understands the expression subset that dynarec and the
// expression builder emit:
//
//	condition: [(]attribute_exists (path)[)] [AND ...]
//	           [(]attribute_not_exists (path)[)] [AND ...]
//	update:    SET path = :v[, path = :v ...]
//
// Paths are dot-separated and may use #name placeholders. Anything else is
// rejected with a ValidationException, as DynamoDB would reject a malformed
// expression.

type docPath []string

func (p docPath) String() string {
	return strings.Join(p, ".")
}

func resolvePath(raw string, names map[string]string) (docPath, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, validationException("empty document path")
	}

	segments := strings.Split(raw, ".")
	path := make(docPath, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if strings.HasPrefix(seg, "#") {
			name, ok := names[seg]
			if !ok {
				return nil, validationException(fmt.Sprintf("undefined attribute name placeholder %s", seg))
			}
			seg = name
		}
		if seg == "" || strings.ContainsAny(seg, "[]") {
			return nil, validationException(fmt.Sprintf("unsupported document path %q", raw))
		}
		path = append(path, seg)
	}
	return path, nil
}

func lookupPath(item map[string]types.AttributeValue, path docPath) (types.AttributeValue, bool) {
	cur := item
	for i, name := range path {
		av, ok := cur[name]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return av, true
		}
		m, ok := av.(*types.AttributeValueMemberM)
		if !ok {
			return nil, false
		}
		cur = m.Value
	}
	return nil, false
}

// setPath assigns value at path. Intermediate maps must already exist.
func setPath(item map[string]types.AttributeValue, path docPath, value types.AttributeValue) error {
	cur := item
	for _, name := range path[:len(path)-1] {
		m, ok := cur[name].(*types.AttributeValueMemberM)
		if !ok {
			return validationException("The document path provided in the update expression is invalid for update")
		}
		cur = m.Value
	}
	cur[path[len(path)-1]] = value
	return nil
}

// evalCondition reports whether expr holds for item. An empty expression
// always holds.
func evalCondition(expr string, names map[string]string, item map[string]types.AttributeValue) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}

	for _, term := range splitKeyword(expr, "AND") {
		term = trimParens(term)

		var fn string
		switch {
		case strings.HasPrefix(term, "attribute_exists"):
			fn = "attribute_exists"
		case strings.HasPrefix(term, "attribute_not_exists"):
			fn = "attribute_not_exists"
		default:
			return false, validationException(fmt.Sprintf("unsupported condition %q", term))
		}

		arg := trimParens(strings.TrimSpace(strings.TrimPrefix(term, fn)))
		path, err := resolvePath(arg, names)
		if err != nil {
			return false, err
		}

		_, exists := lookupPath(item, path)
		if exists != (fn == "attribute_exists") {
			return false, nil
		}
	}
	return true, nil
}

type assignment struct {
	path  docPath
	value types.AttributeValue
}

// parseUpdate parses SET clauses into assignments.
func parseUpdate(expr string, names map[string]string, values map[string]types.AttributeValue) ([]assignment, error) {
	var out []assignment

	for _, line := range strings.Split(strings.TrimSpace(expr), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) < 4 || !strings.EqualFold(line[:4], "SET ") {
			return nil, validationException(fmt.Sprintf("unsupported update clause %q", line))
		}

		for _, clause := range strings.Split(line[4:], ",") {
			lhs, rhs, ok := strings.Cut(clause, "=")
			if !ok {
				return nil, validationException(fmt.Sprintf("invalid SET action %q", clause))
			}
			path, err := resolvePath(lhs, names)
			if err != nil {
				return nil, err
			}
			placeholder := strings.TrimSpace(rhs)
			value, ok := values[placeholder]
			if !ok {
				return nil, validationException(fmt.Sprintf("undefined attribute value placeholder %s", placeholder))
			}
			out = append(out, assignment{path: path, value: value})
		}
	}

	if len(out) == 0 {
		return nil, validationException("empty update expression")
	}
	return out, nil
}

func splitKeyword(expr, keyword string) []string {
	fields := strings.Fields(expr)
	var (
		terms []string
		cur   []string
	)
	for _, f := range fields {
		if strings.EqualFold(f, keyword) {
			terms = append(terms, strings.Join(cur, " "))
			cur = cur[:0]
			continue
		}
		cur = append(cur, f)
	}
	return append(terms, strings.Join(cur, " "))
}

// trimParens strips balanced outer parentheses.
func trimParens(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && balanced(s[1:len(s)-1]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func balanced(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
