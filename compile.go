package hashmodel

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// escapeValue escapes the characters the search grammar treats specially
// inside term values: quotes, spaces, colons and the field-reference sigil.
var escapeValue = strings.NewReplacer(
	`"`, `\"`,
	` `, `\ `,
	`:`, `\:`,
	`@`, `\@`,
)

// strictEpsilon approximates open-interval semantics for strict comparisons:
// the grammar only has inclusive range bounds, so > and < are offset by a
// resolution finer than typical field granularity.
const strictEpsilon = 0.001

// compile translates one condition node into a search-query fragment.
// Classification failures are structural errors; no clause is ever silently
// dropped.
func (s *Schema[M]) compile(e Expr, now time.Time) (string, error) {
	switch n := e.(type) {
	case compareExpr:
		return s.compileCompare(n, now)
	case stringExpr:
		return s.compileString(n)
	case logicalExpr:
		if len(n.operands) == 0 {
			return "", fmt.Errorf("%w: empty logical group", ErrUnsupportedExpr)
		}
		parts := make([]string, len(n.operands))
		for i, op := range n.operands {
			part, err := s.compile(op, now)
			if err != nil {
				return "", err
			}
			parts[i] = part
		}
		sep := " "
		if n.or {
			sep = " | "
		}
		return "(" + strings.Join(parts, sep) + ")", nil
	case notExpr:
		inner, err := s.compile(n.inner, now)
		if err != nil {
			return "", err
		}
		return "-(" + inner + ")", nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedExpr, e)
	}
}

func (s *Schema[M]) compileCompare(n compareExpr, now time.Time) (string, error) {
	f, err := s.predicateField(n.field)
	if err != nil {
		return "", err
	}

	value, err := normalizeValue(n.value, now)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", n.field, err)
	}

	str, isString := value.(string)

	switch {
	case f.kind == Text || (f.kind == Auto && isString):
		if !isString {
			return "", fmt.Errorf("%w: text field %q requires a string value, got %T",
				ErrUnsupportedExpr, n.field, n.value)
		}
		escaped := escapeValue.Replace(str)
		switch n.op {
		case opEq:
			return fmt.Sprintf("@%s:%s", f.name, escaped), nil
		case opNe:
			return fmt.Sprintf("-@%s:%s", f.name, escaped), nil
		default:
			return "", fmt.Errorf("%w: operator %s is not supported for text field %q",
				ErrUnsupportedExpr, n.op, n.field)
		}

	case f.kind == Tag:
		if !isString {
			return "", fmt.Errorf("%w: tag field %q requires a string value, got %T",
				ErrUnsupportedExpr, n.field, n.value)
		}
		escaped := escapeValue.Replace(str)
		switch n.op {
		case opEq:
			return fmt.Sprintf("@%s:{%s}", f.name, escaped), nil
		case opNe:
			return fmt.Sprintf("-@%s:{%s}", f.name, escaped), nil
		default:
			return "", fmt.Errorf("%w: operator %s is not supported for tag field %q",
				ErrUnsupportedExpr, n.op, n.field)
		}

	default: // Numeric, or Auto with a non-string value
		if isString {
			return "", fmt.Errorf("%w: numeric field %q requires a numeric value, got string",
				ErrUnsupportedExpr, n.field)
		}
		num := formatNumeric(value)
		switch n.op {
		case opEq:
			return fmt.Sprintf("@%s:[%s %s]", f.name, num, num), nil
		case opNe:
			return fmt.Sprintf("-@%s:[%s %s]", f.name, num, num), nil
		case opGt:
			return fmt.Sprintf("@%s:[%s +inf]", f.name, formatFloat(toFloat(value)+strictEpsilon)), nil
		case opGte:
			return fmt.Sprintf("@%s:[%s +inf]", f.name, num), nil
		case opLt:
			return fmt.Sprintf("@%s:[-inf %s]", f.name, formatFloat(toFloat(value)-strictEpsilon)), nil
		case opLte:
			return fmt.Sprintf("@%s:[-inf %s]", f.name, num), nil
		default:
			return "", fmt.Errorf("%w: operator %s is not supported for numeric field %q",
				ErrUnsupportedExpr, n.op, n.field)
		}
	}
}

func (s *Schema[M]) compileString(n stringExpr) (string, error) {
	f, err := s.predicateField(n.field)
	if err != nil {
		return "", err
	}

	escaped := escapeValue.Replace(n.value)

	switch f.kind {
	case Tag:
		// Tags cannot be partially matched; degrade to an exact tag clause.
		return fmt.Sprintf("@%s:{%s}", f.name, escaped), nil
	case Text, Auto:
		switch n.op {
		case opContains:
			return fmt.Sprintf("@%s:*%s*", f.name, escaped), nil
		case opStartsWith:
			return fmt.Sprintf("@%s:%s*", f.name, escaped), nil
		default: // opEndsWith
			return fmt.Sprintf("@%s:*%s", f.name, escaped), nil
		}
	default:
		return "", fmt.Errorf("%w: string predicate on %s field %q",
			ErrUnsupportedExpr, f.kind, n.field)
	}
}

// predicateField resolves a field for predicate use. Nested-document and
// link fields never appear in a compiled predicate directly; resolve them to
// their target id first.
func (s *Schema[M]) predicateField(name string) (*fieldSpec[M], error) {
	f, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in schema %q", ErrUnknownField, name, s.index)
	}
	if !f.serializable {
		return nil, fmt.Errorf("%w: %q in schema %q", ErrNotSerializable, name, s.index)
	}
	return f, nil
}

// normalizeValue folds a predicate value to a string, int64 or float64,
// applying the same epoch/seconds encoding the field codec uses.
func normalizeValue(v any, now time.Time) (any, error) {
	switch t := v.(type) {
	case nowValue:
		return now.UTC().Unix(), nil
	case time.Time:
		return t.UTC().Unix(), nil
	case time.Duration:
		return int64(t.Seconds()), nil
	case string:
		return t, nil
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case float32:
		return float64(t), nil
	case float64:
		return t, nil
	default:
		return nil, fmt.Errorf("%w: cannot classify value of type %T", ErrUnsupportedExpr, v)
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		return 0
	}
}

func formatNumeric(v any) string {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
