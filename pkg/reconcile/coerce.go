package reconcile

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/schema"
)

// Coerce attempts a best-effort conversion of a raw value to its
// schema-expected primitive type. Failures come back as a CoercionError and
// the caller records the raw value into the partition's errors; coercion
// never panics or aborts sibling processing.
func Coerce(value any, target schema.Type) (any, error) {
	switch target {
	case schema.TypeBoolean:
		return coerceBoolean(value)
	case schema.TypeString:
		return coerceString(value)
	case schema.TypeInteger:
		return coerceInteger(value)
	case schema.TypeNumber:
		return coerceNumber(value)
	case schema.TypeList:
		if l, ok := value.([]any); ok {
			return l, nil
		}
		return nil, errors.NewCoercionError("", value, target.String(), nil)
	case schema.TypeObject:
		if m, ok := value.(map[string]any); ok {
			return m, nil
		}
		return nil, errors.NewCoercionError("", value, target.String(), nil)
	default:
		return nil, errors.NewCoercionError("", value, target.String(), nil)
	}
}

// coerceElement coerces one list element. String targets are stricter here
// than at field level: a list of strings only admits actual strings, so a
// stray number or boolean in the list is reported instead of silently
// stringified.
func coerceElement(value any, target schema.Type) (any, error) {
	if target == schema.TypeString {
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, errors.NewCoercionError("", value, "string", nil)
	}
	return Coerce(value, target)
}

// coerceBoolean converts "true"/"false" (case-insensitive) and integer
// truthiness. Anything else is unresolved.
func coerceBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, errors.NewCoercionError("", value, "boolean", nil)
	default:
		// JSON decoding hands every number over as float64, so integer
		// truthiness must accept whole floats too.
		if isIntegral(value) {
			n, err := cast.ToInt64E(value)
			if err != nil {
				return nil, errors.NewCoercionError("", value, "boolean", err)
			}
			return n != 0, nil
		}
		if f, ok := value.(float64); ok && isWholeFloat(f) {
			return f != 0, nil
		}
		return nil, errors.NewCoercionError("", value, "boolean", nil)
	}
}

// coerceString stringifies any value.
func coerceString(value any) (any, error) {
	s, err := cast.ToStringE(value)
	if err != nil {
		return nil, errors.NewCoercionError("", value, "string", err)
	}
	return s, nil
}

// coerceInteger narrows numerics with round-half-to-even and parses strings,
// falling back to words-to-number.
func coerceInteger(value any) (any, error) {
	switch {
	case isIntegral(value):
		n, err := cast.ToInt64E(value)
		if err != nil {
			return nil, errors.NewCoercionError("", value, "integer", err)
		}
		return n, nil
	case isFloating(value):
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, errors.NewCoercionError("", value, "integer", err)
		}
		return int64(math.RoundToEven(f)), nil
	}

	if s, ok := value.(string); ok {
		f, isFloat, err := parseNumericString(s)
		if err != nil {
			return nil, errors.NewCoercionError("", value, "integer", err)
		}
		if isFloat {
			return int64(math.RoundToEven(f)), nil
		}
		return int64(f), nil
	}

	return nil, errors.NewCoercionError("", value, "integer", nil)
}

// coerceNumber converts numerics directly and parses strings, preserving the
// integer/float distinction the source text implies.
func coerceNumber(value any) (any, error) {
	switch {
	case isIntegral(value):
		n, err := cast.ToInt64E(value)
		if err != nil {
			return nil, errors.NewCoercionError("", value, "number", err)
		}
		return n, nil
	case isFloating(value):
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, errors.NewCoercionError("", value, "number", err)
		}
		return f, nil
	}

	if s, ok := value.(string); ok {
		f, isFloat, err := parseNumericString(s)
		if err != nil {
			return nil, errors.NewCoercionError("", value, "number", err)
		}
		if isFloat {
			return f, nil
		}
		return int64(f), nil
	}

	return nil, errors.NewCoercionError("", value, "number", nil)
}

// parseNumericString attempts a direct numeric parse — a decimal point or
// exponent means float, otherwise integer — then falls back to a
// words-to-number conversion ("forty-two" → 42).
func parseNumericString(s string) (value float64, isFloat bool, err error) {
	trimmed := strings.TrimSpace(s)

	if strings.ContainsAny(trimmed, ".eE") {
		if f, perr := strconv.ParseFloat(trimmed, 64); perr == nil {
			return f, true, nil
		}
	} else if n, perr := strconv.ParseInt(trimmed, 10, 64); perr == nil {
		return float64(n), false, nil
	}

	if f, isFloat, ok := wordsToNumber(trimmed); ok {
		return f, isFloat, nil
	}

	return 0, false, errors.New("not a numeric string")
}

// isIntegral reports whether the value's kind is a Go integer.
func isIntegral(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// isFloating reports whether the value's kind is a Go float.
func isFloating(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// isWholeFloat reports whether a float64 carries no fractional part. JSON
// decoding produces float64 for every number, so integer targets see plenty
// of these.
func isWholeFloat(f float64) bool {
	return f == math.Trunc(f)
}
