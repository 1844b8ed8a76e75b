package schema

import (
	"reflect"
	"strings"
	"sync"
)

// Type is the closed set of canonical primitive tags a field definition can
// resolve to. Host-language type tokens map into this set through an open
// extension table rather than runtime type identity checks.
type Type int

// Canonical field types.
const (
	// TypeUndefined marks a field definition that could not be resolved.
	TypeUndefined Type = iota
	// TypeString is free text.
	TypeString
	// TypeInteger is a whole number.
	TypeInteger
	// TypeNumber is any numeric value, integral or fractional.
	TypeNumber
	// TypeBoolean is true/false.
	TypeBoolean
	// TypeList is an ordered collection. "array" is accepted as a synonym.
	TypeList
	// TypeObject is a nested mapping of fields.
	TypeObject
)

// String returns the canonical token for the type.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeList:
		return "list"
	case TypeObject:
		return "object"
	default:
		return "undefined"
	}
}

// Primitive reports whether the type is a scalar (not list or object).
func (t Type) Primitive() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return true
	default:
		return false
	}
}

// TypeTable maps external type tokens and Go kinds onto the canonical
// primitive set. The defaults cover the JSON Schema tokens plus common
// host-language spellings; RegisterToken and RegisterKind extend it.
type TypeTable struct {
	mu     sync.RWMutex
	tokens map[string]Type
	kinds  map[reflect.Kind]Type
}

// NewTypeTable creates a table seeded with the default token and kind mappings.
func NewTypeTable() *TypeTable {
	t := &TypeTable{
		tokens: map[string]Type{
			"string":  TypeString,
			"str":     TypeString,
			"text":    TypeString,
			"integer": TypeInteger,
			"int":     TypeInteger,
			"number":  TypeNumber,
			"float":   TypeNumber,
			"double":  TypeNumber,
			"boolean": TypeBoolean,
			"bool":    TypeBoolean,
			"list":    TypeList,
			"array":   TypeList,
			"object":  TypeObject,
			"dict":    TypeObject,
			"map":     TypeObject,
		},
		kinds: map[reflect.Kind]Type{
			reflect.String:  TypeString,
			reflect.Bool:    TypeBoolean,
			reflect.Float32: TypeNumber,
			reflect.Float64: TypeNumber,
			reflect.Slice:   TypeList,
			reflect.Array:   TypeList,
			reflect.Map:     TypeObject,
			reflect.Struct:  TypeObject,
		},
	}
	for _, k := range []reflect.Kind{
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
	} {
		t.kinds[k] = TypeInteger
	}
	return t
}

// RegisterToken maps an external type token onto a canonical type.
// Later lookups of the token resolve to the given type.
func (tt *TypeTable) RegisterToken(token string, t Type) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.tokens[strings.ToLower(strings.TrimSpace(token))] = t
}

// RegisterKind maps a Go reflect.Kind onto a canonical type.
func (tt *TypeTable) RegisterKind(k reflect.Kind, t Type) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.kinds[k] = t
}

// ResolveToken resolves a textual type token, returning TypeUndefined for
// unknown tokens.
func (tt *TypeTable) ResolveToken(token string) Type {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	if t, ok := tt.tokens[strings.ToLower(strings.TrimSpace(token))]; ok {
		return t
	}
	return TypeUndefined
}

// ResolveValue resolves a host value used directly as a type marker, e.g. a
// reflect.Type, a reflect.Kind, or a zero value standing in for its type.
func (tt *TypeTable) ResolveValue(v any) Type {
	switch marker := v.(type) {
	case nil:
		return TypeUndefined
	case string:
		return tt.ResolveToken(marker)
	case Type:
		return marker
	case reflect.Kind:
		return tt.resolveKind(marker)
	case reflect.Type:
		return tt.resolveKind(marker.Kind())
	default:
		return tt.resolveKind(reflect.TypeOf(v).Kind())
	}
}

func (tt *TypeTable) resolveKind(k reflect.Kind) Type {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	if t, ok := tt.kinds[k]; ok {
		return t
	}
	return TypeUndefined
}
