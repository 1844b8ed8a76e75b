package schema

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jsonmend/jsonmend/pkg/errors"
)

// Schema links the caller's original field-definition tree with its
// normalized form. Every canonical key in the normalized tree has a reverse
// entry in the key mapping, and the normalized tree compiled as a well-formed
// schema document at submission time.
type Schema struct {
	// Original is the schema as the caller submitted it.
	Original map[string]any

	// Root is the normalized field-definition tree. Its type is always
	// TypeObject.
	Root *Field

	// Keys maps canonical keys back to the caller's spelling.
	Keys *KeyMap

	compiled *jsonschema.Schema
}

// ExpectedType resolves a top-level canonical key, a dotted nested path, or a
// "<list-key>.items" path to its expected type. Unresolvable keys return
// TypeUndefined.
func (s *Schema) ExpectedType(canonicalKey string) Type {
	if s == nil || s.Root == nil || canonicalKey == "" {
		return TypeUndefined
	}
	f := s.Root.Lookup(strings.Split(canonicalKey, ".")...)
	if f == nil {
		return TypeUndefined
	}
	return f.Type
}

// FieldFor resolves a bare canonical key to its definition anywhere in the
// tree, shallowest match first. CanonicalKeys spans every nesting level, so
// consumers of that target set cannot assume a key is top-level.
func (s *Schema) FieldFor(canonicalKey string) *Field {
	if s == nil || s.Root == nil || canonicalKey == "" {
		return nil
	}
	return s.Root.findKey(canonicalKey)
}

// Lookup resolves a canonical path to its field definition, nil if absent.
func (s *Schema) Lookup(segments ...string) *Field {
	if s == nil || s.Root == nil {
		return nil
	}
	return s.Root.Lookup(segments...)
}

// CanonicalKeys returns every canonical property key at every nesting level,
// deduplicated. The fuzzy/semantic matcher uses this as its target set.
func (s *Schema) CanonicalKeys() []string {
	if s == nil || s.Root == nil {
		return nil
	}
	var all []string
	s.Root.collectKeys(&all)

	seen := make(map[string]struct{}, len(all))
	out := all[:0]
	for _, k := range all {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// GenerateExample produces a schema-shaped JSON document with placeholder
// values per primitive type, keyed by the caller's original spellings. It is
// used to steer the data producer and plays no part in reconciliation.
func (s *Schema) GenerateExample() (string, error) {
	if s == nil || s.Root == nil {
		return "", errors.ErrSchemaNotSubmitted
	}
	doc := s.Root.example(s.Keys)
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", errors.WrapParse("json", err)
	}
	return string(out), nil
}

// FieldInstructions collects and concatenates every field's prompt text,
// qualified by the original key path, one instruction per line.
func (s *Schema) FieldInstructions() string {
	if s == nil || s.Root == nil {
		return ""
	}
	var lines []string
	s.Root.collectInstructions(s.Keys, "", &lines)
	return strings.Join(lines, "\n")
}

// ValidateData validates a document against the compiled normalized schema.
// Document keys may use the caller's original spellings or canonical ones;
// they are canonicalized before validation since the compiled schema only
// knows canonical keys.
func (s *Schema) ValidateData(data any) error {
	if s == nil || s.compiled == nil {
		return errors.ErrSchemaNotSubmitted
	}
	// Round-trip through JSON so Go-native values (ints, structs) compare
	// the way the validator expects.
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.WrapParse("json", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return errors.WrapParse("json", err)
	}
	if err := s.compiled.Validate(canonicalizeKeys(v)); err != nil {
		return errors.NewSchemaError("", "data does not conform to schema", err)
	}
	return nil
}

// canonicalizeKeys rewrites every map key through NormalizeKey, recursively.
// NormalizeKey is idempotent, so already-canonical documents pass through
// unchanged.
func canonicalizeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[NormalizeKey(k)] = canonicalizeKeys(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = canonicalizeKeys(t[i])
		}
		return t
	default:
		return v
	}
}

// withField returns a copy of the schema extended with one top-level field.
// The receiver's root and original document are left untouched; the key
// mapping is shared, it is internally synchronized and never shrinks.
func (s *Schema) withField(canonical, original string, f *Field, def any) *Schema {
	root := &Field{
		Type:       s.Root.Type,
		Prompt:     s.Root.Prompt,
		Items:      s.Root.Items,
		Required:   s.Root.Required,
		Properties: make(map[string]*Field, len(s.Root.Properties)+1),
	}
	for k, v := range s.Root.Properties {
		root.Properties[k] = v
	}
	root.Properties[canonical] = f

	orig := make(map[string]any, len(s.Original)+1)
	for k, v := range s.Original {
		orig[k] = v
	}
	orig[original] = def

	return &Schema{Original: orig, Root: root, Keys: s.Keys}
}

// compile renders the normalized tree to a draft-7 document and compiles it.
// Compilation is the fail-fast structural gate: a tree that cannot compile is
// rejected before any data is processed.
func (s *Schema) compile() error {
	doc, err := json.Marshal(s.Root.jsonSchema())
	if err != nil {
		return errors.NewSchemaError("", "cannot render normalized schema", err)
	}
	compiled, err := jsonschema.CompileString("schema.json", string(doc))
	if err != nil {
		return errors.NewSchemaError("", "normalized schema is not well-formed", err)
	}
	s.compiled = compiled
	return nil
}
