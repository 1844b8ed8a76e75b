// Package schema normalizes caller-supplied schemas into one canonical
// field-definition tree. It accepts several input shapes — raw-type
// shorthand, detailed field objects, host type tokens, or JSON/YAML encoded
// strings of any of these — and canonicalizes every key through NormalizeKey
// while recording the reverse mapping for output translation.
package schema

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/logging"
)

// Normalizer accepts schema submissions and maintains the current schema.
// A single Normalizer may serve many reconciliation requests concurrently;
// the schema it holds is read-mostly after submission.
type Normalizer struct {
	mu      sync.RWMutex
	types   *TypeTable
	log     zerolog.Logger
	current *Schema
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for normalization diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(n *Normalizer) { n.log = log }
}

// WithTypeTable replaces the default type table.
func WithTypeTable(t *TypeTable) Option {
	return func(n *Normalizer) { n.types = t }
}

// NewNormalizer creates a Normalizer with the default type table.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		types: NewTypeTable(),
		log:   *logging.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Submit validates and normalizes a schema, replacing the current one.
// It returns a SchemaError when the input is not a recognized shape or the
// normalized tree fails the structural gate. Invalid schemas are rejected
// before any data is processed.
func (n *Normalizer) Submit(input any) (*Schema, error) {
	doc, err := n.decodeDocument(input)
	if err != nil {
		return nil, err
	}

	keys := NewKeyMap(n.log)
	root, err := n.normalizeField("", doc, keys)
	if err != nil {
		return nil, err
	}
	if root.Type != TypeObject {
		return nil, errors.NewSchemaError("", "schema root must describe an object", nil)
	}

	s := &Schema{
		Original: doc,
		Root:     root,
		Keys:     keys,
	}
	if err := s.compile(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.current = s
	n.mu.Unlock()

	n.log.Debug().
		Int("canonical_keys", keys.Len()).
		Int("collisions", len(keys.Collisions())).
		Msg("schema submitted")
	return s, nil
}

// Schema returns the current schema, nil if none has been submitted.
func (n *Normalizer) Schema() *Schema {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Submitted reports whether a schema is present.
func (n *Normalizer) Submitted() bool {
	return n.Schema() != nil
}

// RegisterType extends the type table with an external type token. Later
// lookups of the token resolve to the given canonical type.
func (n *Normalizer) RegisterType(token string, t Type) {
	n.types.RegisterToken(token, t)
}

// RegisterKind extends the type table with a Go kind mapping.
func (n *Normalizer) RegisterKind(k reflect.Kind, t Type) {
	n.types.RegisterKind(k, t)
}

// FieldType resolves a field definition — detailed map or shorthand — to its
// canonical type tag, TypeUndefined if unresolvable.
func (n *Normalizer) FieldType(def any) Type {
	switch d := def.(type) {
	case *Field:
		if d == nil {
			return TypeUndefined
		}
		return d.Type
	case map[string]any:
		if tv, ok := d["type"]; ok {
			if t := n.types.ResolveValue(tv); t != TypeUndefined {
				return t
			}
		}
		if _, ok := d["properties"]; ok {
			return TypeObject
		}
		if _, ok := d["items"]; ok {
			return TypeList
		}
		return TypeUndefined
	default:
		return n.types.ResolveValue(def)
	}
}

// ExpectedType resolves a canonical key against the current schema.
func (n *Normalizer) ExpectedType(canonicalKey string) Type {
	return n.Schema().ExpectedType(canonicalKey)
}

// AddField adds or replaces a top-level field on the current schema, keyed by
// the caller's original spelling. The key mapping is extended, never shrunk.
// The schema is copied and swapped whole, so requests already reading the old
// schema keep a consistent tree.
func (n *Normalizer) AddField(originalKey string, def any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return errors.ErrSchemaNotSubmitted
	}

	canonical := NormalizeKey(originalKey)
	field, err := n.normalizeField(originalKey, def, n.current.Keys)
	if err != nil {
		return err
	}

	next := n.current.withField(canonical, originalKey, field, def)
	if err := next.compile(); err != nil {
		return err
	}
	n.current.Keys.Set(canonical, originalKey)
	n.current = next
	return nil
}

// decodeDocument brings any accepted schema input shape to a string-keyed map.
func (n *Normalizer) decodeDocument(input any) (map[string]any, error) {
	switch in := input.(type) {
	case nil:
		return nil, errors.NewSchemaError("", "schema is nil", nil)
	case map[string]any:
		return in, nil
	case string:
		return n.decodeText([]byte(in))
	case []byte:
		return n.decodeText(in)
	default:
		// Accept any string-keyed map shape, e.g. map[string]string.
		rv := reflect.ValueOf(input)
		if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
			doc := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				doc[iter.Key().String()] = iter.Value().Interface()
			}
			return doc, nil
		}
		return nil, errors.NewSchemaError("", "unrecognized schema shape", nil)
	}
}

// decodeText parses a JSON document, falling back to YAML.
func (n *Normalizer) decodeText(raw []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.NewSchemaError("", "schema document is empty", nil)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewSchemaError("", "schema document is neither valid JSON nor YAML", err)
	}
	return doc, nil
}

// normalizeField canonicalizes one field definition. path carries the
// original-key path for error reporting.
func (n *Normalizer) normalizeField(path string, def any, keys *KeyMap) (*Field, error) {
	switch d := def.(type) {
	case string:
		t := n.types.ResolveToken(d)
		if t == TypeUndefined {
			return nil, errors.NewSchemaError(path, "unknown type token "+strconv.Quote(d), nil)
		}
		return &Field{Type: t}, nil

	case map[string]any:
		if tv, hasType := d["type"]; hasType {
			if t := n.types.ResolveValue(tv); t != TypeUndefined {
				return n.normalizeDetailed(path, t, d, keys)
			}
			return nil, errors.NewSchemaError(path, "unresolvable type token", nil)
		}
		// No type key: the map is itself a properties shorthand.
		props, err := n.normalizeProperties(path, d, keys)
		if err != nil {
			return nil, err
		}
		return &Field{Type: TypeObject, Properties: props}, nil

	default:
		t := n.types.ResolveValue(def)
		if t == TypeUndefined {
			return nil, errors.NewSchemaError(path, "unrecognized field definition", nil)
		}
		return &Field{Type: t}, nil
	}
}

// normalizeDetailed handles the {"type": ..., "items"?, "properties"?,
// "prompt"?, "required"?} form.
func (n *Normalizer) normalizeDetailed(path string, t Type, d map[string]any, keys *KeyMap) (*Field, error) {
	f := &Field{Type: t}

	if p, ok := d["prompt"].(string); ok {
		f.Prompt = p
	} else if p, ok := d["description"].(string); ok {
		f.Prompt = p
	}

	if iv, ok := d["items"]; ok {
		items, err := n.normalizeField(joinPath(path, "items"), iv, keys)
		if err != nil {
			return nil, err
		}
		f.Items = items
	}

	if pv, ok := d["properties"]; ok {
		pm, ok := pv.(map[string]any)
		if !ok {
			return nil, errors.NewSchemaError(path, "properties must be a mapping", nil)
		}
		props, err := n.normalizeProperties(path, pm, keys)
		if err != nil {
			return nil, err
		}
		f.Properties = props
	}

	if rv, ok := d["required"]; ok {
		required, err := normalizeRequired(path, rv)
		if err != nil {
			return nil, err
		}
		f.Required = required
	}

	return f, nil
}

// normalizeProperties canonicalizes a properties map key by key, recording
// every key in the mapping. Keys are processed in sorted order so collision
// resolution is deterministic within one submission.
func (n *Normalizer) normalizeProperties(path string, props map[string]any, keys *KeyMap) (map[string]*Field, error) {
	originals := make([]string, 0, len(props))
	for k := range props {
		originals = append(originals, k)
	}
	sort.Strings(originals)

	out := make(map[string]*Field, len(props))
	for _, orig := range originals {
		canonical := NormalizeKey(orig)
		keys.Set(canonical, orig)
		child, err := n.normalizeField(joinPath(path, orig), props[orig], keys)
		if err != nil {
			return nil, err
		}
		out[canonical] = child
	}
	return out, nil
}

// normalizeRequired maps a required list element-wise through NormalizeKey.
func normalizeRequired(path string, rv any) ([]string, error) {
	switch req := rv.(type) {
	case []string:
		out := make([]string, len(req))
		for i, r := range req {
			out[i] = NormalizeKey(r)
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			rs, ok := r.(string)
			if !ok {
				return nil, errors.NewSchemaError(path, "required entries must be strings", nil)
			}
			out = append(out, NormalizeKey(rs))
		}
		return out, nil
	default:
		return nil, errors.NewSchemaError(path, "required must be a list", nil)
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
