package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/logging"
	"github.com/jsonmend/jsonmend/pkg/schema"
)

// ListEntityPolicy decides what happens when a list the schema expects to
// hold one nested object type produces more than one matched entity.
type ListEntityPolicy int

const (
	// ListEntityFirst keeps the first matched entity and drops the rest
	// into the diagnostic. This is the default.
	ListEntityFirst ListEntityPolicy = iota
	// ListEntityFanOut keeps every matched entity as a list.
	ListEntityFanOut
)

// String returns a readable policy name.
func (p ListEntityPolicy) String() string {
	if p == ListEntityFanOut {
		return "fan-out"
	}
	return "first"
}

// Engine recursively matches a data tree against the canonical schema,
// coercing types and tracking path-qualified failures. The engine never
// raises for data shape; every problem becomes a partition entry.
type Engine struct {
	norm   *schema.Normalizer
	policy ListEntityPolicy
	log    zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithListEntityPolicy sets the multi-entity list policy.
func WithListEntityPolicy(p ListEntityPolicy) EngineOption {
	return func(e *Engine) { e.policy = p }
}

// WithEngineLogger sets the logger for advisory diagnostics.
func WithEngineLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates an Engine reading its schema from the given normalizer.
func NewEngine(norm *schema.Normalizer, opts ...EngineOption) *Engine {
	e := &Engine{
		norm: norm,
		log:  *logging.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process produces a Result Partition for one data tree. Calling it before a
// schema has been submitted is a precondition failure.
func (e *Engine) Process(data map[string]any) (Partition, error) {
	s := e.norm.Schema()
	if s == nil {
		return Partition{}, errors.ErrSchemaNotSubmitted
	}
	p := e.processLevel(data, s.Root)
	e.log.Debug().
		Int("matched", len(p.Matched)).
		Int("unmatched", len(p.Unmatched)).
		Int("errors", len(p.Errors)).
		Msg("heuristic pass complete")
	return p, nil
}

// processLevel reconciles one nesting level of the data tree against a schema
// subtree. Keys in the returned partition are relative to this level; callers
// qualify them on merge.
func (e *Engine) processLevel(data map[string]any, node *schema.Field) Partition {
	p := NewPartition()

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value := data[k]
		ck := schema.NormalizeKey(k)

		var field *schema.Field
		if node != nil {
			field = node.Properties[ck]
		}

		if field == nil {
			// No schema counterpart here. A nested dict may hold fields
			// the producer buried deeper than the schema expects, so
			// recurse against the same subtree one level deeper.
			if vmap, ok := value.(map[string]any); ok {
				sub := e.processLevel(vmap, node)
				p.mergeFlat(sub, ck)
				continue
			}
			p.Unmatched[ck] = value
			continue
		}

		switch field.Type {
		case schema.TypeObject:
			vmap, ok := value.(map[string]any)
			if !ok {
				p.Unmatched[ck] = value
				continue
			}
			sub := e.processLevel(vmap, field)
			p.merge(sub, ck)

		case schema.TypeList:
			e.processList(&p, ck, value, field)

		default:
			coerced, err := Coerce(value, field.Type)
			if err != nil {
				p.Errors[ck] = value
				continue
			}
			p.Matched[ck] = coerced
		}
	}

	return p
}

// processList reconciles a list-typed field. A comma-separated string is
// split into a list first; the item type comes from the schema's items
// definition, else is inferred from the first element. Per-element failures
// never block the rest of the list.
func (e *Engine) processList(p *Partition, key string, value any, field *schema.Field) {
	if s, ok := value.(string); ok {
		parts := strings.Split(s, ",")
		list := make([]any, 0, len(parts))
		for _, part := range parts {
			list = append(list, strings.TrimSpace(part))
		}
		value = list
	}

	list, ok := value.([]any)
	if !ok {
		p.Unmatched[key] = value
		return
	}

	itemField := field.Items
	itemType := schema.TypeUndefined
	if itemField != nil {
		itemType = itemField.Type
	}
	if itemType == schema.TypeUndefined && len(list) > 0 {
		itemType = inferType(list[0])
	}

	var matched []any
	var entities []map[string]any
	errored := false

	for i, el := range list {
		elPath := indexPath(key, i)

		if elMap, isMap := el.(map[string]any); isMap && itemType == schema.TypeObject {
			subSchema := itemField
			if subSchema == nil {
				subSchema = &schema.Field{Type: schema.TypeObject}
			}
			sub := e.processLevel(elMap, subSchema)
			if len(sub.Matched) > 0 {
				matched = append(matched, sub.Matched)
				entities = append(entities, sub.Matched)
			}
			p.mergeScoped(sub, elPath)
			continue
		}

		coerced, err := coerceElement(el, itemType)
		if err != nil {
			p.Errors[elPath] = el
			errored = true
			continue
		}
		matched = append(matched, coerced)
	}

	// A list field is emitted only when at least one element matched.
	if len(matched) == 0 {
		if !errored {
			p.Unmatched[key] = value
		}
		return
	}

	if itemType == schema.TypeObject {
		switch {
		case len(entities) == 1 && len(matched) == 1:
			// A single entity collapses to the nested object itself.
			p.Matched[key] = entities[0]
		case len(entities) > 1:
			diag := fmt.Sprintf(
				"field %q produced %d nested entities; consider grouping them under a parent key in the schema",
				key, len(entities))
			p.Diagnostics = append(p.Diagnostics, diag)
			e.log.Warn().
				Str("key", key).
				Int("entities", len(entities)).
				Str("policy", e.policy.String()).
				Msg("multiple nested entities found in a single list")
			if e.policy == ListEntityFanOut {
				p.Matched[key] = matched
			} else {
				p.Matched[key] = entities[0]
			}
		default:
			p.Matched[key] = matched
		}
		return
	}

	p.Matched[key] = matched
}

// inferType guesses a canonical type from a decoded JSON value.
func inferType(v any) schema.Type {
	switch v.(type) {
	case map[string]any:
		return schema.TypeObject
	case []any:
		return schema.TypeList
	case string:
		return schema.TypeString
	case bool:
		return schema.TypeBoolean
	case float64, float32:
		return schema.TypeNumber
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return schema.TypeInteger
	default:
		return schema.TypeUndefined
	}
}
