package schema

import (
	"sort"
)

// Field is one node of the canonical field-definition tree: a primitive type
// tag, a list with an item definition, or a nested object with a properties
// map. Prompt carries optional free-text guidance for the data producer.
type Field struct {
	Type       Type
	Prompt     string
	Items      *Field
	Properties map[string]*Field
	Required   []string
}

// Lookup walks the definition tree by canonical path segments. The segment
// "items" descends into a list's item definition; any other segment descends
// into Properties. Returns nil when the path does not resolve.
func (f *Field) Lookup(segments ...string) *Field {
	cur := f
	for _, seg := range segments {
		if cur == nil {
			return nil
		}
		if seg == "items" {
			cur = cur.Items
			continue
		}
		cur = cur.Properties[seg]
	}
	return cur
}

// propertyKeys returns the canonical property keys in sorted order.
func (f *Field) propertyKeys() []string {
	keys := make([]string, 0, len(f.Properties))
	for k := range f.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// jsonSchema renders the field into a draft-7 JSON Schema document fragment.
// The canonical "list" tag becomes the JSON Schema "array" token; everything
// else maps one to one.
func (f *Field) jsonSchema() map[string]any {
	doc := make(map[string]any)

	switch f.Type {
	case TypeList:
		doc["type"] = "array"
		if f.Items != nil {
			doc["items"] = f.Items.jsonSchema()
		}
	case TypeObject:
		doc["type"] = "object"
		if len(f.Properties) > 0 {
			props := make(map[string]any, len(f.Properties))
			for k, v := range f.Properties {
				props[k] = v.jsonSchema()
			}
			doc["properties"] = props
		}
		if len(f.Required) > 0 {
			required := make([]any, len(f.Required))
			for i, r := range f.Required {
				required[i] = r
			}
			doc["required"] = required
		}
	default:
		doc["type"] = f.Type.String()
	}

	if f.Prompt != "" {
		doc["description"] = f.Prompt
	}
	return doc
}

// example produces a placeholder value shaped like the field, used to steer
// the data producer toward the expected document shape.
func (f *Field) example(keys *KeyMap) any {
	switch f.Type {
	case TypeString:
		return "text"
	case TypeInteger:
		return 123
	case TypeNumber:
		return 12.34
	case TypeBoolean:
		return true
	case TypeList:
		if f.Items != nil {
			return []any{f.Items.example(keys)}
		}
		return []any{"text"}
	case TypeObject:
		obj := make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			obj[keys.Original(k)] = v.example(keys)
		}
		return obj
	default:
		return nil
	}
}

// collectInstructions appends "original.path: prompt" lines for every field
// carrying guidance text, depth first in sorted key order.
func (f *Field) collectInstructions(keys *KeyMap, path string, out *[]string) {
	if f.Prompt != "" && path != "" {
		*out = append(*out, path+": "+f.Prompt)
	}
	if f.Items != nil {
		f.Items.collectInstructions(keys, path, out)
	}
	for _, k := range f.propertyKeys() {
		childPath := keys.Original(k)
		if path != "" {
			childPath = path + "." + childPath
		}
		f.Properties[k].collectInstructions(keys, childPath, out)
	}
}

// findKey resolves a canonical property key anywhere under the field,
// breadth first so a shallower definition shadows a deeper one with the
// same name.
func (f *Field) findKey(key string) *Field {
	queue := []*Field{f}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil {
			continue
		}
		if hit, ok := cur.Properties[key]; ok {
			return hit
		}
		for _, k := range cur.propertyKeys() {
			queue = append(queue, cur.Properties[k])
		}
		if cur.Items != nil {
			queue = append(queue, cur.Items)
		}
	}
	return nil
}

// collectKeys appends every canonical property key at every nesting level.
func (f *Field) collectKeys(out *[]string) {
	for _, k := range f.propertyKeys() {
		*out = append(*out, k)
		f.Properties[k].collectKeys(out)
	}
	if f.Items != nil {
		f.Items.collectKeys(out)
	}
}
