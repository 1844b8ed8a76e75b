package reconcile

import (
	"sort"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/schema"
)

// Mapper translates canonical partition keys back into the caller's original
// spellings using the schema's key mapping. Canonical keys without a recorded
// original pass through unchanged.
type Mapper struct {
	keys *schema.KeyMap
}

// NewMapper creates a Mapper over a key mapping.
func NewMapper(keys *schema.KeyMap) *Mapper {
	return &Mapper{keys: keys}
}

// MapKeys rewrites a matched tree's canonical keys to original spellings,
// recursing through nested objects and lists.
func (m *Mapper) MapKeys(matched map[string]any) map[string]any {
	out := make(map[string]any, len(matched))
	for k, v := range matched {
		out[m.keys.Original(k)] = m.mapValue(v)
	}
	return out
}

func (m *Mapper) mapValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return m.MapKeys(val)
	case []any:
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = m.mapValue(el)
		}
		return out
	default:
		return v
	}
}

// MapPath rewrites a dotted canonical path segment-wise, preserving list
// index suffixes such as "tags[1]".
func (m *Mapper) MapPath(path string) string {
	if path == "" {
		return path
	}
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		base, suffix := seg, ""
		if idx := strings.IndexByte(seg, '['); idx >= 0 {
			base, suffix = seg[:idx], seg[idx:]
		}
		segments[i] = m.keys.Original(base) + suffix
	}
	return strings.Join(segments, ".")
}

// Document assembles the matched tree into a JSON document keyed by original
// spellings.
func (m *Mapper) Document(matched map[string]any) (string, error) {
	mapped := m.MapKeys(matched)

	keys := make([]string, 0, len(mapped))
	for k := range mapped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := "{}"
	for _, k := range keys {
		var err error
		doc, err = sjson.Set(doc, escapePath(k), mapped[k])
		if err != nil {
			return "", errors.WrapParse("json", err)
		}
	}
	return doc, nil
}

// escapePath escapes sjson path metacharacters in an original key so it is
// treated as one literal segment.
func escapePath(key string) string {
	r := strings.NewReplacer(
		".", `\.`,
		"*", `\*`,
		"?", `\?`,
		"|", `\|`,
		"#", `\#`,
		"@", `\@`,
	)
	return r.Replace(key)
}
