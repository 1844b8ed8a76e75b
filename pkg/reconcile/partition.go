// Package reconcile implements the heuristic reconciliation engine: recursive
// matching of a data tree against a canonical schema with type coercion,
// multi-pass result accumulation, and translation of canonical results back
// to the caller's original key spellings.
package reconcile

import (
	"fmt"
)

// Partition is the matched/unmatched/errors triple produced by one
// reconciliation pass. Keys are canonical keys or dotted paths; list indices
// are suffixed as "key[i]". After every merge the three maps are pairwise
// disjoint, with precedence matched > unmatched > errors.
type Partition struct {
	// Matched holds coerced values keyed by canonical key.
	Matched map[string]any

	// Unmatched holds raw values for keys with no schema counterpart.
	Unmatched map[string]any

	// Errors holds raw values that could not be coerced to their
	// schema-expected type.
	Errors map[string]any

	// Diagnostics carries advisory notes emitted during the pass, such as
	// the multi-entity list grouping suggestion. They are data, not errors.
	Diagnostics []string
}

// NewPartition returns an empty partition with all maps initialized.
func NewPartition() Partition {
	return Partition{
		Matched:   make(map[string]any),
		Unmatched: make(map[string]any),
		Errors:    make(map[string]any),
	}
}

// PartitionOf builds a partition from loosely shaped inputs. Each section
// accepts a map keyed by path, a slice of single-entry maps, or a slice of
// bare keys (values unknown). The coercion happens once, here, so the
// partition's fields are plain maps everywhere else.
func PartitionOf(matched, unmatched, errored any) Partition {
	return Partition{
		Matched:   coerceSection(matched),
		Unmatched: coerceSection(unmatched),
		Errors:    coerceSection(errored),
	}
}

// coerceSection brings a section input to map form.
func coerceSection(v any) map[string]any {
	out := make(map[string]any)
	switch section := v.(type) {
	case nil:
	case map[string]any:
		for k, val := range section {
			out[k] = val
		}
	case []map[string]any:
		for _, entry := range section {
			for k, val := range entry {
				out[k] = val
			}
		}
	case []any:
		for _, entry := range section {
			switch e := entry.(type) {
			case map[string]any:
				for k, val := range e {
					out[k] = val
				}
			case string:
				out[e] = nil
			}
		}
	case []string:
		for _, k := range section {
			out[k] = nil
		}
	}
	return out
}

// Empty reports whether the partition carries no entries at all.
func (p Partition) Empty() bool {
	return len(p.Matched) == 0 && len(p.Unmatched) == 0 && len(p.Errors) == 0
}

// Disjoint reports whether the three maps are pairwise disjoint by key.
func (p Partition) Disjoint() bool {
	for k := range p.Matched {
		if _, ok := p.Unmatched[k]; ok {
			return false
		}
		if _, ok := p.Errors[k]; ok {
			return false
		}
	}
	for k := range p.Unmatched {
		if _, ok := p.Errors[k]; ok {
			return false
		}
	}
	return true
}

// merge folds a child partition produced one level deeper into p. Matched
// entries nest under key when key is non-empty; unmatched and error entries
// are path-qualified with the prefix.
func (p *Partition) merge(sub Partition, key string) {
	if key != "" && len(sub.Matched) > 0 {
		p.Matched[key] = sub.Matched
	}
	p.mergeScoped(sub, key)
}

// mergeFlat folds a child partition from an unresolved-key descent: matched
// entries surface at this level unchanged so fields found deeper than the
// schema expects still land on their schema keys.
func (p *Partition) mergeFlat(sub Partition, prefix string) {
	for k, v := range sub.Matched {
		p.Matched[k] = v
	}
	p.mergeScoped(sub, prefix)
}

// mergeScoped qualifies and copies the unmatched/error maps and diagnostics.
func (p *Partition) mergeScoped(sub Partition, prefix string) {
	for k, v := range sub.Unmatched {
		p.Unmatched[qualify(prefix, k)] = v
	}
	for k, v := range sub.Errors {
		p.Errors[qualify(prefix, k)] = v
	}
	p.Diagnostics = append(p.Diagnostics, sub.Diagnostics...)
}

// qualify joins a path prefix and a key with a dot.
func qualify(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}

// indexPath renders a list element path such as "tags[1]".
func indexPath(key string, i int) string {
	return fmt.Sprintf("%s[%d]", key, i)
}
