package jsonmend

import (
	"sort"

	"github.com/jsonmend/jsonmend/pkg/reconcile"
)

// Entry is one leftover key-value pair from reconciliation. Key is the
// path-qualified canonical key mapped back to the caller's spelling where
// one is known.
type Entry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Result is the outcome of one reconciliation request. Matched holds the
// accepted values under the schema's original key spellings; Unmatched holds
// input that matched no schema key; Errors holds values whose keys matched
// but could not be coerced to the expected type. The three sections never
// share a key.
type Result struct {
	RequestID   string         `json:"request_id"`
	Matched     map[string]any `json:"matched"`
	Unmatched   []Entry        `json:"unmatched,omitempty"`
	Errors      []Entry        `json:"errors,omitempty"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
	Passes      []string       `json:"passes"`
	Document    string         `json:"document"`
}

// Complete reports whether every input key landed in matched.
func (r *Result) Complete() bool {
	return len(r.Unmatched) == 0 && len(r.Errors) == 0
}

// entries flattens a partition section into sorted entries with keys mapped
// back to original spellings.
func entries(section map[string]any, mapper *reconcile.Mapper) []Entry {
	if len(section) == 0 {
		return nil
	}
	out := make([]Entry, 0, len(section))
	for k, v := range section {
		out = append(out, Entry{Key: mapper.MapPath(k), Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
