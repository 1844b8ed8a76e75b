package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/jsonmend/jsonmend/pkg/schema"
)

// Pass is one application of a reconciliation strategy whose output was
// merged into accumulated state.
type Pass struct {
	Name      string
	Partition Partition
}

// Accumulator merges a sequence of Result Partitions — one per pipeline
// pass — into one final partition, preserving the disjointness invariant.
// One Accumulator serves exactly one request; it is not safe for concurrent
// use and must not be shared across in-flight requests.
type Accumulator struct {
	mapper  *Mapper
	log     zerolog.Logger
	passes  []Pass
	current Partition
}

// NewAccumulator creates an empty accumulator whose finalized output is
// mapped back to original spellings through the given key mapping.
func NewAccumulator(keys *schema.KeyMap, log zerolog.Logger) *Accumulator {
	return &Accumulator{
		mapper:  NewMapper(keys),
		log:     log,
		current: NewPartition(),
	}
}

// AddPass merges one pass's partition into accumulated state. Matched
// entries win over everything and evict the key elsewhere; unmatched keys
// absent from the new pass are pruned as resolved or superseded; the same
// pruning applies to errors, with precedence matched > unmatched > errors.
func (a *Accumulator) AddPass(name string, p Partition) {
	a.passes = append(a.passes, Pass{Name: name, Partition: p})
	a.apply(p)

	if !a.current.Disjoint() {
		// Unreachable by construction of apply; kept as a tripwire.
		a.log.Error().Str("pass", name).Msg("partition disjointness violated")
	}
	a.log.Debug().
		Str("pass", name).
		Int("matched", len(a.current.Matched)).
		Int("unmatched", len(a.current.Unmatched)).
		Int("errors", len(a.current.Errors)).
		Msg("pass accumulated")
}

// apply implements the per-pass merge rule.
func (a *Accumulator) apply(p Partition) {
	for k, v := range p.Matched {
		a.current.Matched[k] = v
		delete(a.current.Unmatched, k)
		delete(a.current.Errors, k)
	}

	unmatched := make(map[string]any, len(p.Unmatched))
	for k, v := range p.Unmatched {
		if _, ok := a.current.Matched[k]; !ok {
			unmatched[k] = v
		}
	}
	a.current.Unmatched = unmatched

	errs := make(map[string]any, len(p.Errors))
	for k, v := range p.Errors {
		if _, ok := a.current.Matched[k]; ok {
			continue
		}
		if _, ok := a.current.Unmatched[k]; ok {
			continue
		}
		errs[k] = v
	}
	a.current.Errors = errs

	a.current.Diagnostics = append(a.current.Diagnostics, p.Diagnostics...)
}

// Partition returns a copy of the accumulated partition.
func (a *Accumulator) Partition() Partition {
	out := NewPartition()
	for k, v := range a.current.Matched {
		out.Matched[k] = v
	}
	for k, v := range a.current.Unmatched {
		out.Unmatched[k] = v
	}
	for k, v := range a.current.Errors {
		out.Errors[k] = v
	}
	out.Diagnostics = append(out.Diagnostics, a.current.Diagnostics...)
	return out
}

// PassNames returns the names of the passes merged so far, in order.
func (a *Accumulator) PassNames() []string {
	names := make([]string, len(a.passes))
	for i, p := range a.passes {
		names[i] = p.Name
	}
	return names
}

// Mapper returns the output mapper bound to this accumulator's key mapping.
func (a *Accumulator) Mapper() *Mapper {
	return a.mapper
}

// Finalize returns the matched set mapped through the key mapping to the
// caller's original spellings. With reconcile set, the partition is
// recomputed from the full pass history instead of incrementally: matched is
// still last-write-wins, but unmatched and errors accumulate across all
// passes, which is useful when passes may conflict.
func (a *Accumulator) Finalize(reconcile bool) map[string]any {
	if reconcile {
		a.replay()
	}
	return a.mapper.MapKeys(a.current.Matched)
}

// replay recomputes accumulated state from the pass history.
func (a *Accumulator) replay() {
	fresh := NewPartition()
	for _, pass := range a.passes {
		for k, v := range pass.Partition.Matched {
			fresh.Matched[k] = v
		}
	}
	for _, pass := range a.passes {
		for k, v := range pass.Partition.Unmatched {
			if _, ok := fresh.Matched[k]; !ok {
				fresh.Unmatched[k] = v
			}
		}
		for k, v := range pass.Partition.Errors {
			if _, ok := fresh.Matched[k]; ok {
				continue
			}
			if _, ok := fresh.Unmatched[k]; ok {
				continue
			}
			fresh.Errors[k] = v
		}
		fresh.Diagnostics = append(fresh.Diagnostics, pass.Partition.Diagnostics...)
	}
	a.current = fresh
}
