// Package depspec implements the dependency model of spec.md §4.4: a Run's
// resolved deps are partitioned into a static token set and zero or more
// dynamic choice-sets (DynChoice), each bound to exactly one option at
// dispatch time.
package depspec

import "github.com/insys-icom/medusa/internal/value"

// DynChoice is one "ANY $VAR IN $LIST" dependency slot: a variable name and
// its ordered, deduplicated option pool. Iteration/tie-break order follows
// declaration order (spec.md §4.5's "first-available in declared option
// order" rule), never re-sorted.
type DynChoice struct {
	VarName string
	Options []string
}

// DepSpec is a Run's dependency model before dynamic binding: a static
// token set (order preserved for deterministic MEDUSA_DEPS output) plus an
// ordered list of DynChoice slots, ordered by first appearance in the
// source deps entries.
type DepSpec struct {
	Static  []string
	Dynamic []DynChoice
}

// Partition builds a DepSpec from the plain tokens and structural ANY
// clauses produced by value.ResolveDepsTokens across every medusa:deps
// entry of a Run, resolving each clause's option pool against table.
func Partition(plainTokens []string, clauses []value.AnyClause, table value.Table) (DepSpec, error) {
	spec := DepSpec{Static: dedupOrdered(plainTokens)}
	for _, c := range clauses {
		opts, err := value.ResolveAnyOptions(c, table)
		if err != nil {
			return DepSpec{}, err
		}
		spec.Dynamic = append(spec.Dynamic, DynChoice{VarName: c.VarName, Options: dedupOrdered(opts)})
	}
	return spec, nil
}

// StaticSet returns the static tokens as a lookup set.
func (d DepSpec) StaticSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Static))
	for _, s := range d.Static {
		set[s] = struct{}{}
	}
	return set
}

// EffectiveDeps returns the ordered, deduplicated effective dep set given a
// binding of each DynChoice's variable name to its chosen option: static
// tokens in declared order, then the chosen dynamic values in DynChoice
// declared order (spec.md §6's MEDUSA_DEPS ordering rule). A DynChoice with
// no binding yet is omitted — callers needing the full set should only call
// this post-admission, when every DynChoice is bound.
func (d DepSpec) EffectiveDeps(bound map[string]string) []string {
	all := append([]string(nil), d.Static...)
	for _, c := range d.Dynamic {
		if v, ok := bound[c.VarName]; ok {
			all = append(all, v)
		}
	}
	return dedupOrdered(all)
}

func dedupOrdered(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
