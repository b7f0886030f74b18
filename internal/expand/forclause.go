package expand

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insys-icom/medusa/internal/metadata"
	"github.com/insys-icom/medusa/internal/value"
)

// targetPattern matches a bare scalar-reference target of a medusa:for
// clause: $NAME or ${NAME}. Targets never carry the @ or & sigil — the
// clause's arity and source shape determine whether a target binds to a
// scalar, a key, or a value.
var targetPattern = regexp.MustCompile(`^\$\{?([A-Za-z_][A-Za-z0-9_.]*)\}?$`)

// ForClause is a suite's medusa:for entry, parsed into bare target names
// and a resolved source (a Sequence or Mapping, resolved against the
// suite's un-overlaid variable table).
type ForClause struct {
	Targets []string
	Source  value.Value
}

// Sentinel errors ErrArityMismatch and ErrTargetNotUnbound are declared in
// expander.go; both files belong to this package.

// ParseForClause splits entry into targets/source via metadata.ForClauseTokens,
// validates each target is a bare $NAME reference whose variable is declared
// Unbound in table (spec.md's for-target precondition), and resolves the
// source against table.
func ParseForClause(entry metadata.RawEntry, table value.Table) (*ForClause, error) {
	targetTokens, sourceTokens, err := metadata.ForClauseTokens(entry)
	if err != nil {
		return nil, err
	}

	targets := make([]string, 0, len(targetTokens))
	for _, tok := range targetTokens {
		m := targetPattern.FindStringSubmatch(tok)
		if m == nil {
			return nil, fmt.Errorf("%w: for-target %q is not a $NAME reference", ErrTargetNotUnbound, tok)
		}
		name := m[1]
		bound, ok := table[name]
		if !ok || !bound.IsUnbound() {
			return nil, fmt.Errorf("%w: %q", ErrTargetNotUnbound, name)
		}
		targets = append(targets, name)
	}

	source, err := value.Resolve(strings.Join(sourceTokens, " "), table)
	if err != nil {
		return nil, err
	}

	return &ForClause{Targets: targets, Source: source}, nil
}

// Iteration is one bound pass over a ForClause's source: a mapping from
// each target name to the scalar string it is bound to for that pass.
type Iteration struct {
	Bindings map[string]string
}

// Iterations expands the clause into one Iteration per source element,
// following spec.md §4.3 step 3's shape rules.
func (fc *ForClause) Iterations() ([]Iteration, error) {
	switch fc.Source.Kind {
	case value.KindSequence:
		return fc.sequenceIterations()
	case value.KindMapping:
		return fc.mappingIterations()
	default:
		return nil, fmt.Errorf("%w: for-source must be a list or dict", ErrArityMismatch)
	}
}

func (fc *ForClause) sequenceIterations() ([]Iteration, error) {
	iters := make([]Iteration, 0, len(fc.Source.Sequence))
	for _, elem := range fc.Source.Sequence {
		switch elem.Kind {
		case value.KindScalar:
			if len(fc.Targets) != 1 {
				return nil, fmt.Errorf("%w: scalar element requires exactly one target, got %d", ErrArityMismatch, len(fc.Targets))
			}
			iters = append(iters, Iteration{Bindings: map[string]string{fc.Targets[0]: elem.Scalar}})
		case value.KindSequence:
			if len(elem.Sequence) != len(fc.Targets) {
				return nil, fmt.Errorf("%w: element arity %d does not match target count %d", ErrArityMismatch, len(elem.Sequence), len(fc.Targets))
			}
			bindings := make(map[string]string, len(fc.Targets))
			for i, target := range fc.Targets {
				sub := elem.Sequence[i]
				if sub.Kind != value.KindScalar {
					return nil, fmt.Errorf("%w: element %d is not a scalar", ErrArityMismatch, i)
				}
				bindings[target] = sub.Scalar
			}
			iters = append(iters, Iteration{Bindings: bindings})
		default:
			return nil, fmt.Errorf("%w: sequence element must be a scalar or nested sequence", ErrArityMismatch)
		}
	}
	return iters, nil
}

func (fc *ForClause) mappingIterations() ([]Iteration, error) {
	if len(fc.Targets) != 2 {
		return nil, fmt.Errorf("%w: dict for-source requires exactly 2 targets, got %d", ErrArityMismatch, len(fc.Targets))
	}
	iters := make([]Iteration, 0, len(fc.Source.Mapping))
	for _, pair := range fc.Source.Mapping {
		if pair.Val.Kind != value.KindScalar {
			return nil, fmt.Errorf("%w: dict for-source value must be a scalar", ErrArityMismatch)
		}
		iters = append(iters, Iteration{Bindings: map[string]string{
			fc.Targets[0]: pair.Key,
			fc.Targets[1]: pair.Val.Scalar,
		}})
	}
	return iters, nil
}
