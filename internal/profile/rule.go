package profile

import (
	"fmt"

	"rt-dicom-toolkit/internal/identity"
)

// Kind discriminates the rule variants.
type Kind int

const (
	// Constant replaces the field with a fixed value.
	Constant Kind = iota
	// Derive computes the replacement from the original value.
	Derive
	// ConsistentUID replaces the field through the run's UID mapper so
	// that repeated originals share a replacement.
	ConsistentUID
)

// Rule is one field's replacement strategy. Exactly one of the variant
// payloads is meaningful, selected by Kind.
type Rule struct {
	Kind  Kind
	Value string                               // Constant
	Fn    func(original string) (string, error) // Derive
}

// ConstantRule builds a fixed-value rule.
func ConstantRule(value string) Rule {
	return Rule{Kind: Constant, Value: value}
}

// DeriveRule builds a rule computing the replacement from the original.
func DeriveRule(fn func(string) (string, error)) Rule {
	return Rule{Kind: Derive, Fn: fn}
}

// ConsistentUIDRule builds a rule bound to the run's UID mapper.
func ConsistentUIDRule() Rule {
	return Rule{Kind: ConsistentUID}
}

// Eval computes the replacement value for a field's original value. The
// run context supplies mapper state for ConsistentUID and for Derive
// rules that consult mappers.
func (r Rule) Eval(field, original string, run *identity.Run) (string, error) {
	switch r.Kind {
	case Constant:
		return r.Value, nil
	case Derive:
		if r.Fn == nil {
			return "", fmt.Errorf("derive rule for %s has no function", field)
		}
		return r.Fn(original)
	case ConsistentUID:
		return run.UIDs.New(field, original), nil
	default:
		return "", fmt.Errorf("unknown rule kind %d for %s", r.Kind, field)
	}
}
