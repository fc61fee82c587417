package archstore

import "fmt"

// Predicate filters archetypes by three independent bitset tests:
// every Required type must be present, at least one Included type
// must be present (when any are named), and no Excluded type may be
// present. Grounded in the teacher's query.go And/Or/Not composite
// tree, collapsed here to the single flat required/included/excluded
// shape the spec calls for instead of an arbitrary boolean tree.
type Predicate struct {
	required Bitset
	included Bitset
	excluded Bitset

	requiredTypes []ComponentType
	includedTypes []ComponentType
	excludedTypes []ComponentType
}

// NewPredicate builds a Predicate directly from three component lists.
// Most callers will prefer PredicateBuilder's fluent form instead.
func NewPredicate(required, included, excluded []ComponentType) *Predicate {
	p := &Predicate{
		requiredTypes: append([]ComponentType(nil), required...),
		includedTypes: append([]ComponentType(nil), included...),
		excludedTypes: append([]ComponentType(nil), excluded...),
	}
	for _, ct := range required {
		p.required = p.required.Set(ct.id)
	}
	for _, ct := range included {
		p.included = p.included.Set(ct.id)
	}
	for _, ct := range excluded {
		p.excluded = p.excluded.Set(ct.id)
	}
	return p
}

// Test reports whether archetype satisfies the predicate.
func (p *Predicate) Test(archetype *Archetype) bool {
	bitset := archetype.Bitset()
	if !p.required.Requires(bitset) {
		return false
	}
	if len(p.includedTypes) > 0 && !p.included.Intersects(bitset) {
		return false
	}
	if !p.excluded.Disjoint(bitset) {
		return false
	}
	return true
}

func (p *Predicate) String() string {
	return fmt.Sprintf("Predicate{require:%v include:%v exclude:%v}", p.requiredTypes, p.includedTypes, p.excludedTypes)
}

// PredicateBuilder fluently accumulates the three component lists a
// Predicate tests against.
type PredicateBuilder struct {
	required []ComponentType
	included []ComponentType
	excluded []ComponentType
}

// Require adds types to the set an archetype must carry all of.
func (b *PredicateBuilder) Require(types ...ComponentType) *PredicateBuilder {
	b.required = append(b.required, types...)
	return b
}

// Include adds types to the set an archetype must carry at least one
// of. Calling Include is a no-op restriction until at least one type
// has been added to this set.
func (b *PredicateBuilder) Include(types ...ComponentType) *PredicateBuilder {
	b.included = append(b.included, types...)
	return b
}

// Exclude adds types to the set an archetype must carry none of.
func (b *PredicateBuilder) Exclude(types ...ComponentType) *PredicateBuilder {
	b.excluded = append(b.excluded, types...)
	return b
}

// Build returns the accumulated Predicate.
func (b *PredicateBuilder) Build() *Predicate {
	return NewPredicate(b.required, b.included, b.excluded)
}
