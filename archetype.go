package archstore

import (
	"fmt"
	"sort"
	"sync"
)

// entitySize is the row footprint of one Entity handle (two uint32 fields).
const entitySize = 8

// Archetype is the canonical, immutable descriptor of a sorted,
// duplicate-free set of ComponentTypes. Archetypes with equal bitsets
// are equal; the lookup interns one Archetype per distinct bitset.
type Archetype struct {
	types        []ComponentType
	bitset       Bitset
	managedCount int
	podCount     int
	tagCount     int
	rowSize      uint32
	columnSlot   []int32

	// edges memoizes the most recent add/remove transitions out of this
	// archetype, keyed by the ComponentType id involved, so repeatedly
	// transitioning the same archetype by the same component skips the
	// sort-and-rebuild path. Held as a pointer so Archetype itself stays
	// a plain comparable-by-value-shape struct without embedding a lock.
	edges *archetypeEdges
}

type archetypeEdges struct {
	mu     sync.Mutex
	add    map[uint32]*Archetype
	remove map[uint32]*Archetype
}

func newArchetypeEdges() *archetypeEdges {
	return &archetypeEdges{
		add:    make(map[uint32]*Archetype),
		remove: make(map[uint32]*Archetype),
	}
}

var baseArchetype = buildArchetype(nil)

// BaseArchetype returns the canonical empty archetype: zero types, an
// empty bitset, and a row size equal to the Entity handle's size.
func BaseArchetype() *Archetype {
	return baseArchetype
}

// NewArchetype canonicalises an arbitrary collection of ComponentTypes:
// it copies, sorts by (category, id), removes duplicates, and derives
// the bitset, partition counts, and row size. An empty input returns
// the shared base archetype. A null or otherwise invalid
// ComponentType is rejected with InvalidComponentTypeError.
func NewArchetype(types ...ComponentType) (*Archetype, error) {
	filtered := make([]ComponentType, 0, len(types))
	for _, ct := range types {
		if ct.IsZero() {
			return nil, InvalidComponentTypeError{Type: ct}
		}
		if ct.category != Managed && ct.category != POD && ct.category != Tag {
			return nil, InvalidComponentTypeError{Type: ct}
		}
		filtered = append(filtered, ct)
	}
	if len(filtered) == 0 {
		return baseArchetype, nil
	}
	return buildArchetype(dedupeSorted(filtered)), nil
}

func dedupeSorted(types []ComponentType) []ComponentType {
	sort.Slice(types, func(i, j int) bool {
		return componentLess(types[i], types[j])
	})
	out := types[:0:0]
	var lastID uint32
	haveLast := false
	for _, ct := range types {
		if haveLast && ct.id == lastID {
			continue
		}
		out = append(out, ct)
		lastID = ct.id
		haveLast = true
	}
	return out
}

func componentLess(a, b ComponentType) bool {
	if a.category != b.category {
		return a.category < b.category
	}
	return a.id < b.id
}

// buildArchetype assumes types is already sorted by (category, id) and
// duplicate-free (NewArchetype and the add/remove transitions both
// guarantee this before calling in).
func buildArchetype(types []ComponentType) *Archetype {
	a := &Archetype{
		types: types,
		edges: newArchetypeEdges(),
	}

	var maxID uint32
	haveMax := false
	for _, ct := range types {
		switch ct.category {
		case Managed:
			a.managedCount++
		case POD:
			a.podCount++
		case Tag:
			a.tagCount++
		}
		a.bitset = a.bitset.Set(ct.id)
		if !haveMax || ct.id > maxID {
			maxID = ct.id
			haveMax = true
		}
	}

	a.rowSize = entitySize
	a.columnSlot = newColumnSlots(maxID, haveMax)
	column := int32(0)
	for _, ct := range types {
		if ct.category == Tag {
			continue
		}
		a.rowSize += ct.size
		a.columnSlot[ct.id] = column
		column++
	}

	return a
}

func newColumnSlots(maxID uint32, have bool) []int32 {
	if !have {
		return nil
	}
	slots := make([]int32, maxID+1)
	for i := range slots {
		slots[i] = -1
	}
	return slots
}

// Types returns the archetype's sorted, duplicate-free component type
// list. The returned slice must not be mutated by the caller.
func (a *Archetype) Types() []ComponentType { return a.types }

// Bitset returns the archetype's identity bitset.
func (a *Archetype) Bitset() Bitset { return a.bitset }

// ManagedCount, PodCount, TagCount report the per-category partition sizes.
func (a *Archetype) ManagedCount() int { return a.managedCount }
func (a *Archetype) PodCount() int     { return a.podCount }
func (a *Archetype) TagCount() int     { return a.tagCount }

// RowSizeBytes is size_of(Entity) plus the byte size of every non-tag
// component column.
func (a *Archetype) RowSizeBytes() uint32 { return a.rowSize }

// Contains reports whether ct is one of this archetype's component types.
func (a *Archetype) Contains(ct ComponentType) bool {
	return a.bitset.Test(ct.id)
}

// IndexOf returns the position of ct within Types(), restricted to
// ct.Category()'s contiguous partition. Returns -1 if ct is absent.
func (a *Archetype) IndexOf(ct ComponentType) int {
	lo, hi := a.partitionBounds(ct.category)
	idx := sort.Search(hi-lo, func(i int) bool {
		return a.types[lo+i].id >= ct.id
	})
	pos := lo + idx
	if pos >= hi || a.types[pos].id != ct.id {
		return -1
	}
	return pos
}

func (a *Archetype) partitionBounds(category ComponentCategory) (lo, hi int) {
	switch category {
	case Managed:
		return 0, a.managedCount
	case POD:
		return a.managedCount, a.managedCount + a.podCount
	case Tag:
		return a.managedCount + a.podCount, len(a.types)
	default:
		return 0, 0
	}
}

// columnIndex resolves ct to its column index via the dense slot array.
// Returns -1 when ct is absent or is a Tag, including when ct's id lies
// beyond this archetype's slot range.
func (a *Archetype) columnIndex(ct ComponentType) int32 {
	if int(ct.id) >= len(a.columnSlot) {
		return -1
	}
	return a.columnSlot[ct.id]
}

// Add returns the archetype resulting from adding ct. Returns a
// unchanged if ct is null or already present. The result is memoized
// per ct.id on a, so repeated transitions by the same component type
// reuse the cached archetype instead of rebuilding it.
func (a *Archetype) Add(ct ComponentType) *Archetype {
	if ct.IsZero() || a.Contains(ct) {
		return a
	}

	a.edges.mu.Lock()
	if cached, ok := a.edges.add[ct.id]; ok {
		a.edges.mu.Unlock()
		return cached
	}
	a.edges.mu.Unlock()

	merged := make([]ComponentType, len(a.types)+1)
	copy(merged, a.types)
	merged[len(a.types)] = ct
	result := buildArchetype(dedupeSorted(merged))

	a.edges.mu.Lock()
	a.edges.add[ct.id] = result
	a.edges.mu.Unlock()
	return result
}

// Remove returns the archetype resulting from removing ct. Returns a
// unchanged if ct is null or absent; returns the base archetype if ct
// is a's only component type.
func (a *Archetype) Remove(ct ComponentType) *Archetype {
	if ct.IsZero() || !a.Contains(ct) {
		return a
	}
	if len(a.types) == 1 {
		return baseArchetype
	}

	a.edges.mu.Lock()
	if cached, ok := a.edges.remove[ct.id]; ok {
		a.edges.mu.Unlock()
		return cached
	}
	a.edges.mu.Unlock()

	remaining := make([]ComponentType, 0, len(a.types)-1)
	for _, existing := range a.types {
		if existing.id != ct.id {
			remaining = append(remaining, existing)
		}
	}
	result := buildArchetype(remaining)

	a.edges.mu.Lock()
	a.edges.remove[ct.id] = result
	a.edges.mu.Unlock()
	return result
}

// Equal reports whether a and other describe the same set of component
// types, by bitset comparison.
func (a *Archetype) Equal(other *Archetype) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}
	return a.bitset.Equal(other.bitset)
}

// Hash returns the archetype's identity hash, the hash of its bitset.
func (a *Archetype) Hash() uint32 { return a.bitset.Hash() }

func (a *Archetype) String() string {
	return fmt.Sprintf("Archetype%v", a.types)
}
