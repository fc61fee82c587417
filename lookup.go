package archstore

import (
	"sync"
	"sync/atomic"
)

const lookupInitialBuckets = 16
const lookupLoadFactor = 0.75

type lookupEntry struct {
	bitset Bitset
	group  *TableGroup
}

// lookupContainer is the immutable, published state of an
// ArchetypeLookup: a bucket array of hash chains. Readers load one
// atomically and search it without taking any lock.
type lookupContainer struct {
	buckets [][]lookupEntry
	count   int
}

func newLookupContainer(bucketCount int) *lookupContainer {
	return &lookupContainer{buckets: make([][]lookupEntry, bucketCount)}
}

func (c *lookupContainer) find(bitset Bitset) (*TableGroup, bool) {
	if len(c.buckets) == 0 {
		return nil, false
	}
	idx := bitset.Hash() % uint32(len(c.buckets))
	for _, entry := range c.buckets[idx] {
		if entry.bitset.Equal(bitset) {
			return entry.group, true
		}
	}
	return nil, false
}

// withInserted returns a new container with entry added, growing and
// rehashing if the fill threshold is reached.
func (c *lookupContainer) withInserted(bitset Bitset, group *TableGroup) *lookupContainer {
	bucketCount := len(c.buckets)
	if bucketCount == 0 {
		bucketCount = lookupInitialBuckets
	}
	next := &lookupContainer{buckets: make([][]lookupEntry, bucketCount), count: c.count + 1}
	if float64(next.count) > float64(bucketCount)*lookupLoadFactor {
		bucketCount *= 2
		next.buckets = make([][]lookupEntry, bucketCount)
	}
	rehash := func(entries []lookupEntry) {
		for _, e := range entries {
			idx := e.bitset.Hash() % uint32(bucketCount)
			next.buckets[idx] = append(next.buckets[idx], e)
		}
	}
	for _, bucket := range c.buckets {
		rehash(bucket)
	}
	idx := bitset.Hash() % uint32(bucketCount)
	next.buckets[idx] = append(next.buckets[idx], lookupEntry{bitset: bitset, group: group})
	return next
}

// ArchetypeLookup is the concurrent map from archetype bitset to
// TableGroup. Readers follow a published, immutable lookupContainer
// lock-free; writers serialise on mu and publish a freshly built
// container with a release-ordered atomic.Pointer store, grounded in
// the teacher's storage.archetypes.idsGroupedByMask map, generalised
// here for concurrent readers and writers per spec.
type ArchetypeLookup struct {
	mu        sync.Mutex
	container atomic.Pointer[lookupContainer]
	token     atomic.Uint64
}

// NewArchetypeLookup returns an empty lookup.
func NewArchetypeLookup() *ArchetypeLookup {
	l := &ArchetypeLookup{}
	l.container.Store(newLookupContainer(lookupInitialBuckets))
	return l
}

// Token returns the lookup's current identity token, bumped every time
// a new group is inserted. A Query compares this against the value it
// observed at its last cache rebuild to decide whether to rescan.
func (l *ArchetypeLookup) Token() uint64 {
	return l.token.Load()
}

// Find returns the group interned for bitset, if any.
func (l *ArchetypeLookup) Find(bitset Bitset) (*TableGroup, bool) {
	return l.container.Load().find(bitset)
}

// Add interns a brand-new group for archetype, failing with
// DuplicateKeyError if one is already present. Most callers want
// Get, which returns the existing group instead of failing.
func (l *ArchetypeLookup) Add(archetype *Archetype) (*TableGroup, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.container.Load()
	if _, ok := current.find(archetype.Bitset()); ok {
		return nil, DuplicateKeyError{Bitset: archetype.Bitset()}
	}
	group := NewTableGroup(archetype)
	l.publish(current.withInserted(archetype.Bitset(), group))
	return group, nil
}

// Get returns the group for archetype, creating and interning one if
// absent. Concurrent callers racing to create the same archetype's
// group all observe a single winning group.
func (l *ArchetypeLookup) Get(archetype *Archetype) *TableGroup {
	if group, ok := l.Find(archetype.Bitset()); ok {
		return group
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.container.Load()
	if group, ok := current.find(archetype.Bitset()); ok {
		return group
	}
	group := NewTableGroup(archetype)
	l.publish(current.withInserted(archetype.Bitset(), group))
	return group
}

// GetFromTypes canonicalises types into an Archetype and returns its
// group, creating and interning both if necessary.
func (l *ArchetypeLookup) GetFromTypes(types ...ComponentType) (*TableGroup, error) {
	archetype, err := NewArchetype(types...)
	if err != nil {
		return nil, err
	}
	return l.Get(archetype), nil
}

// GetWithAdded returns the group for archetype.Add(ct), interning the
// transition archetype if this is the first time it's been seen. The
// bitset is computed directly so the existence probe never needs to
// materialise the destination Archetype unless it is actually new.
func (l *ArchetypeLookup) GetWithAdded(archetype *Archetype, ct ComponentType) (*TableGroup, error) {
	if ct.IsZero() {
		return nil, NullArgumentError{Argument: "ct"}
	}
	target := archetype.Bitset().Set(ct.id)
	if group, ok := l.Find(target); ok {
		return group, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.container.Load()
	if group, ok := current.find(target); ok {
		return group, nil
	}
	next := archetype.Add(ct)
	group := NewTableGroup(next)
	l.publish(current.withInserted(next.Bitset(), group))
	return group, nil
}

// GetWithRemoved returns the group for archetype.Remove(ct), interning
// the transition archetype if this is the first time it's been seen.
func (l *ArchetypeLookup) GetWithRemoved(archetype *Archetype, ct ComponentType) (*TableGroup, error) {
	if ct.IsZero() {
		return nil, NullArgumentError{Argument: "ct"}
	}
	target := archetype.Bitset().Clear(ct.id)
	if group, ok := l.Find(target); ok {
		return group, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.container.Load()
	if group, ok := current.find(target); ok {
		return group, nil
	}
	next := archetype.Remove(ct)
	group := NewTableGroup(next)
	l.publish(current.withInserted(next.Bitset(), group))
	return group, nil
}

// Groups returns a snapshot of every group currently interned, for use
// by Query's cache rebuild.
func (l *ArchetypeLookup) Groups() []*TableGroup {
	container := l.container.Load()
	groups := make([]*TableGroup, 0, container.count)
	for _, bucket := range container.buckets {
		for _, entry := range bucket {
			groups = append(groups, entry.group)
		}
	}
	return groups
}

// publish must be called with mu held.
func (l *ArchetypeLookup) publish(next *lookupContainer) {
	l.container.Store(next)
	l.token.Add(1)
}
