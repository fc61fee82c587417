package archstore

import (
	"sync"
	"sync/atomic"
)

// TableGroup is the set of all tables sharing one Archetype — "the
// freelist of partially-filled tables" for that archetype. Its table
// list is copy-on-write: writers hold mu while building a new
// slice and publish it through an atomic.Pointer; readers follow the
// published pointer lock-free and always see a consistent snapshot.
type TableGroup struct {
	key    *Archetype
	mu     sync.Mutex
	tables atomic.Pointer[[]*Table]
}

// NewTableGroup creates an empty group for key.
func NewTableGroup(key *Archetype) *TableGroup {
	g := &TableGroup{key: key}
	empty := make([]*Table, 0)
	g.tables.Store(&empty)
	return g
}

// Key returns the archetype this group's tables all share.
func (g *TableGroup) Key() *Archetype { return g.key }

// Tables returns a snapshot of the group's current table list. The
// returned slice must not be mutated.
func (g *TableGroup) Tables() []*Table {
	return *g.tables.Load()
}

// Add publishes table as a new member of the group. Requires
// table.Archetype() == g.Key(); otherwise returns ArchetypeMismatchError.
func (g *TableGroup) Add(table *Table) error {
	if !table.Archetype().Equal(g.key) {
		return ArchetypeMismatchError{Expected: g.key, Got: table.Archetype()}
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	old := *g.tables.Load()
	next := make([]*Table, len(old)+1)
	copy(next, old)
	next[len(old)] = table
	g.tables.Store(&next)
	return nil
}

// Remove drops the first reference to table equal by pointer identity.
// A table not present in the group is a no-op.
func (g *TableGroup) Remove(table *Table) {
	g.mu.Lock()
	defer g.mu.Unlock()

	old := *g.tables.Load()
	idx := -1
	for i, existing := range old {
		if existing == table {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	next := make([]*Table, 0, len(old)-1)
	next = append(next, old[:idx]...)
	next = append(next, old[idx+1:]...)
	g.tables.Store(&next)
}

// UnfilledTable returns the first Partial or Empty table in the group,
// or nil if every table is Full.
func (g *TableGroup) UnfilledTable() *Table {
	for _, t := range g.Tables() {
		if !t.IsFull() {
			return t
		}
	}
	return nil
}
