package archstore

import (
	"sync"
	"sync/atomic"

	"github.com/TheBitDrifter/bark"
)

// Registry owns the archetype lookup and the entity directory, and
// serialises every structural mutation (create, destroy, add, remove,
// move) through a single sync point. Tables this registry owns refuse
// structural mutation outside that sync point, per Table.checkMutable.
//
// Grounded in the teacher's storage.go (entity lifecycle, locking),
// generalised from its bitmask-of-named-lock-bits to a single mutex
// and from its global entity slice to a per-registry entry vector
// keyed by (id, version) Entity handles.
type Registry struct {
	lookup *ArchetypeLookup

	syncMu sync.Mutex
	inSync atomic.Bool

	entriesMu sync.RWMutex
	entries   []entry
	freeIDs   []uint32

	iterMu    sync.Mutex
	iterDepth int
	queue     operationQueue
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{lookup: NewArchetypeLookup()}
}

// Lookup exposes the registry's archetype lookup, chiefly for Query.
func (r *Registry) Lookup() *ArchetypeLookup { return r.lookup }

func (r *Registry) inSyncPoint() bool { return r.inSync.Load() }

// syncPoint serialises structural mutation on syncMu and marks every
// table this registry owns as mutable for fn's duration.
func (r *Registry) syncPoint(fn func() error) error {
	r.syncMu.Lock()
	defer r.syncMu.Unlock()
	r.inSync.Store(true)
	defer r.inSync.Store(false)
	return fn()
}

// lockIteration marks the start of a Cursor's iteration window. Nested
// calls are allowed (a query run from inside another query's loop);
// only the outermost unlockIteration drains the deferred queue.
func (r *Registry) lockIteration() {
	r.iterMu.Lock()
	r.iterDepth++
	r.iterMu.Unlock()
}

func (r *Registry) unlockIteration() {
	r.iterMu.Lock()
	r.iterDepth--
	drain := r.iterDepth == 0
	r.iterMu.Unlock()
	if !drain {
		return
	}
	for _, op := range r.queue.drain() {
		if err := op.Apply(r); err != nil {
			panic(bark.AddTrace(err))
		}
	}
}

func (r *Registry) isIterating() bool {
	r.iterMu.Lock()
	defer r.iterMu.Unlock()
	return r.iterDepth > 0
}

// allocate returns an id and its current version, recycling the most
// recently freed id when one is available.
func (r *Registry) allocate() (uint32, uint32) {
	r.entriesMu.Lock()
	defer r.entriesMu.Unlock()
	if n := len(r.freeIDs); n > 0 {
		id := r.freeIDs[n-1]
		r.freeIDs = r.freeIDs[:n-1]
		return id, r.entries[id].version
	}
	id := uint32(len(r.entries))
	r.entries = append(r.entries, entry{})
	return id, 0
}

func (r *Registry) setEntry(id uint32, e entry) {
	r.entriesMu.Lock()
	r.entries[id] = e
	r.entriesMu.Unlock()
}

func (r *Registry) getEntry(e Entity) (entry, error) {
	r.entriesMu.RLock()
	defer r.entriesMu.RUnlock()
	if int(e.ID) >= len(r.entries) {
		return entry{}, EntityNotFoundError{Entity: e}
	}
	en := r.entries[e.ID]
	if !en.matches(e) {
		return entry{}, EntityNotFoundError{Entity: e}
	}
	return en, nil
}

func (r *Registry) freeEntry(id, version uint32) {
	r.entriesMu.Lock()
	r.entries[id] = entry{version: version}
	r.freeIDs = append(r.freeIDs, id)
	r.entriesMu.Unlock()
}

func (r *Registry) patchRow(id uint32, row int) {
	r.entriesMu.Lock()
	r.entries[id].row = row
	r.entriesMu.Unlock()
}

// internArchetype returns archetype's group, creating it if this is
// the first time the archetype has been seen, and firing
// OnArchetypeCreated in that case.
func (r *Registry) internArchetype(archetype *Archetype) *TableGroup {
	_, existed := r.lookup.Find(archetype.Bitset())
	group := r.lookup.Get(archetype)
	if !existed && Config.events.OnArchetypeCreated != nil {
		Config.events.OnArchetypeCreated(archetype)
	}
	return group
}

// transitionGroup returns the group reached by adding (or removing)
// ct from from, firing OnArchetypeCreated the first time that
// transition's destination archetype is seen.
func (r *Registry) transitionGroup(from *Archetype, ct ComponentType, add bool) (*TableGroup, error) {
	var target Bitset
	if add {
		target = from.Bitset().Set(ct.id)
	} else {
		target = from.Bitset().Clear(ct.id)
	}
	_, existed := r.lookup.Find(target)

	var group *TableGroup
	var err error
	if add {
		group, err = r.lookup.GetWithAdded(from, ct)
	} else {
		group, err = r.lookup.GetWithRemoved(from, ct)
	}
	if err != nil {
		return nil, err
	}
	if !existed && Config.events.OnArchetypeCreated != nil {
		Config.events.OnArchetypeCreated(group.Key())
	}
	return group, nil
}

// unfilledTable returns a table in group with room for one more row,
// allocating and publishing a new one sized off Config's target table
// byte budget if every table in the group is full.
func (r *Registry) unfilledTable(group *TableGroup) *Table {
	if t := group.UnfilledTable(); t != nil {
		return t
	}
	rowSize := group.Key().RowSizeBytes()
	capacity := int(Config.targetTableBytes / rowSize)
	if capacity < 1 {
		capacity = 1
	}
	t := NewTable(group.Key(), capacity, r)
	if err := group.Add(t); err != nil {
		panic(bark.AddTrace(err))
	}
	if Config.events.OnTableCreated != nil {
		Config.events.OnTableCreated(t)
	}
	return t
}

// CreateArchetype canonicalises types and interns its group on this
// registry, without creating any entity.
func (r *Registry) CreateArchetype(types ...ComponentType) (*Archetype, error) {
	archetype, err := NewArchetype(types...)
	if err != nil {
		return nil, err
	}
	r.syncPoint(func() error {
		r.internArchetype(archetype)
		return nil
	})
	return archetype, nil
}

// CreateEntity allocates a new entity handle carrying exactly types,
// appending its row to an unfilled table in that archetype's group.
func (r *Registry) CreateEntity(types ...ComponentType) (Entity, error) {
	archetype, err := NewArchetype(types...)
	if err != nil {
		return Entity{}, err
	}

	var result Entity
	err = r.syncPoint(func() error {
		group := r.internArchetype(archetype)
		table := r.unfilledTable(group)
		id, version := r.allocate()
		e := Entity{ID: id, Version: version}
		row, err := table.Append(e)
		if err != nil {
			return err
		}
		r.setEntry(id, entry{table: table, row: row, version: version, live: true})
		result = e
		return nil
	})
	return result, err
}

// ContainsEntity reports whether e still names a live row.
func (r *Registry) ContainsEntity(e Entity) bool {
	_, err := r.getEntry(e)
	return err == nil
}

// FindEntity returns the archetype currently holding e.
func (r *Registry) FindEntity(e Entity) (*Archetype, error) {
	en, err := r.getEntry(e)
	if err != nil {
		return nil, err
	}
	return en.table.Archetype(), nil
}

// DestroyEntity removes e. If a Cursor over this registry is
// currently iterating, the destroy is deferred until iteration ends.
func (r *Registry) DestroyEntity(e Entity) error {
	if r.isIterating() {
		r.queue.enqueue(destroyEntityOperation{entity: e})
		return nil
	}
	return r.destroyNow(e)
}

func (r *Registry) destroyNow(e Entity) error {
	return r.syncPoint(func() error {
		en, err := r.getEntry(e)
		if err != nil {
			return err
		}
		moved, didMove, err := en.table.SwapDelete(en.row)
		if err != nil {
			return err
		}
		if didMove {
			r.patchRow(moved.ID, en.row)
		}
		r.freeEntry(e.ID, en.version+1)
		if Config.events.OnEntityDestroyed != nil {
			Config.events.OnEntityDestroyed(e)
		}
		return nil
	})
}

// AddComponent adds ct to e's archetype, transferring e's existing
// component values into the new archetype's table. A no-op if e
// already carries ct. Deferred while iteration is in progress.
func (r *Registry) AddComponent(e Entity, ct ComponentType) error {
	if ct.IsZero() {
		return NullArgumentError{Argument: "ct"}
	}
	if r.isIterating() {
		r.queue.enqueue(addComponentOperation{entity: e, ct: ct})
		return nil
	}
	return r.addNow(e, ct)
}

func (r *Registry) addNow(e Entity, ct ComponentType) error {
	return r.syncPoint(func() error {
		return r.addComponentLocked(e, ct)
	})
}

// addComponentLocked assumes syncMu is held.
func (r *Registry) addComponentLocked(e Entity, ct ComponentType) error {
	en, err := r.getEntry(e)
	if err != nil {
		return err
	}
	if en.table.Archetype().Contains(ct) {
		return nil
	}
	group, err := r.transitionGroup(en.table.Archetype(), ct, true)
	if err != nil {
		return err
	}
	return r.relocateLocked(e, en, r.unfilledTable(group))
}

// RemoveComponent removes ct from e's archetype, transferring e's
// surviving component values into the new archetype's table. A no-op
// if e does not carry ct. Deferred while iteration is in progress.
func (r *Registry) RemoveComponent(e Entity, ct ComponentType) error {
	if ct.IsZero() {
		return NullArgumentError{Argument: "ct"}
	}
	if r.isIterating() {
		r.queue.enqueue(removeComponentOperation{entity: e, ct: ct})
		return nil
	}
	return r.removeNow(e, ct)
}

func (r *Registry) removeNow(e Entity, ct ComponentType) error {
	return r.syncPoint(func() error {
		return r.removeComponentLocked(e, ct)
	})
}

func (r *Registry) removeComponentLocked(e Entity, ct ComponentType) error {
	en, err := r.getEntry(e)
	if err != nil {
		return err
	}
	if !en.table.Archetype().Contains(ct) {
		return nil
	}
	group, err := r.transitionGroup(en.table.Archetype(), ct, false)
	if err != nil {
		return err
	}
	return r.relocateLocked(e, en, r.unfilledTable(group))
}

// MoveTo relocates e directly into dst, a specific table the caller
// names (spec.md §4.7's move_to), validating that dst is owned by
// this registry and has room. Deferred while iteration is in
// progress.
func (r *Registry) MoveTo(e Entity, dst *Table) error {
	if dst == nil {
		return NullArgumentError{Argument: "dst"}
	}
	if r.isIterating() {
		r.queue.enqueue(moveEntityOperation{entity: e, table: dst})
		return nil
	}
	return r.moveNow(e, dst)
}

func (r *Registry) moveNow(e Entity, dst *Table) error {
	return r.syncPoint(func() error {
		if dst.Owner() != r {
			return TableNotOwnedError{}
		}
		en, err := r.getEntry(e)
		if err != nil {
			return err
		}
		if en.table == dst {
			return nil
		}
		if dst.IsFull() {
			return FullError{}
		}
		return r.relocateLocked(e, en, dst)
	})
}

// ModifyEntity relocates e into dst, a target archetype (spec.md
// §4.7's modify_entity), interning dst's group and picking an unfilled
// table in it internally — unlike MoveTo, the caller never resolves a
// destination table itself. A no-op if e is already in dst. Deferred
// while iteration is in progress.
func (r *Registry) ModifyEntity(e Entity, dst *Archetype) error {
	if dst == nil {
		return NullArgumentError{Argument: "dst"}
	}
	if r.isIterating() {
		r.queue.enqueue(modifyEntityOperation{entity: e, archetype: dst})
		return nil
	}
	return r.modifyNow(e, dst)
}

func (r *Registry) modifyNow(e Entity, dst *Archetype) error {
	return r.syncPoint(func() error {
		en, err := r.getEntry(e)
		if err != nil {
			return err
		}
		if en.table.Archetype().Equal(dst) {
			return nil
		}
		group := r.internArchetype(dst)
		return r.relocateLocked(e, en, r.unfilledTable(group))
	})
}

// relocateLocked moves e's row from its current table into dst,
// patching both the moved entity's entry (the one freed by the
// swap-delete) and e's own entry. Assumes syncMu is held.
func (r *Registry) relocateLocked(e Entity, en entry, dst *Table) error {
	row, err := dst.AppendFrom(e, en.table, en.row)
	if err != nil {
		return err
	}
	moved, didMove, err := en.table.SwapDelete(en.row)
	if err != nil {
		return err
	}
	if didMove {
		r.patchRow(moved.ID, en.row)
	}
	r.setEntry(e.ID, entry{table: dst, row: row, version: en.version, live: true})
	return nil
}

// CreateQuery returns a Query caching, against this registry's
// archetype lookup, every table group matching predicate.
func (r *Registry) CreateQuery(predicate *Predicate) *Query {
	return &Query{predicate: predicate, registry: r}
}

// SetComponent assigns value to entity e's T column, adding T to e's
// archetype first if it is not already present. Deferred while
// iteration is in progress.
func SetComponent[T any](r *Registry, e Entity, value T) error {
	if r.isIterating() {
		r.queue.enqueue(setComponentOperation[T]{entity: e, value: value})
		return nil
	}
	return setComponentNow(r, e, TypeOf[T](), value)
}

func setComponentNow[T any](r *Registry, e Entity, ct ComponentType, value T) error {
	return r.syncPoint(func() error {
		if err := r.addComponentLocked(e, ct); err != nil {
			return err
		}
		en, err := r.getEntry(e)
		if err != nil {
			return err
		}
		col, err := Column[T](en.table)
		if err != nil {
			return err
		}
		col[en.row] = value
		return nil
	})
}

// GetComponent returns entity e's current T value. A stale or unknown
// handle fails with EntityNotFoundError; a live entity whose archetype
// simply does not carry T fails with ColumnNotFoundError instead.
func GetComponent[T any](r *Registry, e Entity) (T, error) {
	var zero T
	ct := TypeOf[T]()
	en, err := r.getEntry(e)
	if err != nil {
		return zero, err
	}
	if !en.table.Archetype().Contains(ct) {
		return zero, ColumnNotFoundError{Type: ct}
	}
	col, err := Column[T](en.table)
	if err != nil {
		return zero, err
	}
	return col[en.row], nil
}
