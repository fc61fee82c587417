package archstore

import (
	"reflect"
	"sync/atomic"
	"unsafe"
)

// Entity is a logical row in exactly one Table: an (id, version) handle.
// Id is an index into a Registry's entry vector; version disambiguates
// a recycled id from the entity that previously held it.
type Entity struct {
	ID      uint32
	Version uint32
}

// podColumn is one POD component's backing buffer: a fixed-capacity
// array allocated via reflect and addressed by raw offset, grounded in
// delaneyj-arche's Storage.Get/set. Holding no references, it needs no
// GC cooperation beyond keeping buffer alive.
type podColumn struct {
	buffer   reflect.Value
	base     unsafe.Pointer
	itemSize uintptr
}

func newPodColumn(elem reflect.Type, capacity int) podColumn {
	buf := reflect.New(reflect.ArrayOf(capacity, elem)).Elem()
	return podColumn{
		buffer:   buf,
		base:     buf.Addr().UnsafePointer(),
		itemSize: elem.Size(),
	}
}

func (c *podColumn) at(row int) unsafe.Pointer {
	return unsafe.Add(c.base, uintptr(row)*c.itemSize)
}

func copyBytes(dst, src unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	dstSlice := unsafe.Slice((*byte)(dst), size)
	srcSlice := unsafe.Slice((*byte)(src), size)
	copy(dstSlice, srcSlice)
}

func zeroBytes(dst unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	slice := unsafe.Slice((*byte)(dst), size)
	for i := range slice {
		slice[i] = 0
	}
}

// Table is the mutable row container for every entity sharing one
// Archetype: a column of entity handles plus one typed column per
// non-tag component. Managed columns are ordinary Go slices so the
// garbage collector keeps tracing them; POD columns are raw reflect
// buffers addressed with unsafe.Pointer, grounded in
// delaneyj-arche/ecs/storage.go's Storage and ecs/archetype.go's
// buffers/layouts split.
type Table struct {
	archetype *Archetype
	owner     *Registry

	capacity int
	size     int
	version  uint64

	entities []Entity
	managed  []reflect.Value // one addressable []T slice per managed column
	pod      []podColumn     // one buffer per POD column
}

// NewTable allocates a table of the given fixed capacity for archetype.
// owner may be nil for a table not gated by any registry's sync point.
func NewTable(archetype *Archetype, capacity int, owner *Registry) *Table {
	t := &Table{
		archetype: archetype,
		owner:     owner,
		capacity:  capacity,
		entities:  make([]Entity, capacity),
	}

	managed := make([]reflect.Value, 0, archetype.ManagedCount())
	pod := make([]podColumn, 0, archetype.PodCount())
	for _, ct := range archetype.Types() {
		switch ct.category {
		case Managed:
			managed = append(managed, reflect.MakeSlice(reflect.SliceOf(ct.typ), capacity, capacity))
		case POD:
			pod = append(pod, newPodColumn(ct.typ, capacity))
		}
	}
	t.managed = managed
	t.pod = pod
	return t
}

// Archetype returns the table's fixed archetype.
func (t *Table) Archetype() *Archetype { return t.archetype }

// Capacity returns the table's fixed row capacity.
func (t *Table) Capacity() int { return t.capacity }

// Size returns the number of live rows.
func (t *Table) Size() int { return t.size }

// Version returns the table's structural mutation counter.
func (t *Table) Version() uint64 { return atomic.LoadUint64(&t.version) }

// IsFull reports whether size == capacity.
func (t *Table) IsFull() bool { return t.size == t.capacity }

// IsEmpty reports whether size == 0.
func (t *Table) IsEmpty() bool { return t.size == 0 }

// Owner returns the registry this table is gated by, or nil.
func (t *Table) Owner() *Registry { return t.owner }

// Entities returns a read-only view of the first Size() entity handles.
func (t *Table) Entities() []Entity { return t.entities[:t.size] }

func (t *Table) checkMutable() error {
	if t.owner != nil && !t.owner.inSyncPoint() {
		return StructureLockedError{}
	}
	return nil
}

func (t *Table) bumpVersion() {
	atomic.AddUint64(&t.version, 1)
}

// Append adds entity to the end of the table. POD slots at the new row
// are zero-initialised (a reused slot may carry bytes from a prior
// swap-delete); managed slots are left as-is since they were already
// cleared when their row was last vacated.
func (t *Table) Append(entity Entity) (int, error) {
	if err := t.checkMutable(); err != nil {
		return 0, err
	}
	if t.size == t.capacity {
		return 0, FullError{}
	}
	row := t.size
	t.entities[row] = entity
	for i := range t.pod {
		zeroBytes(t.pod[i].at(row), t.pod[i].itemSize)
	}
	t.size++
	t.bumpVersion()
	return row, nil
}

// AppendFrom appends entity and copies one row's worth of component
// values from src[srcRow] into the new row, matching columns by
// ComponentType id via a merge-walk of the two archetypes' sorted type
// lists. Destination POD columns with no source match are zero-filled;
// destination Managed columns with no source match are left cleared.
func (t *Table) AppendFrom(entity Entity, src *Table, srcRow int) (int, error) {
	if err := t.checkMutable(); err != nil {
		return 0, err
	}
	if srcRow < 0 || srcRow >= src.size {
		return 0, OutOfBoundsError{Row: srcRow, Size: src.size}
	}
	if t.size == t.capacity {
		return 0, FullError{}
	}

	row := t.size
	t.entities[row] = entity

	dstTypes, srcTypes := t.archetype.types, src.archetype.types
	dstManagedTypes := dstTypes[:t.archetype.managedCount]
	srcManagedTypes := srcTypes[:src.archetype.managedCount]
	dstPodTypes := dstTypes[t.archetype.managedCount : t.archetype.managedCount+t.archetype.podCount]
	srcPodTypes := srcTypes[src.archetype.managedCount : src.archetype.managedCount+src.archetype.podCount]

	si := 0
	for di, dct := range dstManagedTypes {
		for si < len(srcManagedTypes) && srcManagedTypes[si].id < dct.id {
			si++
		}
		if si < len(srcManagedTypes) && srcManagedTypes[si].id == dct.id {
			t.managed[di].Index(row).Set(src.managed[si].Index(srcRow))
			si++
		}
	}

	si = 0
	for di, dct := range dstPodTypes {
		for si < len(srcPodTypes) && srcPodTypes[si].id < dct.id {
			si++
		}
		if si < len(srcPodTypes) && srcPodTypes[si].id == dct.id {
			copyBytes(t.pod[di].at(row), src.pod[si].at(srcRow), t.pod[di].itemSize)
			si++
		} else {
			zeroBytes(t.pod[di].at(row), t.pod[di].itemSize)
		}
	}

	t.size++
	t.bumpVersion()
	return row, nil
}

// SwapDelete removes row by moving the last live row into its place.
// Reports the entity that was moved (if any) so the registry can patch
// that entity's entry to its new row.
func (t *Table) SwapDelete(row int) (moved Entity, didMove bool, err error) {
	if err = t.checkMutable(); err != nil {
		return Entity{}, false, err
	}
	if row < 0 || row >= t.size {
		return Entity{}, false, OutOfBoundsError{Row: row, Size: t.size}
	}

	last := t.size - 1
	if row < last {
		moved = t.entities[last]
		didMove = true
		t.entities[row] = moved
		for i := range t.managed {
			t.managed[i].Index(row).Set(t.managed[i].Index(last))
		}
		for i := range t.pod {
			copyBytes(t.pod[i].at(row), t.pod[i].at(last), t.pod[i].itemSize)
		}
	}

	for i := range t.managed {
		t.managed[i].Index(last).SetZero()
	}

	t.size--
	t.bumpVersion()
	return moved, didMove, nil
}

// Clear empties the table, dropping references held by Managed columns.
func (t *Table) Clear() error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	for i := range t.managed {
		col := t.managed[i]
		for r := 0; r < t.size; r++ {
			col.Index(r).SetZero()
		}
	}
	t.size = 0
	t.bumpVersion()
	return nil
}

// Column returns a view of length Size() over the column storing T.
// Fails with ColumnNotFoundError if T is absent from the table's
// archetype or is a Tag (which carries no column).
func Column[T any](t *Table) ([]T, error) {
	ct := TypeOf[T]()
	slot := t.archetype.columnIndex(ct)
	if slot < 0 || ct.category == Tag {
		return nil, ColumnNotFoundError{Type: ct}
	}

	if ct.category == Managed {
		slice, ok := t.managed[slot].Interface().([]T)
		if !ok {
			return nil, ColumnNotFoundError{Type: ct}
		}
		return slice[:t.size], nil
	}

	podSlot := int(slot) - t.archetype.ManagedCount()
	col := &t.pod[podSlot]
	return unsafe.Slice((*T)(col.base), t.capacity)[:t.size], nil
}
