package archstore

import "fmt"

// InvalidComponentTypeError is returned when an Archetype is built from
// a ComponentType that is null or whose category is not one of
// Managed, POD, or Tag.
type InvalidComponentTypeError struct {
	Type ComponentType
}

func (e InvalidComponentTypeError) Error() string {
	return fmt.Sprintf("invalid component type: %v", e.Type)
}

// ColumnNotFoundError is returned by Column[T] when T is absent from
// the table's archetype, or is a Tag component (which carries no column).
type ColumnNotFoundError struct {
	Type ComponentType
}

func (e ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found for component: %v", e.Type)
}

// FullError is returned when an append targets a table whose size
// already equals its capacity.
type FullError struct{}

func (e FullError) Error() string {
	return "table is full"
}

// OutOfBoundsError is returned when a row index is not within [0, size).
type OutOfBoundsError struct {
	Row, Size int
}

func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf("row %d out of bounds (size %d)", e.Row, e.Size)
}

// StructureLockedError is returned when a structural mutation is
// attempted on an owned table outside its registry's sync point.
type StructureLockedError struct{}

func (e StructureLockedError) Error() string {
	return "structural mutation attempted outside the owning registry's sync point"
}

// ArchetypeMismatchError is returned when an item's archetype disagrees
// with the archetype of the group or table it is being inserted into.
type ArchetypeMismatchError struct {
	Expected, Got *Archetype
}

func (e ArchetypeMismatchError) Error() string {
	return fmt.Sprintf("archetype mismatch: expected %v, got %v", e.Expected, e.Got)
}

// TableNotOwnedError is returned when a table belonging to a different
// registry is passed to an operation expecting one of this registry's
// own tables.
type TableNotOwnedError struct{}

func (e TableNotOwnedError) Error() string {
	return "table is not owned by this registry"
}

// EntityNotFoundError is returned for a stale or unknown entity handle.
type EntityNotFoundError struct {
	Entity Entity
}

func (e EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity not found: %v", e.Entity)
}

// DuplicateKeyError is returned by ArchetypeLookup.Add when the
// archetype's bitset is already present.
type DuplicateKeyError struct {
	Bitset Bitset
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("archetype already present for bitset %v", []uint32(e.Bitset))
}

// NullArgumentError is returned when an operation is given a disallowed
// nil argument.
type NullArgumentError struct {
	Argument string
}

func (e NullArgumentError) Error() string {
	return fmt.Sprintf("nil argument: %s", e.Argument)
}
