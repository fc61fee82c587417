package archstore

import (
	"fmt"
	"reflect"
	"sync"
)

// ComponentCategory classifies a ComponentType by its storage shape.
// Ordering between categories (Managed < POD < Tag) is load-bearing:
// Archetype.types is sorted by (category, id) and Table lays its
// columns out in that same order.
type ComponentCategory uint8

const (
	// Managed components hold references the garbage collector must trace.
	Managed ComponentCategory = iota
	// POD components hold no references and have non-zero size.
	POD
	// Tag components are zero-size markers; they contribute to an
	// archetype's identity but never get a column.
	Tag
)

func (c ComponentCategory) String() string {
	switch c {
	case Managed:
		return "Managed"
	case POD:
		return "POD"
	case Tag:
		return "Tag"
	default:
		return "Unknown"
	}
}

// ComponentType is the dense, process-lifetime identity of a component
// kind. Ids are allocated once per Go type, in allocation order, and
// are stable for the life of the process.
type ComponentType struct {
	id       uint32
	size     uint32
	category ComponentCategory
	typ      reflect.Type
	nameIdx  int
}

// ID returns the dense allocation-order id of the component type.
func (c ComponentType) ID() uint32 { return c.id }

// SizeBytes returns the row footprint of one value of this type.
// Always zero for Tag components.
func (c ComponentType) SizeBytes() uint32 { return c.size }

// Category returns the storage classification of the component type.
func (c ComponentType) Category() ComponentCategory { return c.category }

// ReflectType returns the underlying Go type this ComponentType was
// derived from.
func (c ComponentType) ReflectType() reflect.Type { return c.typ }

// IsZero reports whether c is the zero ComponentType value — never a
// result of TypeOf, used to detect a "null" component type argument.
func (c ComponentType) IsZero() bool { return c.typ == nil }

// Name returns a short diagnostic name for the component type, read
// back from the package's name cache by the index TypeOf interned it
// at. Purely cosmetic: never used for equality or hashing.
func (c ComponentType) Name() string {
	if c.typ == nil {
		return "<nil>"
	}
	if c.nameIdx >= 0 {
		if name := componentNames.GetItem(c.nameIdx); name != nil && *name != "" {
			return *name
		}
	}
	return c.typ.Name()
}

func (c ComponentType) String() string {
	return fmt.Sprintf("%s(%s,%dB)", c.Name(), c.category, c.size)
}

var (
	componentRegistryMu  sync.Mutex
	componentTypeCounter uint32
	componentTypeByGo    = map[reflect.Type]ComponentType{}
	componentNames       = &SimpleCache[string]{itemIndices: map[string]int{}, maxCapacity: 1 << 20}
)

// TypeOf returns the ComponentType for T, allocating a new dense id the
// first time T is seen and returning the cached one on every later
// call. Safe for concurrent use.
func TypeOf[T any]() ComponentType {
	var zero T
	rt := reflect.TypeOf(&zero).Elem()

	componentRegistryMu.Lock()
	defer componentRegistryMu.Unlock()

	if ct, ok := componentTypeByGo[rt]; ok {
		return ct
	}

	if componentTypeCounter >= 1<<31 {
		panic(fmt.Sprintf("archstore: component type id allocation overflow at %s", rt))
	}

	nameIdx, err := componentNames.Register(rt.String(), rt.Name())
	if err != nil {
		nameIdx = -1
	}

	ct := ComponentType{
		id:       componentTypeCounter,
		size:     uint32(rt.Size()),
		category: classify(rt),
		typ:      rt,
		nameIdx:  nameIdx,
	}
	if ct.category == Tag {
		ct.size = 0
	}
	componentTypeCounter++
	componentTypeByGo[rt] = ct
	return ct
}

// classify derives a ComponentCategory from a Go type's layout: Tag if
// it carries no instance fields and is zero or one byte wide, Managed
// if it transitively contains anything the garbage collector must
// trace, POD otherwise.
func classify(rt reflect.Type) ComponentCategory {
	if rt.Size() <= 1 && !containsPointers(rt) && numInstanceFields(rt) == 0 {
		return Tag
	}
	if containsPointers(rt) {
		return Managed
	}
	return POD
}

func numInstanceFields(rt reflect.Type) int {
	if rt.Kind() != reflect.Struct {
		return 1
	}
	return rt.NumField()
}

// containsPointers reports whether rt transitively holds anything the
// garbage collector must trace: pointers, interfaces, maps, channels,
// functions, slices, strings, or a struct/array built from those.
func containsPointers(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Slice, reflect.String, reflect.UnsafePointer:
		return true
	case reflect.Array:
		return rt.Len() > 0 && containsPointers(rt.Elem())
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			if containsPointers(rt.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
