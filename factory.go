package archstore

// factory implements the factory pattern for archstore components,
// grounded in the teacher's factory.go.
type factory struct{}

// Factory is the global factory instance for creating archstore
// components.
var Factory factory

// NewRegistry creates a new, empty Registry.
func (f factory) NewRegistry() *Registry {
	return NewRegistry()
}

// NewPredicateBuilder creates a new, empty PredicateBuilder.
func (f factory) NewPredicateBuilder() *PredicateBuilder {
	return &PredicateBuilder{}
}

// NewCache creates a new Cache with the specified capacity.
func (f factory) NewCache(capacity int) Cache[any] {
	return FactoryNewCache[any](capacity)
}

// FactoryNewComponentType creates the process-lifetime ComponentType
// identity for T, registering it on first use.
func FactoryNewComponentType[T any]() ComponentType {
	return TypeOf[T]()
}

// FactoryNewCache creates a new Cache with the specified capacity.
func FactoryNewCache[T any](capacity int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: capacity,
	}
}
