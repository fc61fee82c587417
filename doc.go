/*
Package archstore implements an archetype-based Entity-Component-System
data store.

Entities that carry the exact same set of component types are grouped
into an Archetype and laid out as parallel columns in a Table, so bulk
iteration over a Query walks contiguous, cache-friendly memory instead
of chasing pointers per entity.

Core Concepts:

  - ComponentType: the dense, process-lifetime identity of a component kind.
  - Archetype: the canonical, immutable descriptor of a set of ComponentTypes.
  - Table: a columnar row container for every entity sharing one Archetype.
  - Registry: owns the archetype lookup and the entity directory, and
    serialises structural mutation (create/destroy/add/remove/move).
  - Query: a cached, predicate-filtered iterator over a Registry's tables.

Basic Usage:

	registry := archstore.Factory.NewRegistry()

	position := archstore.FactoryNewComponentType[Position]()
	velocity := archstore.FactoryNewComponentType[Velocity]()

	entity, _ := registry.CreateEntity(position, velocity)
	archstore.SetComponent(registry, entity, Position{X: 1, Y: 2})
	archstore.SetComponent(registry, entity, Velocity{X: 3, Y: 4})

	predicate := archstore.Factory.NewPredicateBuilder().
		Require(position, velocity).
		Build()
	query := registry.CreateQuery(predicate)

	cursor := query.NewCursor()
	for cursor.Next() {
		pos, _ := archstore.Column[Position](cursor.Table())
		vel, _ := archstore.Column[Velocity](cursor.Table())
		pos[cursor.Row()].X += vel[cursor.Row()].X
		pos[cursor.Row()].Y += vel[cursor.Row()].Y
	}
*/
package archstore
