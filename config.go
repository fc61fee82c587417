package archstore

// DefaultTargetTableBytes is the default per-table byte budget a
// Registry uses to size a freshly allocated table: capacity is
// TargetTableBytes / archetype.RowSizeBytes(), floored at 1 row.
const DefaultTargetTableBytes = 16384

// Config holds process-global configuration for the registry.
var Config config = config{targetTableBytes: DefaultTargetTableBytes}

type config struct {
	targetTableBytes uint32
	events           StructuralEvents
}

// StructuralEvents are hooks a collaborator (a logging or metrics
// layer, say) can register to observe structural changes across every
// Registry in the process. Callbacks run synchronously on the
// goroutine performing the mutation, inside its sync point.
type StructuralEvents struct {
	OnTableCreated     func(*Table)
	OnArchetypeCreated func(*Archetype)
	OnEntityDestroyed  func(Entity)
}

// SetStructuralEvents configures the structural event callbacks.
func (c *config) SetStructuralEvents(events StructuralEvents) {
	c.events = events
}

// SetTargetTableBytes overrides the per-table byte budget used when a
// group needs a new table.
func (c *config) SetTargetTableBytes(bytes uint32) {
	c.targetTableBytes = bytes
}
