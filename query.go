package archstore

import "sync"

// Query pairs a Predicate with a Registry, caching the list of
// matching table groups against the registry's archetype lookup
// token. The cache is rebuilt only when a new archetype has been
// interned since the last rebuild, grounded in the teacher's
// query.go tree-evaluation design but restructured around a cached
// match list instead of an Evaluate-per-archetype call on every scan.
type Query struct {
	predicate *Predicate
	registry  *Registry

	mu     sync.Mutex
	cached []*TableGroup
	token  uint64
	seeded bool
}

// groups returns the cached list of matching table groups, rebuilding
// it first if the registry's lookup has interned a group since the
// last rebuild.
func (q *Query) groups() []*TableGroup {
	q.mu.Lock()
	defer q.mu.Unlock()

	current := q.registry.Lookup().Token()
	if q.seeded && current == q.token {
		return q.cached
	}

	cached := q.cached[:0]
	for _, g := range q.registry.Lookup().Groups() {
		if q.predicate.Test(g.Key()) {
			cached = append(cached, g)
		}
	}
	q.cached = cached
	q.token = current
	q.seeded = true
	return q.cached
}

// NewCursor returns a Cursor over this query's current matches. The
// match list (and the set of tables snapshotted from each group) is
// fixed when the Cursor is first advanced, not when NewCursor is
// called.
func (q *Query) NewCursor() *Cursor {
	return &Cursor{query: q}
}

// Count returns the total number of entities currently matching the
// query, across every matching table.
func (q *Query) Count() int {
	total := 0
	for _, g := range q.groups() {
		for _, t := range g.Tables() {
			total += t.Size()
		}
	}
	return total
}
