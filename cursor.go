package archstore

import "iter"

// Cursor provides row-at-a-time iteration over a Query's matching
// tables. Grounded in the teacher's cursor.go Next/advance/Initialize/
// Reset shape: the registry's iteration lock is acquired lazily on
// first advance and released when the cursor naturally exhausts,
// deferring any structural mutation attempted mid-iteration.
type Cursor struct {
	query *Query

	tables   []*Table
	tableIdx int
	row      int

	initialized bool
}

// initialize snapshots the query's current matching tables and
// acquires the registry's iteration lock. A no-op once already
// initialized.
func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.query.registry.lockIteration()

	groups := c.query.groups()
	tables := make([]*Table, 0, len(groups))
	for _, g := range groups {
		tables = append(tables, g.Tables()...)
	}
	c.tables = tables
	c.tableIdx = 0
	c.row = -1
	c.initialized = true
}

// reset releases the registry's iteration lock (if held) and clears
// cursor state so the cursor can be reused for a fresh pass.
func (c *Cursor) reset() {
	if c.initialized {
		c.query.registry.unlockIteration()
	}
	c.tables = nil
	c.tableIdx = 0
	c.row = -1
	c.initialized = false
}

// Next advances to the next matching row and reports whether one
// exists. When it returns false the iteration lock has already been
// released; the cursor may be reused by calling Next again.
func (c *Cursor) Next() bool {
	c.initialize()
	for c.tableIdx < len(c.tables) {
		t := c.tables[c.tableIdx]
		if c.row+1 < t.Size() {
			c.row++
			return true
		}
		c.tableIdx++
		c.row = -1
	}
	c.reset()
	return false
}

// Table returns the table holding the cursor's current row.
func (c *Cursor) Table() *Table { return c.tables[c.tableIdx] }

// Row returns the cursor's current row index within Table().
func (c *Cursor) Row() int { return c.row }

// Stop releases the iteration lock early, for a caller that breaks
// out of a Next loop before it exhausts.
func (c *Cursor) Stop() {
	c.reset()
}

// Entities returns a row/table iterator equivalent to a Next loop,
// for use with a range-over-func for statement.
func (c *Cursor) Entities() iter.Seq2[int, *Table] {
	return func(yield func(int, *Table) bool) {
		c.initialize()
		for c.tableIdx < len(c.tables) {
			t := c.tables[c.tableIdx]
			for c.row+1 < t.Size() {
				c.row++
				if !yield(c.row, t) {
					c.reset()
					return
				}
			}
			c.tableIdx++
			c.row = -1
		}
		c.reset()
	}
}
