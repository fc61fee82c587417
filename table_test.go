package archstore

import "testing"

type tablePos struct{ X, Y float64 }
type tableVel struct{ X, Y float64 }
type tableName struct{ Name string }
type tableTag struct{}

func TestTableAppendAndColumn(t *testing.T) {
	pos := TypeOf[tablePos]()
	arche, _ := NewArchetype(pos)
	tbl := NewTable(arche, 4, nil)

	e := Entity{ID: 1, Version: 1}
	row, err := tbl.Append(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row != 0 || tbl.Size() != 1 {
		t.Fatalf("expected row 0 size 1, got row=%d size=%d", row, tbl.Size())
	}
	if tbl.Entities()[row] != e {
		t.Fatalf("expected entity at row to be %v", e)
	}

	col, err := Column[tablePos](tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	col[row] = tablePos{X: 1, Y: 2}
	col2, _ := Column[tablePos](tbl)
	if col2[row] != (tablePos{X: 1, Y: 2}) {
		t.Fatalf("expected write through column to be visible, got %v", col2[row])
	}
}

func TestTableAppendFullError(t *testing.T) {
	arche, _ := NewArchetype(TypeOf[tablePos]())
	tbl := NewTable(arche, 1, nil)
	if _, err := tbl.Append(Entity{ID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := tbl.Append(Entity{ID: 2})
	if _, ok := err.(FullError); !ok {
		t.Fatalf("expected FullError, got %v", err)
	}
}

func TestTableColumnNotFound(t *testing.T) {
	arche, _ := NewArchetype(TypeOf[tablePos]())
	tbl := NewTable(arche, 2, nil)
	if _, err := Column[tableVel](tbl); err == nil {
		t.Fatalf("expected ColumnNotFoundError for absent component")
	}
	if _, err := Column[tableTag](tbl); err == nil {
		t.Fatalf("expected ColumnNotFoundError for tag component")
	}
}

func TestTableSwapDeleteMovesLastRow(t *testing.T) {
	arche, _ := NewArchetype(TypeOf[tablePos]())
	tbl := NewTable(arche, 4, nil)

	e1 := Entity{ID: 1}
	e2 := Entity{ID: 2}
	e3 := Entity{ID: 3}
	tbl.Append(e1)
	tbl.Append(e2)
	tbl.Append(e3)

	moved, didMove, err := tbl.SwapDelete(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !didMove || moved != e3 {
		t.Fatalf("expected e3 to move into row 0, got %v (didMove=%v)", moved, didMove)
	}
	if tbl.Size() != 2 {
		t.Fatalf("expected size 2, got %d", tbl.Size())
	}
	if tbl.Entities()[0] != e3 {
		t.Fatalf("expected row 0 to now hold e3, got %v", tbl.Entities()[0])
	}
}

func TestTableSwapDeleteLastRowNoMove(t *testing.T) {
	arche, _ := NewArchetype(TypeOf[tablePos]())
	tbl := NewTable(arche, 4, nil)
	e1 := Entity{ID: 1}
	tbl.Append(e1)

	_, didMove, err := tbl.SwapDelete(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if didMove {
		t.Fatalf("did not expect a move when deleting the only row")
	}
	if tbl.Size() != 0 {
		t.Fatalf("expected size 0, got %d", tbl.Size())
	}
}

func TestTableSwapDeleteOutOfBounds(t *testing.T) {
	arche, _ := NewArchetype(TypeOf[tablePos]())
	tbl := NewTable(arche, 2, nil)
	if _, _, err := tbl.SwapDelete(0); err == nil {
		t.Fatalf("expected OutOfBoundsError on empty table")
	}
}

func TestTableAppendFromMergesMatchingColumns(t *testing.T) {
	pos := TypeOf[tablePos]()
	vel := TypeOf[tableVel]()
	name := TypeOf[tableName]()

	srcArche, _ := NewArchetype(pos, name)
	dstArche, _ := NewArchetype(pos, vel, name)

	src := NewTable(srcArche, 2, nil)
	dst := NewTable(dstArche, 2, nil)

	e := Entity{ID: 42}
	src.Append(e)
	posCol, _ := Column[tablePos](src)
	posCol[0] = tablePos{X: 5, Y: 6}
	nameCol, _ := Column[tableName](src)
	nameCol[0] = tableName{Name: "hero"}

	row, err := dst.AppendFrom(e, src, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dstPos, _ := Column[tablePos](dst)
	if dstPos[row] != (tablePos{X: 5, Y: 6}) {
		t.Fatalf("expected matched POD column copied, got %v", dstPos[row])
	}
	dstName, _ := Column[tableName](dst)
	if dstName[row] != (tableName{Name: "hero"}) {
		t.Fatalf("expected matched Managed column copied, got %v", dstName[row])
	}
	dstVel, _ := Column[tableVel](dst)
	if dstVel[row] != (tableVel{}) {
		t.Fatalf("expected unmatched POD column zero-filled, got %v", dstVel[row])
	}
}

func TestTableAppendFromOutOfBounds(t *testing.T) {
	arche, _ := NewArchetype(TypeOf[tablePos]())
	src := NewTable(arche, 2, nil)
	dst := NewTable(arche, 2, nil)
	if _, err := dst.AppendFrom(Entity{ID: 1}, src, 0); err == nil {
		t.Fatalf("expected OutOfBoundsError for empty source table")
	}
}

func TestTableClearDropsManagedReferences(t *testing.T) {
	arche, _ := NewArchetype(TypeOf[tableName]())
	tbl := NewTable(arche, 2, nil)
	tbl.Append(Entity{ID: 1})
	col, _ := Column[tableName](tbl)
	col[0] = tableName{Name: "x"}

	if err := tbl.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Size() != 0 {
		t.Fatalf("expected size 0 after clear")
	}
	if col[0] != (tableName{}) {
		t.Fatalf("expected managed slot cleared after clear, got %v", col[0])
	}
}

func TestTableStructureLockedWhenOwnerNotInSyncPoint(t *testing.T) {
	registry := NewRegistry()
	arche, _ := NewArchetype(TypeOf[tablePos]())
	tbl := NewTable(arche, 2, registry)

	if _, err := tbl.Append(Entity{ID: 1}); err == nil {
		t.Fatalf("expected StructureLockedError outside the registry's sync point")
	}
}

func TestTableVersionIncreasesOnMutation(t *testing.T) {
	arche, _ := NewArchetype(TypeOf[tablePos]())
	tbl := NewTable(arche, 4, nil)
	before := tbl.Version()
	tbl.Append(Entity{ID: 1})
	if tbl.Version() <= before {
		t.Fatalf("expected version to strictly increase after append")
	}
}
