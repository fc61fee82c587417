package archstore

import "testing"

func TestBitsetSetClear(t *testing.T) {
	var b Bitset
	b = b.Set(3)
	b = b.Set(40)
	if !b.Test(3) || !b.Test(40) {
		t.Fatalf("expected bits 3 and 40 set, got %v", []uint32(b))
	}
	if b.Test(4) {
		t.Fatalf("bit 4 should not be set")
	}
	b = b.Clear(40)
	if b.Test(40) {
		t.Fatalf("bit 40 should be cleared")
	}
	if len(b) != 1 {
		t.Fatalf("expected trailing zero word trimmed, got len %d", len(b))
	}
}

func TestBitsetClearAllTrimsToEmpty(t *testing.T) {
	var b Bitset
	b = b.Set(0)
	b = b.Clear(0)
	if len(b) != 0 {
		t.Fatalf("expected empty bitset, got %v", []uint32(b))
	}
}

func TestBitsetRequires(t *testing.T) {
	var a, b Bitset
	a = a.Set(1).Set(33)
	b = b.Set(1).Set(33).Set(64)
	if !a.Requires(b) {
		t.Fatalf("expected a subset of b")
	}
	if b.Requires(a) {
		t.Fatalf("did not expect b subset of a")
	}
}

func TestBitsetIntersectsDisjoint(t *testing.T) {
	var a, b, c Bitset
	a = a.Set(1)
	b = b.Set(1).Set(2)
	c = c.Set(5)
	if !a.Intersects(b) {
		t.Fatalf("expected a and b to intersect")
	}
	if !a.Disjoint(c) {
		t.Fatalf("expected a and c disjoint")
	}
	if a.Intersects(c) {
		t.Fatalf("did not expect a and c to intersect")
	}
}

func TestBitsetEqual(t *testing.T) {
	var a, b Bitset
	a = a.Set(1).Set(70)
	b = b.Set(70).Set(1)
	if !a.Equal(b) {
		t.Fatalf("expected equal bitsets built in different order")
	}
	if a.Equal(b.Clear(70)) {
		t.Fatalf("did not expect equality after clearing a bit")
	}
}

func TestBitsetHashStableUnderTrailingZeroWord(t *testing.T) {
	var a Bitset
	a = a.Set(10)
	trimmed := a.Hash()

	withZero := append(a.Clone(), 0)
	if trimmed != withZero.Hash() {
		t.Fatalf("hash not stable under trailing zero word: %x vs %x", trimmed, withZero.Hash())
	}
}

func TestBitsetHashEqualForEqualSets(t *testing.T) {
	var a, b Bitset
	a = a.Set(1).Set(99)
	b = b.Set(99).Set(1)
	if a.Hash() != b.Hash() {
		t.Fatalf("expected equal hash for equal bitsets")
	}
}

func TestBitsetOutOfRangeTestIsFalse(t *testing.T) {
	var a Bitset
	a = a.Set(1)
	if a.Test(500) {
		t.Fatalf("bit far beyond stored words must read false")
	}
}
