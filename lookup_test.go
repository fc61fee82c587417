package archstore

import (
	"sync"
	"testing"
)

func TestArchetypeLookupGetCreatesOnce(t *testing.T) {
	lookup := NewArchetypeLookup()
	arche, _ := NewArchetype(TypeOf[tablePos]())

	g1 := lookup.Get(arche)
	g2 := lookup.Get(arche)
	if g1 != g2 {
		t.Fatalf("expected Get to return the same group on repeated calls")
	}
}

func TestArchetypeLookupFind(t *testing.T) {
	lookup := NewArchetypeLookup()
	arche, _ := NewArchetype(TypeOf[tablePos]())

	if _, ok := lookup.Find(arche.Bitset()); ok {
		t.Fatalf("did not expect to find an uninterned archetype")
	}
	lookup.Get(arche)
	if _, ok := lookup.Find(arche.Bitset()); !ok {
		t.Fatalf("expected to find the interned archetype")
	}
}

func TestArchetypeLookupAddDuplicateFails(t *testing.T) {
	lookup := NewArchetypeLookup()
	arche, _ := NewArchetype(TypeOf[tablePos]())

	if _, err := lookup.Add(arche); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := lookup.Add(arche); err == nil {
		t.Fatalf("expected DuplicateKeyError on second Add")
	}
}

func TestArchetypeLookupGetWithAddedAndRemoved(t *testing.T) {
	lookup := NewArchetypeLookup()
	pos := TypeOf[tablePos]()
	vel := TypeOf[tableVel]()

	base, _ := NewArchetype(pos)
	withVel, err := lookup.GetWithAdded(base, vel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !withVel.Key().Contains(vel) {
		t.Fatalf("expected resulting group's archetype to contain vel")
	}

	back, err := lookup.GetWithRemoved(withVel.Key(), vel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Key().Equal(base) {
		t.Fatalf("expected removing vel to return to the base-with-pos archetype")
	}
}

func TestArchetypeLookupTokenBumpsOnInsert(t *testing.T) {
	lookup := NewArchetypeLookup()
	before := lookup.Token()
	lookup.Get(mustArchetype(TypeOf[tablePos]()))
	if lookup.Token() == before {
		t.Fatalf("expected token to change after a new group is interned")
	}
}

func mustArchetype(types ...ComponentType) *Archetype {
	a, err := NewArchetype(types...)
	if err != nil {
		panic(err)
	}
	return a
}

func TestArchetypeLookupConcurrentGetFromTypesInternsOnce(t *testing.T) {
	lookup := NewArchetypeLookup()
	pos := TypeOf[tablePos]()
	vel := TypeOf[tableVel]()

	const goroutines = 32
	results := make([]*TableGroup, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			group, err := lookup.GetFromTypes(pos, vel)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = group
		}(i)
	}
	wg.Wait()

	first := results[0]
	for _, g := range results {
		if g != first {
			t.Fatalf("expected all concurrent GetFromTypes calls to return the same group")
		}
	}

	groups := lookup.Groups()
	matching := 0
	wantArche, _ := NewArchetype(pos, vel)
	for _, g := range groups {
		if g.Key().Equal(wantArche) {
			matching++
		}
	}
	if matching != 1 {
		t.Fatalf("expected exactly one interned group for the archetype, found %d", matching)
	}
}
