// Package openaddr correctness tests: constructor clamping, probe wraparound,
// overwrite semantics, growth transparency and the reachability invariant.
package openaddr

import (
	"bytes"
	"math/bits"
	"math/rand"
	"strings"
	"testing"

	"hashidx/utils"
)

// -----------------------------------------------------------------------------
// ░░ Constructor ░░
// -----------------------------------------------------------------------------

func TestNewTable(t *testing.T) {
	tab := New(8)
	if tab.Capacity() != 8 {
		t.Fatalf("expected 8-slot table, got %d", tab.Capacity())
	}
	if tab.Len() != 0 {
		t.Fatalf("fresh table Len = %d, want 0", tab.Len())
	}
}

func TestNewClampsCapacity(t *testing.T) {
	for _, c := range []int{0, -5} {
		tab := New(c)
		if tab.Capacity() != 1 {
			t.Fatalf("New(%d).Capacity() = %d, want 1", c, tab.Capacity())
		}
		tab.Insert(7, 70)
		if v, ok := tab.Lookup(7); !ok || v != 70 {
			t.Fatalf("Lookup(7) = %d,%v ; want 70,true", v, ok)
		}
	}
}

// -----------------------------------------------------------------------------
// ░░ Basic Insert / Lookup Semantics ░░
// -----------------------------------------------------------------------------

func TestInsertAndLookup(t *testing.T) {
	tab := New(16)
	for i := uint64(1); i <= 16; i++ {
		tab.Insert(i, i*10)
	}
	for i := uint64(1); i <= 16; i++ {
		v, ok := tab.Lookup(i)
		if !ok || v != i*10 {
			t.Fatalf("Lookup(%d) = %d,%v ; want %d,true", i, v, ok, i*10)
		}
	}
	if tab.Len() != 16 {
		t.Fatalf("Len = %d, want 16", tab.Len())
	}
}

func TestLookupMiss(t *testing.T) {
	tab := New(4)
	tab.Insert(1, 123)
	if _, ok := tab.Lookup(99); ok {
		t.Fatal("Lookup(99) should return false for missing key")
	}
	empty := New(4)
	if _, ok := empty.Lookup(0); ok {
		t.Fatal("Lookup on empty table should miss")
	}
}

func TestZeroKey(t *testing.T) {
	// Mix64(0) == 0, so key 0 always homes to slot 0.
	tab := New(4)
	tab.Insert(0, 42)
	if v, ok := tab.Lookup(0); !ok || v != 42 {
		t.Fatalf("Lookup(0) = %d,%v ; want 42,true", v, ok)
	}
	if tab.slots[0].state != slotOccupied || tab.slots[0].key != 0 {
		t.Fatal("key 0 should occupy slot 0")
	}
}

// -----------------------------------------------------------------------------
// ░░ Overwrite Behavior ░░
// -----------------------------------------------------------------------------

func TestInsertOverwrite(t *testing.T) {
	tab := New(8)
	tab.Insert(42, 100)
	tab.Insert(42, 200)
	if v, ok := tab.Lookup(42); !ok || v != 200 {
		t.Fatalf("Lookup(42) = %d,%v ; want 200,true", v, ok)
	}
	if tab.Len() != 1 {
		t.Fatalf("overwrite changed Len to %d", tab.Len())
	}
	if err := tab.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestOverwriteAfterGrowth(t *testing.T) {
	tab := New(2)
	for i := uint64(0); i < 100; i++ {
		tab.Insert(i, i)
	}
	for i := uint64(0); i < 100; i++ {
		tab.Insert(i, i+1000)
	}
	if tab.Len() != 100 {
		t.Fatalf("Len = %d, want 100", tab.Len())
	}
	for i := uint64(0); i < 100; i++ {
		if v, ok := tab.Lookup(i); !ok || v != i+1000 {
			t.Fatalf("Lookup(%d) = %d,%v ; want %d,true", i, v, ok, i+1000)
		}
	}
}

// -----------------------------------------------------------------------------
// ░░ Collision Handling & Wraparound ░░
// -----------------------------------------------------------------------------

// collidingKeys returns n keys that all home to the same slot in a table of size capacity.
func collidingKeys(target uint64, capacity uint64, n int) []uint64 {
	var out []uint64
	for k := uint64(1); len(out) < n; k++ {
		if utils.Mix64(k)%capacity == target {
			out = append(out, k)
		}
	}
	return out
}

func TestProbeWraparound(t *testing.T) {
	const capacity = 64
	tab := New(capacity)
	keys := collidingKeys(capacity-1, capacity, 3)

	for i, k := range keys {
		tab.Insert(k, uint64(i))
	}
	// Last slot, then slots 0 and 1 after wrapping.
	if tab.slots[capacity-1].key != keys[0] || tab.slots[0].key != keys[1] || tab.slots[1].key != keys[2] {
		t.Fatalf("unexpected probe placement: %d %d %d", tab.slots[capacity-1].key, tab.slots[0].key, tab.slots[1].key)
	}
	for i, k := range keys {
		if v, ok := tab.Lookup(k); !ok || v != uint64(i) {
			t.Fatalf("Lookup(%d) = %d,%v ; want %d,true", k, v, ok, i)
		}
	}
	if err := tab.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestLookupStopsAtFreeSlot(t *testing.T) {
	const capacity = 64
	tab := New(capacity)
	keys := collidingKeys(10, capacity, 3)
	tab.Insert(keys[0], 1)
	tab.Insert(keys[1], 2)
	// keys[2] shares the home slot but was never inserted.
	if _, ok := tab.Lookup(keys[2]); ok {
		t.Fatal("absent colliding key must miss at the first free slot")
	}
}

func TestTombstoneDoesNotEndProbe(t *testing.T) {
	const capacity = 64
	tab := New(capacity)
	keys := collidingKeys(5, capacity, 2)
	tab.Insert(keys[0], 1)
	tab.Insert(keys[1], 2)
	tab.slots[5].state = slotTombstone
	if v, ok := tab.Lookup(keys[1]); !ok || v != 2 {
		t.Fatalf("Lookup past tombstone = %d,%v ; want 2,true", v, ok)
	}
}

// -----------------------------------------------------------------------------
// ░░ Growth ░░
// -----------------------------------------------------------------------------

func TestGrowthThreshold(t *testing.T) {
	tab := New(4)
	tab.Insert(1, 1)
	tab.Insert(2, 2)
	if tab.Capacity() != 4 {
		t.Fatalf("2/4 is not above 0.5; capacity = %d, want 4", tab.Capacity())
	}
	tab.Insert(3, 3)
	if tab.Capacity() != 8 {
		t.Fatalf("3/4 is above 0.5; capacity = %d, want 8", tab.Capacity())
	}
	if tab.Stats().Growths != 1 {
		t.Fatalf("Growths = %d, want 1", tab.Stats().Growths)
	}
}

// Scenario: keys 0..1233 into capacity 4; every key finds itself and the final
// capacity is a power of two holding at most half load.
func TestSequentialFromCapacityFour(t *testing.T) {
	const n = 1234
	tab := New(4)
	for k := uint64(0); k < n; k++ {
		tab.Insert(k, k)
	}
	for k := uint64(0); k < n; k++ {
		if v, ok := tab.Lookup(k); !ok || v != k {
			t.Fatalf("Lookup(%d) = %d,%v ; want %d,true", k, v, ok, k)
		}
	}
	c := tab.Capacity()
	if bits.OnesCount(uint(c)) != 1 {
		t.Fatalf("capacity %d is not a power of two", c)
	}
	if c < 2*n {
		t.Fatalf("capacity %d below %d", c, 2*n)
	}
	if err := tab.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestGrowthTransparency(t *testing.T) {
	const n = 5000
	for _, capacity := range []int{1, 3, 4, 7, 1024, 100_000} {
		tab := New(capacity)
		for k := uint64(0); k < n; k++ {
			tab.Insert(k*7919, k)
		}
		for k := uint64(0); k < n; k++ {
			if v, ok := tab.Lookup(k * 7919); !ok || v != k {
				t.Fatalf("capacity %d: Lookup(%d) = %d,%v ; want %d,true", capacity, k*7919, v, ok, k)
			}
		}
		if err := tab.CheckInvariants(); err != nil {
			t.Fatalf("capacity %d: %v", capacity, err)
		}
	}
}

// -----------------------------------------------------------------------------
// ░░ Diagnostics ░░
// -----------------------------------------------------------------------------

func TestDump(t *testing.T) {
	tab := New(8)
	tab.Insert(3, 30)
	var buf bytes.Buffer
	if err := tab.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "openaddr capacity=8 filled=1\n") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, " - 3 - 30\n") {
		t.Fatalf("dump missing entry: %q", out)
	}
}

func TestCheckInvariantsDetectsBrokenProbe(t *testing.T) {
	const capacity = 64
	tab := New(capacity)
	keys := collidingKeys(20, capacity, 2)
	tab.Insert(keys[0], 1)
	tab.Insert(keys[1], 2)
	tab.slots[20] = entry{} // punch a hole before keys[1]
	tab.filled--
	if err := tab.CheckInvariants(); err == nil {
		t.Fatal("expected unreachable-key violation")
	}
}

// -----------------------------------------------------------------------------
// ░░ Randomized Stress ░░
// -----------------------------------------------------------------------------

func TestRandomStress(t *testing.T) {
	tab := New(16)
	ref := make(map[uint64]uint64)
	r := rand.New(rand.NewSource(12345))
	for i := 0; i < 20000; i++ {
		k := r.Uint64()
		ref[k] = uint64(i)
		tab.Insert(k, uint64(i))
	}
	if tab.Len() != len(ref) {
		t.Fatalf("Len = %d, want %d", tab.Len(), len(ref))
	}
	for k, want := range ref {
		if got, ok := tab.Lookup(k); !ok || got != want {
			t.Fatalf("Lookup(%d) = %d,%v ; want %d,true", k, got, ok, want)
		}
	}
	if err := tab.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}
