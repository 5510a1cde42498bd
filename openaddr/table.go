// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ OPEN-ADDRESSING INDEX
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Growable Linear-Probing Hash Index
//
// Description:
//   Single flat slot array keyed by 64-bit integers. Collisions walk forward one slot at a time;
//   once more than half the slots are filled the whole table is rehashed into a doubled array.
//
// Design Principles:
//   - Home slot is Mix64(key) mod capacity; capacity need not be a power of 2
//   - Probe sequence is addr+1 wrapped by the modulus
//   - Growth builds the doubled array in full before the live one is replaced
//   - No deletion: the tombstone state exists in the slot layout but is never produced
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package openaddr

import (
	"errors"
	"fmt"
	"io"
	"math"

	"hashidx/constants"
	"hashidx/debug"
	"hashidx/types"
	"hashidx/utils"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// TYPE DEFINITIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// ErrCapacityOverflow is the panic value raised when doubling would overflow int.
var ErrCapacityOverflow = errors.New("openaddr: capacity overflow")

type slotState uint8

const (
	slotFree slotState = iota
	slotOccupied
	slotTombstone // reserved for deletion; never written
)

// entry is one slot of the probe array.
type entry struct {
	key   uint64
	value uint64
	state slotState
}

// Table is an open-addressing index with linear probing and full-table doubling.
//
// INVARIANT:
//
//	For every occupied key, probing from Mix64(key) mod capacity reaches its slot
//	before any free slot. Growth preserves this by re-probing every entry.
type Table struct {
	slots   []entry
	filled  int
	growths int
}

var (
	_ types.Index   = (*Table)(nil)
	_ types.Dumper  = (*Table)(nil)
	_ types.Checker = (*Table)(nil)
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONSTRUCTOR
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// New allocates a table with the caller-chosen slot count. Values below 1 are clamped to 1.
func New(capacity int) *Table {
	if capacity < 1 {
		capacity = 1
	}
	return &Table{slots: make([]entry, capacity)}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PROBING
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// home returns the first slot examined for key in an array of n slots.
//
//go:nosplit
//go:inline
func home(key uint64, n uint64) uint64 {
	return utils.Mix64(key) % n
}

// probe advances to the next candidate slot. Callers wrap by the modulus.
//
//go:nosplit
//go:inline
func probe(addr uint64) uint64 {
	return addr + 1
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CORE OPERATIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Insert stores value under key. An existing key is overwritten in place; a new key
// takes the first free slot on its probe path. Crossing the load threshold doubles
// the table before Insert returns.
func (t *Table) Insert(key, value uint64) {
	n := uint64(len(t.slots))
	i := home(key, n)

	for {
		s := &t.slots[i]
		if s.state == slotFree {
			*s = entry{key: key, value: value, state: slotOccupied}
			t.filled++
			break
		}
		if s.state == slotOccupied && s.key == key {
			s.value = value
			return
		}
		i = probe(i) % n
	}

	if float64(t.filled)/float64(n) > constants.OpenAddrMaxLoad {
		t.grow()
	}
}

// Lookup walks the probe path from key's home slot and stops at the first free slot.
func (t *Table) Lookup(key uint64) (uint64, bool) {
	n := uint64(len(t.slots))
	i := home(key, n)

	for steps := uint64(0); steps < n; steps++ {
		s := &t.slots[i]
		switch s.state {
		case slotFree:
			return 0, false
		case slotOccupied:
			if s.key == key {
				return s.value, true
			}
		}
		i = probe(i) % n
	}
	return 0, false
}

// Len reports the number of occupied slots.
func (t *Table) Len() int { return t.filled }

// Capacity reports the current slot count.
func (t *Table) Capacity() int { return len(t.slots) }

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// GROWTH
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// grow rehashes every occupied entry, in increasing slot order, into an array of twice
// the capacity. The live array is untouched until the new one is complete.
func (t *Table) grow() {
	old := len(t.slots)
	if old > math.MaxInt/2 {
		panic(ErrCapacityOverflow)
	}
	next := make([]entry, old*2)
	n := uint64(len(next))

	for i := range t.slots {
		e := t.slots[i]
		if e.state != slotOccupied {
			continue
		}
		j := home(e.key, n)
		for next[j].state != slotFree {
			j = probe(j) % n
		}
		next[j] = e
	}

	t.slots = next
	t.growths++

	if debug.Tracing() {
		debug.DropTrace("OPENADDR", "rehash "+utils.Itoa(old)+" → "+utils.Itoa(len(next))+" slots, "+utils.Itoa(t.filled)+" entries")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// DIAGNOSTICS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// displacement is how many probe steps separate slot i from key's home slot.
func (t *Table) displacement(key uint64, i int) int {
	n := uint64(len(t.slots))
	h := home(key, n)
	return int((uint64(i) + n - h) % n)
}

// Stats summarises the table; Longest is the largest probe displacement.
func (t *Table) Stats() types.Stats {
	longest := 0
	for i := range t.slots {
		if t.slots[i].state != slotOccupied {
			continue
		}
		if d := t.displacement(t.slots[i].key, i) + 1; d > longest {
			longest = d
		}
	}
	return types.Stats{
		Strategy: "openaddr",
		Entries:  t.filled,
		Slots:    len(t.slots),
		Growths:  t.growths,
		Longest:  longest,
	}
}

// Dump lists every occupied slot as "slot - key - value".
func (t *Table) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "openaddr capacity=%d filled=%d\n", len(t.slots), t.filled); err != nil {
		return err
	}
	for i := range t.slots {
		e := &t.slots[i]
		if e.state != slotOccupied {
			continue
		}
		if _, err := fmt.Fprintf(w, "%d - %d - %d\n", i, e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

// CheckInvariants verifies every occupied key is reachable from its home slot without
// crossing a free slot, that keys are unique and that the fill count and load bound hold.
func (t *Table) CheckInvariants() error {
	n := len(t.slots)
	occupied := 0
	seen := make(map[uint64]int, t.filled)

	for i := range t.slots {
		e := &t.slots[i]
		if e.state != slotOccupied {
			continue
		}
		occupied++
		if prev, dup := seen[e.key]; dup {
			return fmt.Errorf("key %d stored twice (slots %d and %d)", e.key, prev, i)
		}
		seen[e.key] = i

		j := int(home(e.key, uint64(n)))
		for j != i {
			if t.slots[j].state == slotFree {
				return fmt.Errorf("key %d at slot %d unreachable: free slot %d on probe path", e.key, i, j)
			}
			j = int(probe(uint64(j)) % uint64(n))
		}
	}

	if occupied != t.filled {
		return fmt.Errorf("filled=%d but %d slots occupied", t.filled, occupied)
	}
	if float64(t.filled)/float64(n) > constants.OpenAddrMaxLoad {
		return fmt.Errorf("load %d/%d above %.2f", t.filled, n, constants.OpenAddrMaxLoad)
	}
	return nil
}
