// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ EXTENDIBLE-HASHING INDEX
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Directory-Of-Buckets Hash Index
//
// Description:
//   A directory of 2^globalDepth bucket references routes the low bits of Mix64(key) to
//   fixed four-slot buckets. Several directory slots may share one bucket; a full bucket is
//   split into two successors, and the directory doubles only when the full bucket already
//   uses every routing bit.
//
// Design Principles:
//   - Bucket identity is its canonical (lowest) directory index, always < 2^localDepth
//   - Directory slot i aliases bucket b iff i ≡ b.key (mod 2^b.localDepth)
//   - Doubling duplicates the directory end to end; it never shrinks
//   - Insert retries in a loop bounded by the 64 hash bits, never by recursion
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package exthash

import (
	"errors"
	"fmt"
	"io"

	"hashidx/constants"
	"hashidx/debug"
	"hashidx/types"
	"hashidx/utils"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// TYPE DEFINITIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// ErrDirectoryOverflow is the panic value raised when the directory would exceed
// constants.MaxGlobalDepth routing bits.
var ErrDirectoryOverflow = errors.New("exthash: directory depth limit reached")

type pair struct {
	key   uint64
	value uint64
}

// bucket is a fixed-capacity leaf shared by every directory slot that aliases it.
type bucket struct {
	key        uint64 // canonical directory index
	localDepth uint32 // routing bits owned by this bucket
	size       uint32
	entries    [constants.BucketSize]pair
}

// find returns the slot holding key or -1.
//
//go:inline
func (b *bucket) find(key uint64) int {
	for i := uint32(0); i < b.size; i++ {
		if b.entries[i].key == key {
			return int(i)
		}
	}
	return -1
}

// Table is an extendible-hashing index.
type Table struct {
	dir         []*bucket
	globalDepth uint32
	count       int
	growths     int
	splits      int
}

var (
	_ types.Index   = (*Table)(nil)
	_ types.Dumper  = (*Table)(nil)
	_ types.Checker = (*Table)(nil)
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONSTRUCTORS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// New returns a table with global depth 1 and two empty buckets.
func New() *Table {
	return NewWithDepth(constants.InitialGlobalDepth)
}

// NewWithDepth pre-sizes the directory to 2^depth distinct buckets.
// Depths below 1 are raised to 1; depths above constants.MaxGlobalDepth panic.
func NewWithDepth(depth int) *Table {
	if depth < 1 {
		depth = 1
	}
	if depth > constants.MaxGlobalDepth {
		panic(ErrDirectoryOverflow)
	}
	dir := make([]*bucket, 1<<depth)
	for i := range dir {
		dir[i] = &bucket{key: uint64(i), localDepth: uint32(depth)}
	}
	return &Table{dir: dir, globalDepth: uint32(depth)}
}

// mask selects the low globalDepth bits of a mixed hash.
//
//go:inline
func (t *Table) mask() uint64 {
	return 1<<t.globalDepth - 1
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CORE OPERATIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Insert stores value under key, overwriting a present key in place.
//
// CONTROL FLOW:
//
//	Route by the low globalDepth bits. If the target bucket has room, append. Otherwise
//	split it, first doubling the directory when the bucket already owns every routing
//	bit, and route again: the key may now belong to the sibling.
func (t *Table) Insert(key, value uint64) {
	h := utils.Mix64(key)

	for {
		b := t.dir[h&t.mask()]
		if i := b.find(key); i >= 0 {
			b.entries[i].value = value
			return
		}
		if b.size < constants.BucketSize {
			b.entries[b.size] = pair{key: key, value: value}
			b.size++
			t.count++
			return
		}
		if b.localDepth == t.globalDepth {
			t.grow()
		}
		t.split(b)
	}
}

// Lookup scans the routed bucket for key.
func (t *Table) Lookup(key uint64) (uint64, bool) {
	b := t.dir[utils.Mix64(key)&t.mask()]
	for i := uint32(0); i < b.size; i++ {
		if b.entries[i].key == key {
			return b.entries[i].value, true
		}
	}
	return 0, false
}

// Len reports the number of stored keys.
func (t *Table) Len() int { return t.count }

// GlobalDepth reports the number of hash bits indexing the directory.
func (t *Table) GlobalDepth() int { return int(t.globalDepth) }

// DirLen reports the directory length, always 2^GlobalDepth.
func (t *Table) DirLen() int { return len(t.dir) }

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// GROWTH
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// grow doubles the directory: entry i is referenced again at i+len. The old slice stays
// valid until the copy is complete.
func (t *Table) grow() {
	if t.globalDepth >= constants.MaxGlobalDepth {
		panic(ErrDirectoryOverflow)
	}
	old := len(t.dir)
	next := make([]*bucket, old*2)
	copy(next, t.dir)
	copy(next[old:], t.dir)

	t.dir = next
	t.globalDepth++
	t.growths++

	if debug.Tracing() {
		debug.DropTrace("EXTHASH", "directory "+utils.Itoa(old)+" → "+utils.Itoa(len(next))+", global depth "+utils.Itoa(int(t.globalDepth)))
	}
}

// split replaces b with two buckets one routing bit deeper. Requires b.localDepth < globalDepth.
//
// ALGORITHM:
//
//	With h = b.key and stride = 2^b.localDepth, the sibling identity is h|stride.
//	Aliases of b are h + k·stride; even k keep h's low bits and go to the low
//	successor, odd k go to the sibling. The walk starts just past the sibling.
//	Entries are then re-routed through the directory with the current global mask.
func (t *Table) split(b *bucket) {
	h := b.key
	stride := uint64(1) << b.localDepth
	sibling := h | stride

	lo := &bucket{key: h, localDepth: b.localDepth + 1}
	hi := &bucket{key: sibling, localDepth: b.localDepth + 1}

	t.dir[h] = lo
	t.dir[sibling] = hi
	for i := sibling + stride; i < uint64(len(t.dir)); i += 2 * stride {
		t.dir[i] = lo
		t.dir[i+stride] = hi
	}

	mask := t.mask()
	for _, e := range b.entries[:b.size] {
		dst := t.dir[utils.Mix64(e.key)&mask]
		dst.entries[dst.size] = e
		dst.size++
	}
	t.splits++

	if debug.Tracing() {
		debug.DropTrace("EXTHASH", "split bucket "+utils.Utoa(h)+" → "+utils.Utoa(h)+"/"+utils.Utoa(sibling)+" at local depth "+utils.Itoa(int(lo.localDepth)))
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// DIAGNOSTICS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Stats summarises the directory; Longest is the fullest bucket.
func (t *Table) Stats() types.Stats {
	distinct, longest := 0, 0
	for i, b := range t.dir {
		if b.key != uint64(i) {
			continue
		}
		distinct++
		if int(b.size) > longest {
			longest = int(b.size)
		}
	}
	return types.Stats{
		Strategy: "exthash",
		Entries:  t.count,
		Slots:    len(t.dir),
		Buckets:  distinct,
		Depth:    int(t.globalDepth),
		Growths:  t.growths,
		Splits:   t.splits,
		Longest:  longest,
	}
}

// Dump lists each distinct bucket once, at its canonical directory index.
func (t *Table) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "exthash directory=%d global_depth=%d entries=%d\n", len(t.dir), t.globalDepth, t.count); err != nil {
		return err
	}
	for i, b := range t.dir {
		if b.key != uint64(i) {
			continue
		}
		if _, err := fmt.Fprintf(w, "bucket %d local_depth=%d size=%d\n", b.key, b.localDepth, b.size); err != nil {
			return err
		}
		for _, e := range b.entries[:b.size] {
			if _, err := fmt.Fprintf(w, "\t%d - %d\n", e.key, e.value); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckInvariants verifies the directory length, that every slot's low localDepth bits
// match its bucket's identity, that each bucket is aliased by exactly 2^(global-local)
// slots, and that every stored key routes to the bucket holding it.
func (t *Table) CheckInvariants() error {
	if len(t.dir) != 1<<t.globalDepth {
		return fmt.Errorf("directory length %d != 2^%d", len(t.dir), t.globalDepth)
	}

	refs := make(map[*bucket]int)
	for i, b := range t.dir {
		if b == nil {
			return fmt.Errorf("directory slot %d is nil", i)
		}
		if b.localDepth > t.globalDepth {
			return fmt.Errorf("bucket %d local depth %d > global depth %d", b.key, b.localDepth, t.globalDepth)
		}
		low := uint64(1)<<b.localDepth - 1
		if uint64(i)&low != b.key&low {
			return fmt.Errorf("slot %d routes to bucket %d at local depth %d", i, b.key, b.localDepth)
		}
		refs[b]++
	}

	count := 0
	seen := make(map[uint64]struct{}, t.count)
	for b, n := range refs {
		if want := 1 << (t.globalDepth - b.localDepth); n != want {
			return fmt.Errorf("bucket %d aliased by %d slots, want %d", b.key, n, want)
		}
		if t.dir[b.key] != b {
			return fmt.Errorf("bucket %d not installed at its canonical slot", b.key)
		}
		if b.size > constants.BucketSize {
			return fmt.Errorf("bucket %d size %d exceeds %d", b.key, b.size, constants.BucketSize)
		}
		low := uint64(1)<<b.localDepth - 1
		for _, e := range b.entries[:b.size] {
			if utils.Mix64(e.key)&low != b.key {
				return fmt.Errorf("key %d stored in bucket %d but routes to %d", e.key, b.key, utils.Mix64(e.key)&low)
			}
			if _, dup := seen[e.key]; dup {
				return fmt.Errorf("key %d stored twice", e.key)
			}
			seen[e.key] = struct{}{}
		}
		count += int(b.size)
	}

	if count != t.count {
		return fmt.Errorf("count=%d but buckets hold %d", t.count, count)
	}
	return nil
}
