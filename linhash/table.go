// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ LINEAR-HASHING INDEX
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Incrementally Split Chained Hash Index
//
// Description:
//   An array of 2M chain heads. Chains below the split cursor are addressed mod 2M, the rest
//   mod M. Every insert that leaves the table at or above the split factor migrates exactly
//   one chain, the one under the cursor; when the cursor reaches M the array doubles and the
//   cursor wraps. No insert ever rehashes more than one chain.
//
// Memory Layout:
//   - Chains are singly linked through a node arena addressed by handle; handle 0 is nil
//   - Prepend and detach-whole-chain are O(1) and never allocate per node
//   - Nodes are relinked, never copied, during a split
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package linhash

import (
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

// handle indexes the node arena.
type handle uint64

// nilIdx terminates a chain. Arena slot 0 is reserved so the zero value is nil.
const nilIdx handle = 0

// node is one chain link.
type node struct {
	key   uint64
	value uint64
	next  handle
}

// Table is a linear-hashing index.
//
// INVARIANT:
//
//	len(heads) == 2M and 0 ≤ nextSplit < M. A key lives in chain Mix64(key) mod M when
//	that index is ≥ nextSplit, otherwise in chain Mix64(key) mod 2M.
type Table struct {
	heads     []handle
	nodes     []node
	m         uint64
	nextSplit uint64
	filled    int
	growths   int
	splits    int
}

var (
	_ types.Index   = (*Table)(nil)
	_ types.Dumper  = (*Table)(nil)
	_ types.Checker = (*Table)(nil)
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONSTRUCTORS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// New returns a table with M = 2 and four empty chains.
func New() *Table {
	return NewWithModulus(constants.LinearInitialModulus)
}

// NewWithModulus returns a table whose base modulus is m rounded up to a power of two ≥ 2.
func NewWithModulus(m int) *Table {
	if m < 2 {
		m = 2
	}
	mod := utils.NextPow2(uint64(m))
	return &Table{
		heads: make([]handle, 2*mod),
		nodes: make([]node, 1, 2*mod), // slot 0 is nilIdx
		m:     mod,
	}
}

// addr applies the split-aware addressing rule to a mixed hash.
//
//go:nosplit
//go:inline
func (t *Table) addr(h uint64) uint64 {
	a := h & (t.m - 1)
	if a < t.nextSplit {
		a = h & (2*t.m - 1)
	}
	return a
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CORE OPERATIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Insert stores value under key. A present key is overwritten in place; a new key is
// prepended to its chain and may trigger one incremental split.
func (t *Table) Insert(key, value uint64) {
	a := t.addr(utils.Mix64(key))

	for n := t.heads[a]; n != nilIdx; n = t.nodes[n].next {
		if t.nodes[n].key == key {
			t.nodes[n].value = value
			return
		}
	}

	t.nodes = append(t.nodes, node{key: key, value: value, next: t.heads[a]})
	t.heads[a] = handle(len(t.nodes) - 1)
	t.filled++

	if float64(t.filled)/float64(len(t.heads)) >= constants.LinearSplitFactor {
		t.split()
	}
}

// Lookup walks the addressed chain from its head.
func (t *Table) Lookup(key uint64) (uint64, bool) {
	for n := t.heads[t.addr(utils.Mix64(key))]; n != nilIdx; n = t.nodes[n].next {
		if t.nodes[n].key == key {
			return t.nodes[n].value, true
		}
	}
	return 0, false
}

// Len reports the number of stored keys.
func (t *Table) Len() int { return t.filled }

// M reports the current base modulus.
func (t *Table) M() int { return int(t.m) }

// NextSplit reports the split cursor.
func (t *Table) NextSplit() int { return int(t.nextSplit) }

// Chains reports the number of chain heads, always 2M.
func (t *Table) Chains() int { return len(t.heads) }

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// INCREMENTAL SPLIT
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// split detaches the chain under the cursor and relinks each node into chain
// Mix64(key) mod 2M, which is either the cursor itself or cursor+M. The cursor then
// advances; on reaching M the head array doubles and the cursor wraps to 0.
func (t *Table) split() {
	at := t.nextSplit
	head := t.heads[at]
	t.heads[at] = nilIdx

	mask := 2*t.m - 1
	for head != nilIdx {
		n := &t.nodes[head]
		next := n.next
		a := utils.Mix64(n.key) & mask
		n.next = t.heads[a]
		t.heads[a] = head
		head = next
	}

	t.nextSplit++
	t.splits++

	if t.nextSplit == t.m {
		t.grow()
	}
}

// grow doubles the head array (new chains start empty), doubles M and resets the cursor.
func (t *Table) grow() {
	old := len(t.heads)
	next := make([]handle, old*2)
	copy(next, t.heads)

	t.heads = next
	t.m *= 2
	t.nextSplit = 0
	t.growths++

	if debug.Tracing() {
		debug.DropTrace("LINHASH", "chains "+utils.Itoa(old)+" → "+utils.Itoa(len(next))+", M "+utils.Utoa(t.m)+", "+utils.Itoa(t.filled)+" entries")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// DIAGNOSTICS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Stats summarises the chains; Longest is the longest chain.
func (t *Table) Stats() types.Stats {
	nonEmpty, longest := 0, 0
	for _, h := range t.heads {
		n := 0
		for ; h != nilIdx; h = t.nodes[h].next {
			n++
		}
		if n > 0 {
			nonEmpty++
		}
		if n > longest {
			longest = n
		}
	}
	return types.Stats{
		Strategy: "linhash",
		Entries:  t.filled,
		Slots:    len(t.heads),
		Buckets:  nonEmpty,
		Depth:    utils.Log2(t.m),
		Cursor:   int(t.nextSplit),
		Growths:  t.growths,
		Splits:   t.splits,
		Longest:  longest,
	}
}

// Dump lists every chain with its keys in chain order.
func (t *Table) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "linhash chains=%d M=%d next_split=%d entries=%d\n", len(t.heads), t.m, t.nextSplit, t.filled); err != nil {
		return err
	}
	for i, h := range t.heads {
		if _, err := fmt.Fprintf(w, "%d:", i); err != nil {
			return err
		}
		for ; h != nilIdx; h = t.nodes[h].next {
			if _, err := fmt.Fprintf(w, " %d=%d", t.nodes[h].key, t.nodes[h].value); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// CheckInvariants re-derives each stored key's chain from the current (M, nextSplit)
// pair and compares it with where the key actually sits.
func (t *Table) CheckInvariants() error {
	if t.m < 2 || t.m&(t.m-1) != 0 {
		return fmt.Errorf("M=%d is not a power of two ≥ 2", t.m)
	}
	if uint64(len(t.heads)) != 2*t.m {
		return fmt.Errorf("%d chains, want 2M=%d", len(t.heads), 2*t.m)
	}
	if t.nextSplit >= t.m {
		return fmt.Errorf("next_split=%d not below M=%d", t.nextSplit, t.m)
	}

	count := 0
	seen := make(map[uint64]struct{}, t.filled)
	for i, h := range t.heads {
		for steps := 0; h != nilIdx; h = t.nodes[h].next {
			if steps++; steps > len(t.nodes) {
				return fmt.Errorf("chain %d has a cycle", i)
			}
			k := t.nodes[h].key
			if want := t.addr(utils.Mix64(k)); want != uint64(i) {
				return fmt.Errorf("key %d in chain %d, addressing rule gives %d", k, i, want)
			}
			if _, dup := seen[k]; dup {
				return fmt.Errorf("key %d stored twice", k)
			}
			seen[k] = struct{}{}
			count++
		}
	}

	if count != t.filled {
		return fmt.Errorf("filled=%d but chains hold %d", t.filled, count)
	}
	if len(t.nodes)-1 != t.filled {
		return fmt.Errorf("arena holds %d nodes for %d entries", len(t.nodes)-1, t.filled)
	}
	return nil
}
