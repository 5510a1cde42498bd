// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: workload.go — key/value workloads for index comparison runs
//
// Purpose:
//   - Generates deterministic key sets: sequential, shuffled and label-derived.
//   - Derives miss probes that are guaranteed absent from a workload.
//
// Notes:
//   - Label keys are the first 8 bytes of SHA3-256(label), big-endian.
//   - Values are chosen so a wrong lookup never accidentally matches.
// ─────────────────────────────────────────────────────────────────────────────

package workload

import (
	"math/rand"

	"hashidx/utils"

	"golang.org/x/crypto/sha3"
)

// Pair is one key/value insertion.
type Pair struct {
	Key   uint64
	Value uint64
}

// valueOf pairs key k with a value distinct from k so swapped fields are caught.
func valueOf(k uint64) uint64 {
	return ^k
}

// Sequential returns keys 0..n-1 in order.
func Sequential(n int) []Pair {
	if n < 0 {
		n = 0
	}
	out := make([]Pair, n)
	for i := range out {
		k := uint64(i)
		out[i] = Pair{Key: k, Value: valueOf(k)}
	}
	return out
}

// Shuffled returns keys 0..n-1 in a seed-determined order.
func Shuffled(n int, seed int64) []Pair {
	out := Sequential(n)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// KeyOf hashes an arbitrary label down to a 64-bit key.
func KeyOf(label []byte) uint64 {
	h := sha3.Sum256(label)
	return utils.LoadBE64(h[:8])
}

// Labels derives n keys from the labels prefix0..prefix{n-1}. Duplicate digests
// are dropped, so the result may be shorter than n.
func Labels(n int, prefix string) []Pair {
	if n < 0 {
		n = 0
	}
	out := make([]Pair, 0, n)
	seen := make(map[uint64]struct{}, n)
	buf := make([]byte, 0, len(prefix)+20)
	for i := 0; i < n; i++ {
		buf = append(buf[:0], prefix...)
		buf = append(buf, utils.Itoa(i)...)
		k := KeyOf(buf)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, Pair{Key: k, Value: uint64(i)})
	}
	return out
}

// Misses returns n keys absent from pairs, drawn from the Mix64 sequence.
func Misses(pairs []Pair, n int) []uint64 {
	if n <= 0 {
		return nil
	}
	present := make(map[uint64]struct{}, len(pairs))
	for _, p := range pairs {
		present[p.Key] = struct{}{}
	}
	out := make([]uint64, 0, n)
	for c := uint64(1); len(out) < n; c++ {
		k := utils.Mix64(c ^ 0x9e3779b97f4a7c15)
		if _, hit := present[k]; hit {
			continue
		}
		present[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Distinct collapses pairs to one entry per key, keeping the last value.
// Order follows first appearance.
func Distinct(pairs []Pair) []Pair {
	pos := make(map[uint64]int, len(pairs))
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if i, ok := pos[p.Key]; ok {
			out[i].Value = p.Value
			continue
		}
		pos[p.Key] = len(out)
		out = append(out, p)
	}
	return out
}
