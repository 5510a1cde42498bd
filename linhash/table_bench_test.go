package linhash

import (
	"math/rand"
	"testing"
)

const (
	insertSize = 1 << 17
	lookupSize = insertSize / 2
)

var (
	keys     = make([]uint64, insertSize)
	missKeys = make([]uint64, lookupSize)
)

func init() {
	rnd := rand.New(rand.NewSource(1337))
	for i := 0; i < insertSize; i++ {
		keys[i] = uint64(i + 1)
	}
	rnd.Shuffle(insertSize, func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	for i := 0; i < lookupSize; i++ {
		missKeys[i] = uint64(i + insertSize + 100)
	}
}

// -----------------------------------------------------------------------------
// ░░ Benchmark: Insert from M=2 (every incremental split) ░░
// -----------------------------------------------------------------------------

func BenchmarkInsertGrowing(b *testing.B) {
	for n := 0; n < b.N; n++ {
		tab := New()
		for i := 0; i < insertSize; i++ {
			tab.Insert(keys[i], keys[i])
		}
	}
}

func BenchmarkLookupHit(b *testing.B) {
	tab := New()
	for i := 0; i < insertSize; i++ {
		tab.Insert(keys[i], keys[i])
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		tab.Lookup(keys[n&(insertSize-1)])
	}
}

func BenchmarkLookupMiss(b *testing.B) {
	tab := New()
	for i := 0; i < insertSize; i++ {
		tab.Insert(keys[i], keys[i])
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		tab.Lookup(missKeys[n&(lookupSize-1)])
	}
}
