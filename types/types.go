package types

import "io"

// ============================================================================
// INDEX CONTRACT - SHARED BY EVERY STRATEGY
// ============================================================================

// Index is the associative contract every growth strategy implements.
// Keys are plain 64-bit values; values are opaque 64-bit payloads.
//
// Implementations are single-owner: no method is safe for concurrent use.
type Index interface {
	// Insert stores value under key, overwriting any previous value.
	// It never fails; it may trigger internal growth.
	Insert(key, value uint64)

	// Lookup returns the value stored under key and whether it was present.
	Lookup(key uint64) (uint64, bool)

	// Len reports the number of distinct keys stored.
	Len() int
}

// Dumper writes a human-readable listing of the occupied structure.
// Purely diagnostic; output format is not stable.
type Dumper interface {
	Dump(w io.Writer) error
}

// Checker re-derives the home of every stored key from first principles and
// reports the first structural violation it finds.
type Checker interface {
	CheckInvariants() error
}

// ============================================================================
// STATISTICS SNAPSHOT
// ============================================================================

// Stats is a point-in-time summary of an index's shape.
// Fields that do not apply to a strategy stay zero and are omitted from JSON.
type Stats struct {
	Strategy string `json:"strategy"`
	Entries  int    `json:"entries"`

	// Slots is the slot count (open addressing), directory length
	// (extendible hashing) or chain-head count (linear hashing).
	Slots int `json:"slots"`

	// Buckets counts distinct storage units: distinct buckets for extendible
	// hashing, non-empty chains for linear hashing.
	Buckets int `json:"buckets,omitempty"`

	// Depth is the global depth (extendible) or log2(M) (linear).
	Depth int `json:"depth,omitempty"`

	// Cursor is the linear-hashing split cursor.
	Cursor int `json:"cursor,omitempty"`

	// Growths counts rehashes, directory doublings or chain-array doublings.
	Growths int `json:"growths"`

	// Splits counts bucket splits (extendible) or incremental splits (linear).
	Splits int `json:"splits,omitempty"`

	// Longest is the longest probe run, fullest bucket or longest chain.
	Longest int `json:"longest"`
}

// Table is an Index that also exposes every diagnostic surface.
// All three strategies satisfy it.
type Table interface {
	Index
	Dumper
	Checker
	Stats() Stats
}
