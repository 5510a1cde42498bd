// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Growth Tunables For All Index Strategies
//
// Purpose:
//   - Defines the load thresholds, bucket geometry and sizing limits shared by
//     the open-addressing, extendible-hashing and linear-hashing indexes.
//
// Notes:
//   - Every modulus in the system is a power of two so mask and mod agree.
//   - Values are design parameters, not runtime configuration.
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Open Addressing ─────────────────────────────

const (
	// OpenAddrMaxLoad is the filled/capacity ratio that, once strictly exceeded
	// after an insert, doubles the slot array and rehashes every entry.
	OpenAddrMaxLoad = 0.5

	// OpenAddrDefaultCapacity is used by the strategy factory when no hint is given.
	OpenAddrDefaultCapacity = 4
)

// ─────────────────────────── Extendible Hashing ────────────────────────────

const (
	// BucketSize is the fixed slot count of one extendible-hashing bucket.
	BucketSize = 4

	// InitialGlobalDepth gives a fresh directory two buckets.
	InitialGlobalDepth = 1

	// MaxGlobalDepth caps directory doubling: 2^40 directory entries is far
	// beyond any realistic heap, so reaching it means a broken key stream.
	MaxGlobalDepth = 40
)

// ───────────────────────────── Linear Hashing ──────────────────────────────

const (
	// LinearInitialModulus is M for a fresh table; the chain array is always 2M long.
	LinearInitialModulus = 2

	// LinearSplitFactor is the filled/len(chains) ratio at which each insert
	// performs exactly one incremental split.
	LinearSplitFactor = 0.9
)

// ───────────────────────────── Sizing Hints ────────────────────────────────

const (
	// MaxInitialCapacity bounds the open-addressing slot count a caller may
	// request up front. Growth past it is still allowed.
	MaxInitialCapacity = 1 << 28

	// MaxInitialDepth bounds the pre-sized extendible directory; every slot of a
	// fresh directory owns its own bucket, so 2^depth buckets are allocated at once.
	MaxInitialDepth = 24

	// MaxInitialModulus bounds the linear-hashing modulus M requested up front.
	MaxInitialModulus = 1 << 27
)

// ──────────────────────────── Verification ─────────────────────────────────

const (
	// MaxReportedFailures bounds how many individual mismatches a verification
	// run records; the total count is always reported.
	MaxReportedFailures = 16

	// DefaultMissProbes is the number of absent keys probed per verification run.
	DefaultMissProbes = 1024
)
