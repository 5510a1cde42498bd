// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: verify.go — end-to-end correctness check for one index
//
// Purpose:
//   - Inserts a workload, optionally reading each key back immediately.
//   - Checks every distinct key's final value, Len, miss probes and the
//     index's own structural invariants.
//
// Notes:
//   - Mismatches are aggregated; only the first MaxReportedFailures are kept
//     verbatim, the total is always counted.
// ─────────────────────────────────────────────────────────────────────────────

package verify

import (
	"errors"
	"fmt"
	"time"

	"hashidx/constants"
	"hashidx/types"
	"hashidx/workload"

	"github.com/hashicorp/go-multierror"
	"github.com/sugawarayuuta/sonnet"
)

// Options tunes one run.
type Options struct {
	// Immediate reads every key back right after inserting it.
	Immediate bool
}

// Report summarises one run.
type Report struct {
	Strategy  string      `json:"strategy"`
	Inserted  int         `json:"inserted"`
	Distinct  int         `json:"distinct"`
	Probed    int         `json:"probed"`
	Misses    int         `json:"misses"`
	Failures  int         `json:"failures"`
	Invariant string      `json:"invariant,omitempty"`
	InsertNS  int64       `json:"insert_ns"`
	LookupNS  int64       `json:"lookup_ns"`
	Stats     types.Stats `json:"stats"`
}

// OK reports whether the run found no problem at all.
func (r *Report) OK() bool {
	return r.Failures == 0 && r.Invariant == ""
}

// JSON encodes the report.
func (r *Report) JSON() ([]byte, error) {
	return sonnet.Marshal(r)
}

type collector struct {
	errs  *multierror.Error
	total int
}

func (c *collector) add(format string, args ...any) {
	c.total++
	if c.total <= constants.MaxReportedFailures {
		c.errs = multierror.Append(c.errs, fmt.Errorf(format, args...))
	}
}

// Run drives tab through pairs and misses. The returned error aggregates every
// recorded mismatch and is nil exactly when Report.OK is true.
func Run(tab types.Table, pairs []workload.Pair, misses []uint64, opts Options) (Report, error) {
	var c collector
	rep := Report{Inserted: len(pairs)}

	start := time.Now()
	for _, p := range pairs {
		tab.Insert(p.Key, p.Value)
		if !opts.Immediate {
			continue
		}
		if v, ok := tab.Lookup(p.Key); !ok {
			c.add("key %d missing right after insert", p.Key)
		} else if v != p.Value {
			c.add("key %d = %d right after insert, want %d", p.Key, v, p.Value)
		}
	}
	rep.InsertNS = time.Since(start).Nanoseconds()

	final := workload.Distinct(pairs)
	rep.Distinct = len(final)

	start = time.Now()
	for _, p := range final {
		rep.Probed++
		v, ok := tab.Lookup(p.Key)
		switch {
		case !ok:
			c.add("key %d missing", p.Key)
		case v != p.Value:
			c.add("key %d = %d, want %d", p.Key, v, p.Value)
		}
	}
	for _, k := range misses {
		rep.Misses++
		if v, ok := tab.Lookup(k); ok {
			c.add("absent key %d found with value %d", k, v)
		}
	}
	rep.LookupNS = time.Since(start).Nanoseconds()

	if n := tab.Len(); n != len(final) {
		c.add("Len() = %d, want %d", n, len(final))
	}

	rep.Stats = tab.Stats()
	rep.Strategy = rep.Stats.Strategy

	if err := tab.CheckInvariants(); err != nil {
		rep.Invariant = err.Error()
		c.errs = multierror.Append(c.errs, fmt.Errorf("invariant: %w", err))
	}

	rep.Failures = c.total
	if c.total > constants.MaxReportedFailures {
		c.errs = multierror.Append(c.errs, fmt.Errorf("%d further mismatches not shown", c.total-constants.MaxReportedFailures))
	}
	return rep, c.errs.ErrorOrNil()
}

// ErrFailed is returned by Summarize when any report failed.
var ErrFailed = errors.New("verification failed")

// Summarize folds several run errors into one, tagged by strategy.
func Summarize(reports []Report, errs []error) error {
	var result *multierror.Error
	for i, err := range errs {
		if err == nil {
			continue
		}
		name := "?"
		if i < len(reports) {
			name = reports[i].Strategy
		}
		result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
	}
	if result == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrFailed, result)
}
