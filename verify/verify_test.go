package verify

import (
	"errors"
	"strings"
	"testing"

	"hashidx/constants"
	"hashidx/htable"
	"hashidx/types"
	"hashidx/workload"

	"github.com/hashicorp/go-multierror"
	"github.com/sugawarayuuta/sonnet"
)

// ============================================================================
// FAULTY TABLE FOR FAILURE PATHS
// ============================================================================

// lossy wraps a real table and drops every key divisible by drop (0 keeps all).
type lossy struct {
	types.Table
	drop   uint64
	broken error
}

func (l *lossy) Insert(k, v uint64) {
	if l.drop != 0 && k%l.drop == 0 {
		return
	}
	l.Table.Insert(k, v)
}

func (l *lossy) CheckInvariants() error {
	if l.broken != nil {
		return l.broken
	}
	return l.Table.CheckInvariants()
}

func mustNew(t *testing.T, k htable.Kind) types.Table {
	t.Helper()
	tab, err := htable.New(k, 0)
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

// ============================================================================
// PASSING RUNS
// ============================================================================

func TestRunAllStrategies(t *testing.T) {
	pairs := workload.Shuffled(3000, 7)
	misses := workload.Misses(pairs, 500)
	for _, k := range htable.Kinds {
		t.Run(k.String(), func(t *testing.T) {
			rep, err := Run(mustNew(t, k), pairs, misses, Options{Immediate: true})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !rep.OK() {
				t.Fatalf("report not OK: %+v", rep)
			}
			if rep.Strategy != k.String() || rep.Inserted != 3000 || rep.Distinct != 3000 ||
				rep.Probed != 3000 || rep.Misses != 500 || rep.Stats.Entries != 3000 {
				t.Fatalf("report = %+v", rep)
			}
		})
	}
}

func TestRunWithDuplicates(t *testing.T) {
	pairs := workload.Sequential(200)
	for i := 0; i < 100; i++ {
		pairs = append(pairs, workload.Pair{Key: uint64(i), Value: uint64(i) * 3})
	}
	for _, k := range htable.Kinds {
		rep, err := Run(mustNew(t, k), pairs, nil, Options{})
		if err != nil {
			t.Fatalf("%v: %v", k, err)
		}
		if rep.Inserted != 300 || rep.Distinct != 200 {
			t.Fatalf("%v: report = %+v", k, rep)
		}
	}
}

func TestRunEmpty(t *testing.T) {
	rep, err := Run(mustNew(t, htable.Linear), nil, []uint64{1, 2, 3}, Options{})
	if err != nil || !rep.OK() || rep.Misses != 3 {
		t.Fatalf("rep=%+v err=%v", rep, err)
	}
}

// ============================================================================
// FAILING RUNS
// ============================================================================

func TestRunReportsLostKeys(t *testing.T) {
	tab := &lossy{Table: mustNew(t, htable.OpenAddressing), drop: 10}
	rep, err := Run(tab, workload.Sequential(100), nil, Options{Immediate: true})
	if err == nil || rep.OK() {
		t.Fatal("lost keys not reported")
	}
	// 10 immediate + 10 final + 1 Len
	if rep.Failures != 21 {
		t.Fatalf("Failures = %d, want 21", rep.Failures)
	}
	merr, ok := err.(*multierror.Error)
	if !ok {
		t.Fatalf("err = %T", err)
	}
	// capped list plus the overflow note
	if len(merr.Errors) != constants.MaxReportedFailures+1 {
		t.Fatalf("recorded %d errors", len(merr.Errors))
	}
	if !strings.Contains(merr.Errors[len(merr.Errors)-1].Error(), "further mismatches") {
		t.Fatalf("last error = %v", merr.Errors[len(merr.Errors)-1])
	}
}

func TestRunReportsFalseHit(t *testing.T) {
	pairs := workload.Sequential(10)
	// 5 is present, so probing it as a miss must fail.
	rep, err := Run(mustNew(t, htable.Extendible), pairs, []uint64{5}, Options{})
	if err == nil || rep.Failures != 1 {
		t.Fatalf("rep=%+v err=%v", rep, err)
	}
}

func TestRunReportsInvariant(t *testing.T) {
	boom := errors.New("chain 3 misplaced")
	tab := &lossy{Table: mustNew(t, htable.Linear), broken: boom}
	rep, err := Run(tab, workload.Sequential(50), nil, Options{})
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if rep.Failures != 0 || rep.Invariant != boom.Error() || rep.OK() {
		t.Fatalf("rep = %+v", rep)
	}
}

func TestSummarize(t *testing.T) {
	reports := []Report{{Strategy: "openaddr"}, {Strategy: "exthash"}}
	if err := Summarize(reports, []error{nil, nil}); err != nil {
		t.Fatalf("Summarize = %v", err)
	}
	err := Summarize(reports, []error{nil, errors.New("bad")})
	if !errors.Is(err, ErrFailed) || !strings.Contains(err.Error(), "exthash: bad") {
		t.Fatalf("Summarize = %v", err)
	}
}

func TestReportJSON(t *testing.T) {
	rep, err := Run(mustNew(t, htable.Extendible), workload.Sequential(64), nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	data, err := rep.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := sonnet.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back["strategy"] != "exthash" || back["distinct"] != float64(64) {
		t.Fatalf("decoded = %v", back)
	}
	stats, ok := back["stats"].(map[string]any)
	if !ok || stats["entries"] != float64(64) {
		t.Fatalf("stats = %v", back["stats"])
	}
	if _, ok := back["invariant"]; ok {
		t.Fatal("empty invariant should be omitted")
	}
}
