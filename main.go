// ════════════════════════════════════════════════════════════════════════════════════════════════
// Hash Index Comparison Driver - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: 64-bit Key Index Strategies
// Component: Command Line Driver
//
// Description:
//   Builds each selected index strategy from the same workload, verifies it end to end and
//   reports the resulting shape. Config file → flag overlay → workload → per-strategy runs.
//
// Commands:
//   - run:      insert a workload into every selected strategy and verify the result
//   - generate: write a synthetic workload into a SQLite table for later runs
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hashidx/debug"

	"github.com/jessevdk/go-flags"
)

var parser = flags.NewParser(nil, flags.HelpFlag|flags.PassDoubleDash)

var (
	runCmd      Run
	generateCmd Generate
)

func main() {
	ctx, cancel := setupSignalHandling()
	defer cancel()
	runCmd.ctx = ctx
	generateCmd.ctx = ctx

	parser.AddCommand("run",
		"build and verify indexes",
		"The run command inserts one workload into every selected strategy, checks every key, miss probe and structural invariant, and reports each index's shape",
		&runCmd)
	parser.AddCommand("generate",
		"write a workload to SQLite",
		"The generate command stores a synthetic workload as (key, value) rows so later runs can replay it with --workload sqlite",
		&generateCmd)

	if _, err := parser.Parse(); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Stdout.WriteString(fe.Message + "\n")
			return
		}
		debug.Fatal("hashidx", err)
	}
}

// setupSignalHandling cancels the returned context on SIGINT or SIGTERM so SQLite
// work in flight stops at the next statement.
func setupSignalHandling() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			debug.DropMessage("SIGNAL", "received "+sig.String()+", stopping")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
