package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"hashidx/config"
	"hashidx/debug"
	"hashidx/htable"
	"hashidx/types"
	"hashidx/utils"
	"hashidx/verify"
	"hashidx/workload"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// COMMAND OPTIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Source selects and sizes the workload. Zero values leave the config untouched.
type Source struct {
	Keys     int    `short:"n" long:"keys" description:"number of keys to generate"`
	Workload string `short:"w" long:"workload" description:"key source [sequential, shuffled, labels, sqlite]"`
	Seed     int64  `long:"seed" description:"shuffle seed"`
	Prefix   string `long:"prefix" description:"label prefix for the labels workload"`
	Database string `long:"db" description:"SQLite database path"`
	Table    string `long:"table" description:"SQLite table holding (key, value) rows"`
}

// Run is the run command.
type Run struct {
	Config     string   `short:"c" long:"config" description:"JSON run configuration; flags override it"`
	Strategies []string `short:"s" long:"strategy" description:"strategy to run, repeatable [openaddr, exthash, linhash, all]"`
	Capacity   int      `long:"capacity" description:"initial open-addressing slot count"`
	Depth      int      `long:"depth" description:"initial extendible-hashing global depth"`
	Modulus    int      `long:"modulus" description:"initial linear-hashing modulus M"`
	Misses     int      `long:"misses" description:"number of absent keys to probe"`
	Immediate  bool     `short:"i" long:"immediate" description:"read every key back right after inserting it"`
	LogLevel   string   `short:"l" long:"loglevel" description:"set the logging level [debug, info, notice, warning, error, critical]"`
	Dump       bool     `long:"dump" description:"write every index's structure to stdout"`
	JSON       bool     `long:"json" description:"write one JSON report per strategy to stdout"`
	Source

	ctx context.Context
	out io.Writer
}

// Generate is the generate command.
type Generate struct {
	LogLevel string `short:"l" long:"loglevel" description:"set the logging level [debug, info, notice, warning, error, critical]"`
	Source

	ctx context.Context
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func (s *Source) overlay(cfg *config.Config) {
	if s.Keys != 0 {
		cfg.Keys = s.Keys
	}
	if s.Workload != "" {
		cfg.Workload = s.Workload
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Prefix != "" {
		cfg.Prefix = s.Prefix
	}
	if s.Database != "" {
		cfg.Database = s.Database
	}
	if s.Table != "" {
		cfg.Table = s.Table
	}
}

// resolve layers defaults, the optional config file and the flags, in that order.
func (x *Run) resolve() (config.Config, error) {
	cfg := config.Default()
	if x.Config != "" {
		var err error
		if cfg, err = config.Load(x.Config); err != nil {
			return cfg, err
		}
	}
	x.Source.overlay(&cfg)
	if len(x.Strategies) > 0 {
		cfg.Strategies = x.Strategies
	}
	if x.Capacity != 0 {
		cfg.Capacity = x.Capacity
	}
	if x.Depth != 0 {
		cfg.Depth = x.Depth
	}
	if x.Modulus != 0 {
		cfg.Modulus = x.Modulus
	}
	if x.Misses != 0 {
		cfg.Misses = x.Misses
	}
	if x.LogLevel != "" {
		cfg.LogLevel = x.LogLevel
	}
	cfg.Immediate = cfg.Immediate || x.Immediate
	cfg.Dump = cfg.Dump || x.Dump
	return cfg, cfg.Validate()
}

// loadWorkload materialises the configured key source.
func loadWorkload(ctx context.Context, cfg *config.Config) ([]workload.Pair, error) {
	switch cfg.Workload {
	case config.WorkloadSequential:
		return workload.Sequential(cfg.Keys), nil
	case config.WorkloadShuffled:
		return workload.Shuffled(cfg.Keys, cfg.Seed), nil
	case config.WorkloadLabels:
		return workload.Labels(cfg.Keys, cfg.Prefix), nil
	case config.WorkloadSQLite:
		return workload.LoadSQLite(ctx, cfg.Database, cfg.Table)
	}
	return nil, fmt.Errorf("unknown workload %q", cfg.Workload)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// EXECUTION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func (x *Run) Execute(args []string) error {
	if x.ctx == nil {
		x.ctx = context.Background()
	}
	if x.out == nil {
		x.out = os.Stdout
	}

	cfg, err := x.resolve()
	if err != nil {
		return err
	}
	if err := debug.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	kinds, err := cfg.Kinds()
	if err != nil {
		return err
	}

	pairs, err := loadWorkload(x.ctx, &cfg)
	if err != nil {
		return err
	}
	misses := workload.Misses(pairs, cfg.Misses)
	debug.DropMessage("LOADED", utils.Itoa(len(pairs))+" pairs ("+cfg.Workload+"), "+utils.Itoa(len(misses))+" miss probes")

	reports := make([]verify.Report, 0, len(kinds))
	errs := make([]error, 0, len(kinds))
	for _, kind := range kinds {
		if err := x.ctx.Err(); err != nil {
			return err
		}
		tab, err := htable.New(kind, cfg.Hint(kind))
		if err != nil {
			return err
		}

		rep, runErr := verify.Run(tab, pairs, misses, verify.Options{Immediate: cfg.Immediate})
		reports = append(reports, rep)
		errs = append(errs, runErr)
		x.report(tab, &rep, runErr)

		if cfg.Dump {
			if err := tab.Dump(x.out); err != nil {
				return fmt.Errorf("dump %s: %w", kind, err)
			}
		}
		if x.JSON {
			data, err := rep.JSON()
			if err != nil {
				return fmt.Errorf("encode %s report: %w", kind, err)
			}
			if _, err := x.out.Write(append(data, '\n')); err != nil {
				return err
			}
		}
	}
	return verify.Summarize(reports, errs)
}

func (x *Run) report(tab types.Table, rep *verify.Report, err error) {
	st := tab.Stats()
	line := st.Strategy + ": " + utils.Itoa(st.Entries) + " entries, " +
		utils.Itoa(st.Slots) + " slots, " + utils.Itoa(st.Growths) + " growths, longest " + utils.Itoa(st.Longest)
	if st.Splits != 0 {
		line += ", " + utils.Itoa(st.Splits) + " splits"
	}
	if err != nil {
		debug.DropError("VERIFY "+st.Strategy, err)
		return
	}
	debug.DropMessage("OK", line+" ("+utils.Itoa(int(rep.InsertNS/1000))+"µs insert, "+utils.Itoa(int(rep.LookupNS/1000))+"µs lookup)")
}

func (x *Generate) Execute(args []string) error {
	if x.ctx == nil {
		x.ctx = context.Background()
	}
	if x.LogLevel != "" {
		if err := debug.SetLevel(x.LogLevel); err != nil {
			return err
		}
	}

	cfg := config.Default()
	x.Source.overlay(&cfg)
	if cfg.Workload == config.WorkloadSQLite {
		return fmt.Errorf("generate needs a synthetic workload, not %q", cfg.Workload)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Database == "" {
		return fmt.Errorf("generate needs --db")
	}

	pairs, err := loadWorkload(x.ctx, &cfg)
	if err != nil {
		return err
	}
	if err := workload.SaveSQLite(x.ctx, cfg.Database, cfg.Table, pairs); err != nil {
		return err
	}
	debug.DropMessage("SAVED", utils.Itoa(len(pairs))+" pairs → "+cfg.Database+":"+cfg.Table)
	return nil
}
