// Package bench implements the benchmark sweep command.
package bench

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"algobench/internal/harness"
	"algobench/internal/lineage/sqlite"
	"algobench/internal/platform/config"
	"algobench/internal/workload"
)

// Config holds bench command configuration.
type Config struct {
	DBPath     string        `env:"ALGOBENCH_DB_PATH"`
	Sizes      string        `env:"ALGOBENCH_BENCH_SIZES"    envDefault:"50,100,200"`
	Kind       string        `env:"ALGOBENCH_BENCH_KIND"     envDefault:"integer"`
	Ordering   string        `env:"ALGOBENCH_BENCH_ORDERING" envDefault:"random"`
	Iterations int           `env:"ALGOBENCH_BENCH_ITERATIONS" envDefault:"3"`
	Timeout    time.Duration `env:"ALGOBENCH_BENCH_TIMEOUT"  envDefault:"10s"`
	Init       bool
}

// ParseConfig parses flags into a Config, with environment values as flag
// defaults.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "algo.db")
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to lineage sqlite database (default: ALGOBENCH_DB_PATH or data/algo.db)")
	fs.StringVar(&cfg.Sizes, "sizes", cfg.Sizes, "comma-separated input sizes to sweep")
	fs.StringVar(&cfg.Kind, "kind", cfg.Kind, "workload kind (integer|float|text)")
	fs.StringVar(&cfg.Ordering, "ordering", cfg.Ordering, "workload ordering (random|sorted|nearly_sorted)")
	fs.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "timed invocations averaged per measurement")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "hard wall-clock timeout per invocation")
	fs.BoolVar(&cfg.Init, "init", cfg.Init, "initialize an empty store when the database is missing")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes one benchmark sweep.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	sizes, err := parseSizes(cfg.Sizes)
	if err != nil {
		return err
	}
	kind, err := workload.ParseKind(cfg.Kind)
	if err != nil {
		return err
	}
	ordering, err := workload.ParseOrdering(cfg.Ordering)
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(cfg.DBPath); statErr != nil {
		if !errors.Is(statErr, os.ErrNotExist) {
			return fmt.Errorf("stat database: %w", statErr)
		}
		if !cfg.Init {
			return fmt.Errorf("database %s does not exist (run initdb, or pass -init)", cfg.DBPath)
		}
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open lineage store: %w", err)
	}
	defer func() { _ = store.Close() }()

	logger := log.New(errOut, "", log.LstdFlags)
	summary, err := harness.Sweep(ctx, store, harness.SweepOptions{
		Sizes:      sizes,
		Kind:       kind,
		Ordering:   ordering,
		Iterations: cfg.Iterations,
		Timeout:    cfg.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "sweep %s completed: %d metrics recorded, %d cases skipped\n",
		summary.RunID, summary.Recorded, len(summary.Failures))
	for _, failure := range summary.Failures {
		fmt.Fprintf(out, "  skipped %s\n", failure)
	}
	return nil
}

func parseSizes(value string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		size, err := strconv.Atoi(part)
		if err != nil || size < 1 {
			return nil, fmt.Errorf("invalid input size %q", part)
		}
		sizes = append(sizes, size)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("at least one input size is required")
	}
	return sizes, nil
}
