// Package initdb implements the schema initialization and seeding command.
package initdb

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"algobench/internal/lineage/sqlite"
	"algobench/internal/platform/config"
	"algobench/internal/seed"
)

// Config holds initdb command configuration.
type Config struct {
	DBPath string `env:"ALGOBENCH_DB_PATH"`
	// SkipSeed creates the schema without the starter catalog.
	SkipSeed bool
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "algo.db")
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to lineage sqlite database (default: ALGOBENCH_DB_PATH or data/algo.db)")
	fs.BoolVar(&cfg.SkipSeed, "skip-seed", cfg.SkipSeed, "create the schema without seeding the starter catalog")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run creates the database, applies migrations and seeds the starter catalog
// when the store is empty.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open lineage store: %w", err)
	}
	defer func() { _ = store.Close() }()

	fmt.Fprintf(out, "database ready at %s\n", cfg.DBPath)

	if cfg.SkipSeed {
		return nil
	}
	seeded, err := seed.Apply(ctx, store)
	if err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	if seeded {
		fmt.Fprintln(out, "starter catalog seeded")
	} else {
		fmt.Fprintln(out, "store already contains algorithms; seeding skipped")
	}
	return nil
}
