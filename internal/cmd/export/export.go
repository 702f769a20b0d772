// Package export implements the metric export command. It is read-only: a
// missing database is fatal, never created.
package export

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	metricexport "algobench/internal/export"
	"algobench/internal/lineage/sqlite"
	"algobench/internal/platform/config"
)

// Config holds export command configuration.
type Config struct {
	DBPath    string `env:"ALGOBENCH_DB_PATH"`
	OutputDir string `env:"ALGOBENCH_OUTPUT_DIR" envDefault:"reports"`
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
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for exported files (default: ALGOBENCH_OUTPUT_DIR or reports)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run exports recorded metrics to JSON.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	if _, err := os.Stat(cfg.DBPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database %s does not exist", cfg.DBPath)
		}
		return fmt.Errorf("stat database: %w", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open lineage store: %w", err)
	}
	defer func() { _ = store.Close() }()

	path, count, err := metricexport.WriteMetricsJSON(ctx, store, cfg.OutputDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %d metric records to %s\n", count, path)
	return nil
}
