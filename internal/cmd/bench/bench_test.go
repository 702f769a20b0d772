package bench

import (
	"bytes"
	"context"
	"flag"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"algobench/internal/lineage/sqlite"
	"algobench/internal/seed"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("ALGOBENCH_DB_PATH", "")

	cfg, err := ParseConfig(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != filepath.Join("data", "algo.db") {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.Sizes != "50,100,200" {
		t.Fatalf("sizes = %q", cfg.Sizes)
	}
	if cfg.Kind != "integer" || cfg.Ordering != "random" {
		t.Fatalf("workload defaults = %q/%q", cfg.Kind, cfg.Ordering)
	}
	if cfg.Iterations != 3 {
		t.Fatalf("iterations = %d", cfg.Iterations)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v", cfg.Timeout)
	}
	if cfg.Init {
		t.Fatal("init must default to false")
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ALGOBENCH_DB_PATH", "/env/algo.db")

	cfg, err := ParseConfig(newFlagSet(), []string{
		"-db-path", "/flag/algo.db",
		"-sizes", "10,20",
		"-iterations", "1",
		"-timeout", "2s",
	})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/flag/algo.db" {
		t.Fatalf("db path = %q, want flag value", cfg.DBPath)
	}
	if cfg.Sizes != "10,20" || cfg.Iterations != 1 || cfg.Timeout != 2*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestRunMissingDatabase(t *testing.T) {
	cfg := Config{
		DBPath:     filepath.Join(t.TempDir(), "missing.db"),
		Sizes:      "10",
		Kind:       "integer",
		Ordering:   "random",
		Iterations: 1,
	}
	err := Run(context.Background(), cfg, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing-database error, got %v", err)
	}
}

func TestRunInvalidSizes(t *testing.T) {
	cfg := Config{DBPath: "unused.db", Sizes: "10,zero", Kind: "integer", Ordering: "random"}
	if err := Run(context.Background(), cfg, io.Discard, io.Discard); err == nil {
		t.Fatal("expected error for invalid sizes")
	}
}

func TestRunInitCreatesEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "algo.db")
	cfg := Config{
		DBPath:     path,
		Sizes:      "10",
		Kind:       "integer",
		Ordering:   "random",
		Iterations: 1,
		Init:       true,
	}

	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "0 metrics recorded") {
		t.Fatalf("output = %q", out.String())
	}

	store, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("reopen created store: %v", err)
	}
	defer func() { _ = store.Close() }()
	algorithms, err := store.ListAlgorithms(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(algorithms) != 0 {
		t.Fatalf("init created algorithms: %v", algorithms)
	}
}

func TestRunSweepsSeededCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "algo.db")
	store, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := seed.Apply(context.Background(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	cfg := Config{
		DBPath:     path,
		Sizes:      "10",
		Kind:       "integer",
		Ordering:   "random",
		Iterations: 1,
		Timeout:    5 * time.Second,
	}
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "4 metrics recorded, 0 cases skipped") {
		t.Fatalf("output = %q", out.String())
	}

	store, err = sqlite.Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = store.Close() }()
	records, err := store.ExportMetrics(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("metric rows = %d, want one per seeded algorithm", len(records))
	}
}

func TestParseSizes(t *testing.T) {
	sizes, err := parseSizes(" 50, 100 ,200 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sizes) != 3 || sizes[0] != 50 || sizes[1] != 100 || sizes[2] != 200 {
		t.Fatalf("sizes = %v", sizes)
	}
	for _, bad := range []string{"", "0", "-5", "ten", "10,,x"} {
		if _, err := parseSizes(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
