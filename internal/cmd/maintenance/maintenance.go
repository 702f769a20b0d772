// Package maintenance implements catalog upkeep: listing, registration, new
// versions, annotations, and the destructive deduplicate-by-name operation.
package maintenance

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"algobench/internal/lineage"
	"algobench/internal/lineage/sqlite"
	"algobench/internal/platform/config"
)

// Config holds maintenance command configuration.
type Config struct {
	DBPath string `env:"ALGOBENCH_DB_PATH"`

	List   bool
	Dedupe bool

	AddName        string
	AddDescription string
	AddCodeFile    string
	AddCategoryID  int64

	NewVersionAlgorithmID int64
	NewVersionCodeFile    string

	ImproveAlgorithmID int64
	ImproveOldVersion  int64
	ImproveNewVersion  int64
	ImproveNote        string

	FeedbackAlgorithmID int64
	FeedbackVersionID   int64
	FeedbackText        string
	FeedbackRating      int64
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
	fs.BoolVar(&cfg.List, "list", false, "list algorithms with version and metric counts")
	fs.BoolVar(&cfg.Dedupe, "dedupe", false, "deduplicate algorithms by name, keeping the lowest id (destructive)")
	fs.StringVar(&cfg.AddName, "add", "", "register a new algorithm with this name")
	fs.StringVar(&cfg.AddDescription, "description", "", "description for -add")
	fs.StringVar(&cfg.AddCodeFile, "code-file", "", "Lua source file for -add / -new-version")
	fs.Int64Var(&cfg.AddCategoryID, "category", 0, "category id to map for -add (0 = none)")
	fs.Int64Var(&cfg.NewVersionAlgorithmID, "new-version", 0, "append a new version to this algorithm id")
	fs.Int64Var(&cfg.ImproveAlgorithmID, "improve", 0, "record an improvement edge for this algorithm id")
	fs.Int64Var(&cfg.ImproveOldVersion, "old-version", 0, "superseded version id for -improve")
	fs.Int64Var(&cfg.ImproveNewVersion, "new-version-id", 0, "superseding version id for -improve")
	fs.StringVar(&cfg.ImproveNote, "note", "", "note for -improve")
	fs.Int64Var(&cfg.FeedbackAlgorithmID, "feedback", 0, "record feedback for this algorithm id")
	fs.Int64Var(&cfg.FeedbackVersionID, "version-id", 0, "version id for -feedback")
	fs.StringVar(&cfg.FeedbackText, "text", "", "text for -feedback")
	fs.Int64Var(&cfg.FeedbackRating, "rating", 0, "rating for -feedback")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the maintenance command. With no action flags it lists the
// catalog.
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

	switch {
	case cfg.AddName != "":
		return runAdd(ctx, store, cfg, out)
	case cfg.NewVersionAlgorithmID > 0:
		return runNewVersion(ctx, store, cfg, out)
	case cfg.ImproveAlgorithmID > 0:
		return runImprove(ctx, store, cfg, out)
	case cfg.FeedbackAlgorithmID > 0:
		return runFeedback(ctx, store, cfg, out)
	case cfg.Dedupe:
		return runDedupe(ctx, store, out)
	default:
		return runList(ctx, store, out)
	}
}

func runList(ctx context.Context, store lineage.Store, out io.Writer) error {
	algorithms, err := store.ListAlgorithms(ctx)
	if err != nil {
		return fmt.Errorf("list algorithms: %w", err)
	}
	if len(algorithms) == 0 {
		fmt.Fprintln(out, "no algorithms found")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSIONS\tMETRICS")
	for _, algo := range algorithms {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", algo.ID, algo.Name, algo.VersionCount, algo.MetricCount)
	}
	return w.Flush()
}

func runAdd(ctx context.Context, store lineage.Store, cfg Config, out io.Writer) error {
	code, err := readCodeFile(cfg.AddCodeFile)
	if err != nil {
		return err
	}
	algoID, err := store.CreateAlgorithm(ctx, cfg.AddName, cfg.AddDescription)
	if err != nil {
		return fmt.Errorf("create algorithm: %w", err)
	}
	versionID, err := store.AddVersion(ctx, algoID, code)
	if err != nil {
		return fmt.Errorf("add version: %w", err)
	}
	if cfg.AddCategoryID > 0 {
		if err := store.MapCategory(ctx, algoID, cfg.AddCategoryID); err != nil {
			return fmt.Errorf("map category: %w", err)
		}
	}
	fmt.Fprintf(out, "registered algorithm %q (id %d, version id %d)\n", cfg.AddName, algoID, versionID)
	return nil
}

func runNewVersion(ctx context.Context, store lineage.Store, cfg Config, out io.Writer) error {
	code, err := readCodeFile(cfg.AddCodeFile)
	if err != nil {
		return err
	}
	versionID, err := store.AddVersion(ctx, cfg.NewVersionAlgorithmID, code)
	if err != nil {
		return fmt.Errorf("add version: %w", err)
	}
	fmt.Fprintf(out, "added version %d to algorithm %d\n", versionID, cfg.NewVersionAlgorithmID)
	return nil
}

func runImprove(ctx context.Context, store lineage.Store, cfg Config, out io.Writer) error {
	id, err := store.AddImprovement(ctx, lineage.Improvement{
		AlgorithmID:  cfg.ImproveAlgorithmID,
		OldVersionID: cfg.ImproveOldVersion,
		NewVersionID: cfg.ImproveNewVersion,
		Note:         cfg.ImproveNote,
	})
	if err != nil {
		return fmt.Errorf("add improvement: %w", err)
	}
	fmt.Fprintf(out, "recorded improvement %d for algorithm %d\n", id, cfg.ImproveAlgorithmID)
	return nil
}

func runFeedback(ctx context.Context, store lineage.Store, cfg Config, out io.Writer) error {
	id, err := store.AddFeedback(ctx, lineage.Feedback{
		AlgorithmID: cfg.FeedbackAlgorithmID,
		VersionID:   cfg.FeedbackVersionID,
		Text:        cfg.FeedbackText,
		Rating:      cfg.FeedbackRating,
	})
	if err != nil {
		return fmt.Errorf("add feedback: %w", err)
	}
	fmt.Fprintf(out, "recorded feedback %d for algorithm %d\n", id, cfg.FeedbackAlgorithmID)
	return nil
}

func runDedupe(ctx context.Context, store lineage.Store, out io.Writer) error {
	results, err := store.DeduplicateByName(ctx)
	if err != nil {
		return fmt.Errorf("deduplicate: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "no duplicate algorithm names found")
		return nil
	}
	for _, result := range results {
		fmt.Fprintf(out, "deduplicated %q: kept %d, deleted %v\n", result.Name, result.KeptID, result.DeletedIDs)
	}
	return nil
}

func readCodeFile(path string) (string, error) {
	if path == "" {
		return "", errors.New("-code-file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read code file: %w", err)
	}
	return string(data), nil
}
