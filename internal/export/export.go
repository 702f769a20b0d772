// Package export writes recorded metrics in the flat JSON shape consumed by
// external reporting tools.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"algobench/internal/lineage"
)

// MetricsFileName is the file reporting tools look for in the output
// directory.
const MetricsFileName = "performance_metrics.json"

// WriteMetricsJSON exports every recorded metric to
// <outputDir>/performance_metrics.json and returns the written path and
// record count. An empty store produces an empty JSON array, not null.
func WriteMetricsJSON(ctx context.Context, store lineage.Store, outputDir string) (string, int, error) {
	records, err := store.ExportMetrics(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("export metrics: %w", err)
	}
	if records == nil {
		records = []lineage.ExportRecord{}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outputDir, MetricsFileName)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("marshal metrics: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}
	return path, len(records), nil
}
