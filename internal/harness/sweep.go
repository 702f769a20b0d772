package harness

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"algobench/internal/lineage"
	"algobench/internal/workload"
)

// SweepOptions configures one benchmark sweep across the catalog.
type SweepOptions struct {
	Sizes      []int
	Kind       workload.Kind
	Ordering   workload.Ordering
	Iterations int
	Timeout    time.Duration
	Platform   string
}

// Failure records one skipped test case with enough context to identify it.
type Failure struct {
	AlgorithmID   int64
	AlgorithmName string
	VersionID     int64
	InputSize     int
	Cause         error
}

func (f Failure) String() string {
	return fmt.Sprintf("algorithm %q (id %d) version %d size %d: %v",
		f.AlgorithmName, f.AlgorithmID, f.VersionID, f.InputSize, f.Cause)
}

// SweepSummary reports what a sweep recorded and what it skipped.
type SweepSummary struct {
	RunID    string
	Recorded int
	Failures []Failure
}

// Sweep measures the latest version of every algorithm in the store at every
// configured input size and records one metric per successful case.
//
// Per-case failures (load, resolution, execution, timeout) and per-algorithm
// failures (no versions) are downgraded to logged skips; the sweep always
// continues to the next case. Only storage failures abort the sweep.
func Sweep(ctx context.Context, store lineage.Store, opts SweepOptions, logger *log.Logger) (SweepSummary, error) {
	if logger == nil {
		logger = log.Default()
	}
	sizes := opts.Sizes
	if len(sizes) == 0 {
		sizes = []int{50, 100, 200}
	}
	kind := opts.Kind
	if kind == "" {
		kind = workload.Integer
	}
	ordering := opts.Ordering
	if ordering == "" {
		ordering = workload.Random
	}

	summary := SweepSummary{RunID: uuid.NewString()}
	runner := &Runner{
		Iterations: opts.Iterations,
		Timeout:    opts.Timeout,
		Platform:   opts.Platform,
		Logger:     logger,
	}

	algorithms, err := store.ListAlgorithms(ctx)
	if err != nil {
		return summary, fmt.Errorf("list algorithms: %w", err)
	}
	logger.Printf("sweep %s: %d algorithms, sizes %v", summary.RunID, len(algorithms), sizes)

	for _, algo := range algorithms {
		version, err := store.LatestVersion(ctx, algo.ID)
		if errors.Is(err, lineage.ErrNotFound) {
			failure := Failure{AlgorithmID: algo.ID, AlgorithmName: algo.Name, Cause: err}
			logger.Printf("skipping %s", failure)
			summary.Failures = append(summary.Failures, failure)
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("latest version of algorithm %d: %w", algo.ID, err)
		}
		logger.Printf("testing algorithm %q (id %d) version %d", algo.Name, algo.ID, version.VersionNumber)

		for _, size := range sizes {
			data, err := workload.Generate(size, kind, ordering)
			if err != nil {
				return summary, fmt.Errorf("generate workload: %w", err)
			}

			m, err := runner.Run(ctx, version.Code, data, algo.Name)
			if err != nil {
				failure := Failure{
					AlgorithmID:   algo.ID,
					AlgorithmName: algo.Name,
					VersionID:     version.ID,
					InputSize:     size,
					Cause:         err,
				}
				logger.Printf("skipping %s", failure)
				summary.Failures = append(summary.Failures, failure)
				continue
			}

			metricID, err := store.RecordMetric(ctx, lineage.Metric{
				VersionID:       version.ID,
				InputSize:       m.InputSize,
				ExecutionTimeMS: m.ExecutionTimeMS,
				MemoryUsageKB:   m.MemoryUsageKB,
				Platform:        m.Platform,
			})
			if err != nil {
				return summary, fmt.Errorf("record metric for version %d size %d: %w", version.ID, size, err)
			}
			summary.Recorded++
			logger.Printf("  size %d: %.2f ms, %.2f KB (metric %d)", size, m.ExecutionTimeMS, m.MemoryUsageKB, metricID)
		}
	}
	return summary, nil
}
