// Package lineage defines the versioned algorithm catalog: algorithms, their
// immutable source versions, recorded performance metrics, and the annotation
// records (improvements, feedback, categories) that hang off them.
package lineage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested row does not exist. For LatestVersion it
// also covers an algorithm that exists but has no versions.
var ErrNotFound = errors.New("lineage: not found")

// Algorithm is a named piece of logic under benchmark. Names are not unique at
// the storage layer; DeduplicateByName reconciles duplicates.
type Algorithm struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// AlgorithmSummary is an Algorithm enriched with version and metric counts for
// listing tools.
type AlgorithmSummary struct {
	Algorithm
	VersionCount int64
	MetricCount  int64
}

// Version is one immutable snapshot of an algorithm's source text. Corrections
// are new versions, never edits.
type Version struct {
	ID            int64
	AlgorithmID   int64
	VersionNumber int64
	Code          string
	CreatedAt     time.Time
}

// Metric is one recorded measurement for a version at a given input size.
// Rows are append-only.
type Metric struct {
	ID              int64
	VersionID       int64
	InputSize       int64
	ExecutionTimeMS float64
	MemoryUsageKB   float64
	Platform        string
	TestDate        time.Time
}

// Improvement is a directed edge in the version lineage graph recording why a
// later version superseded an earlier one. Absence of an edge records nothing.
type Improvement struct {
	ID           int64
	AlgorithmID  int64
	OldVersionID int64
	NewVersionID int64
	Note         string
	CreatedAt    time.Time
}

// Feedback is a free-form annotation on a version.
type Feedback struct {
	ID          int64
	AlgorithmID int64
	VersionID   int64
	Text        string
	Rating      int64
	CreatedAt   time.Time
}

// Category is a tag in the many-to-many vocabulary over algorithms.
type Category struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// ExportRecord is the flattened metric shape consumed by external reporting
// tools.
type ExportRecord struct {
	AlgorithmID     int64   `json:"algorithm_id"`
	AlgorithmName   string  `json:"algorithm_name"`
	VersionID       int64   `json:"version_id"`
	VersionNumber   int64   `json:"version_number"`
	InputSize       int64   `json:"input_size"`
	ExecutionTimeMS float64 `json:"execution_time_ms"`
	MemoryUsageKB   float64 `json:"memory_usage_kb"`
}

// DedupeResult reports what DeduplicateByName removed for one duplicated name.
type DedupeResult struct {
	Name       string
	KeptID     int64
	DeletedIDs []int64
}

// Store is the persistence contract for the lineage model. Implementations
// are synchronous; the benchmark sweep never overlaps calls.
type Store interface {
	// CreateAlgorithm registers a new algorithm and returns its id.
	CreateAlgorithm(ctx context.Context, name, description string) (int64, error)
	// AddVersion appends a new immutable version with the next version number
	// for the algorithm and returns the version id.
	AddVersion(ctx context.Context, algorithmID int64, code string) (int64, error)
	// LatestVersion returns the version with the maximal version number for
	// the algorithm, or ErrNotFound when none exists.
	LatestVersion(ctx context.Context, algorithmID int64) (Version, error)
	// RecordMetric appends one measurement row and returns its id. It never
	// mutates existing rows.
	RecordMetric(ctx context.Context, m Metric) (int64, error)

	ListAlgorithms(ctx context.Context) ([]AlgorithmSummary, error)
	ListImprovements(ctx context.Context, algorithmID int64) ([]Improvement, error)
	ListFeedback(ctx context.Context, algorithmID int64) ([]Feedback, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CategoriesFor(ctx context.Context, algorithmID int64) ([]Category, error)
	ExportMetrics(ctx context.Context) ([]ExportRecord, error)

	AddImprovement(ctx context.Context, imp Improvement) (int64, error)
	AddFeedback(ctx context.Context, fb Feedback) (int64, error)
	AddCategory(ctx context.Context, name, description string) (int64, error)
	MapCategory(ctx context.Context, algorithmID, categoryID int64) error

	// DeduplicateByName keeps the lowest-id algorithm per duplicated name and
	// cascade-deletes every other row's versions, metrics, improvements,
	// feedback and category mappings, as one all-or-nothing unit.
	DeduplicateByName(ctx context.Context) ([]DedupeResult, error)

	Close() error
}
