// Package sqlite provides the SQLite-backed lineage store implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"algobench/internal/lineage"
	"algobench/internal/lineage/sqlite/migrations"
	"algobench/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store persists the lineage model in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ lineage.Store = (*Store)(nil)

// Open opens a SQLite lineage store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateAlgorithm registers one algorithm row.
func (s *Store) CreateAlgorithm(ctx context.Context, name, description string) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("algorithm name is required")
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO algorithms (name, description) VALUES (?, ?)`,
		name,
		strings.TrimSpace(description),
	)
	if err != nil {
		return 0, fmt.Errorf("insert algorithm: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("algorithm id: %w", err)
	}
	return id, nil
}

// AddVersion appends an immutable version with the next version number.
func (s *Store) AddVersion(ctx context.Context, algorithmID int64, code string) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if algorithmID <= 0 {
		return 0, fmt.Errorf("algorithm id is required")
	}
	if strings.TrimSpace(code) == "" {
		return 0, fmt.Errorf("version code is required")
	}

	var exists int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM algorithms WHERE id = ?`, algorithmID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("algorithm %d: %w", algorithmID, lineage.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("check algorithm: %w", err)
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO algorithm_versions (algorithm_id, version_number, code)
		 VALUES (?, (SELECT COALESCE(MAX(version_number), 0) + 1
		             FROM algorithm_versions WHERE algorithm_id = ?), ?)`,
		algorithmID,
		algorithmID,
		code,
	)
	if err != nil {
		return 0, fmt.Errorf("insert version: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("version id: %w", err)
	}
	return id, nil
}

// LatestVersion resolves the version with the maximal version number.
func (s *Store) LatestVersion(ctx context.Context, algorithmID int64) (lineage.Version, error) {
	if err := s.ready(ctx); err != nil {
		return lineage.Version{}, err
	}
	var v lineage.Version
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, algorithm_id, version_number, code, created_at
		 FROM algorithm_versions
		 WHERE algorithm_id = ?
		 ORDER BY version_number DESC LIMIT 1`,
		algorithmID,
	).Scan(&v.ID, &v.AlgorithmID, &v.VersionNumber, &v.Code, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return lineage.Version{}, fmt.Errorf("algorithm %d has no versions: %w", algorithmID, lineage.ErrNotFound)
	}
	if err != nil {
		return lineage.Version{}, fmt.Errorf("query latest version: %w", err)
	}
	return v, nil
}

// RecordMetric appends one measurement row.
func (s *Store) RecordMetric(ctx context.Context, m lineage.Metric) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if m.VersionID <= 0 {
		return 0, fmt.Errorf("version id is required")
	}
	if m.InputSize <= 0 {
		return 0, fmt.Errorf("input size must be positive")
	}
	testDate := m.TestDate
	if testDate.IsZero() {
		testDate = time.Now().UTC()
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO performance_metrics
		   (version_id, input_size, execution_time_ms, memory_usage_kb, platform, test_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.VersionID,
		m.InputSize,
		m.ExecutionTimeMS,
		m.MemoryUsageKB,
		m.Platform,
		testDate,
	)
	if err != nil {
		return 0, fmt.Errorf("insert metric: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("metric id: %w", err)
	}
	return id, nil
}

// ListAlgorithms enumerates algorithms with version and metric counts,
// ordered by name.
func (s *Store) ListAlgorithms(ctx context.Context) ([]lineage.AlgorithmSummary, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT a.id, a.name, COALESCE(a.description, ''), a.created_at,
		        COUNT(av.id),
		        (SELECT COUNT(*) FROM performance_metrics pm
		         JOIN algorithm_versions av2 ON pm.version_id = av2.id
		         WHERE av2.algorithm_id = a.id)
		 FROM algorithms a
		 LEFT JOIN algorithm_versions av ON a.id = av.algorithm_id
		 GROUP BY a.id
		 ORDER BY a.name, a.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query algorithms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []lineage.AlgorithmSummary
	for rows.Next() {
		var sum lineage.AlgorithmSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Description, &sum.CreatedAt, &sum.VersionCount, &sum.MetricCount); err != nil {
			return nil, fmt.Errorf("scan algorithm: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate algorithms: %w", err)
	}
	return out, nil
}

// ListImprovements returns lineage graph edges for one algorithm.
func (s *Store) ListImprovements(ctx context.Context, algorithmID int64) ([]lineage.Improvement, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, algorithm_id, old_version_id, new_version_id,
		        COALESCE(improvement_note, ''), created_at
		 FROM improvements WHERE algorithm_id = ? ORDER BY id`,
		algorithmID,
	)
	if err != nil {
		return nil, fmt.Errorf("query improvements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []lineage.Improvement
	for rows.Next() {
		var imp lineage.Improvement
		if err := rows.Scan(&imp.ID, &imp.AlgorithmID, &imp.OldVersionID, &imp.NewVersionID, &imp.Note, &imp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan improvement: %w", err)
		}
		out = append(out, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate improvements: %w", err)
	}
	return out, nil
}

// ListFeedback returns feedback annotations for one algorithm.
func (s *Store) ListFeedback(ctx context.Context, algorithmID int64) ([]lineage.Feedback, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, algorithm_id, version_id, feedback_text, COALESCE(rating, 0), created_at
		 FROM feedback WHERE algorithm_id = ? ORDER BY id`,
		algorithmID,
	)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []lineage.Feedback
	for rows.Next() {
		var fb lineage.Feedback
		if err := rows.Scan(&fb.ID, &fb.AlgorithmID, &fb.VersionID, &fb.Text, &fb.Rating, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}

// ListCategories enumerates the category vocabulary.
func (s *Store) ListCategories(ctx context.Context) ([]lineage.Category, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.queryCategories(
		ctx,
		`SELECT id, name, COALESCE(description, ''), created_at
		 FROM algorithm_categories ORDER BY id`,
	)
}

// CategoriesFor returns the categories mapped to one algorithm.
func (s *Store) CategoriesFor(ctx context.Context, algorithmID int64) ([]lineage.Category, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.queryCategories(
		ctx,
		`SELECT c.id, c.name, COALESCE(c.description, ''), c.created_at
		 FROM algorithm_categories c
		 JOIN algorithm_category_mapping m ON c.id = m.category_id
		 WHERE m.algorithm_id = ? ORDER BY c.id`,
		algorithmID,
	)
}

func (s *Store) queryCategories(ctx context.Context, query string, args ...any) ([]lineage.Category, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []lineage.Category
	for rows.Next() {
		var c lineage.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// ExportMetrics flattens all recorded metrics into the export record shape
// consumed by reporting tools.
func (s *Store) ExportMetrics(ctx context.Context) ([]lineage.ExportRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT a.id, a.name, av.id, av.version_number,
		        pm.input_size, pm.execution_time_ms, COALESCE(pm.memory_usage_kb, 0)
		 FROM performance_metrics pm
		 JOIN algorithm_versions av ON pm.version_id = av.id
		 JOIN algorithms a ON av.algorithm_id = a.id
		 ORDER BY a.name, av.version_number, pm.input_size, pm.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query export metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []lineage.ExportRecord
	for rows.Next() {
		var rec lineage.ExportRecord
		if err := rows.Scan(
			&rec.AlgorithmID,
			&rec.AlgorithmName,
			&rec.VersionID,
			&rec.VersionNumber,
			&rec.InputSize,
			&rec.ExecutionTimeMS,
			&rec.MemoryUsageKB,
		); err != nil {
			return nil, fmt.Errorf("scan export record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export records: %w", err)
	}
	return out, nil
}

// AddImprovement records a lineage edge between two versions.
func (s *Store) AddImprovement(ctx context.Context, imp lineage.Improvement) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if imp.AlgorithmID <= 0 || imp.OldVersionID <= 0 || imp.NewVersionID <= 0 {
		return 0, fmt.Errorf("algorithm and version ids are required")
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO improvements (algorithm_id, old_version_id, new_version_id, improvement_note)
		 VALUES (?, ?, ?, ?)`,
		imp.AlgorithmID,
		imp.OldVersionID,
		imp.NewVersionID,
		strings.TrimSpace(imp.Note),
	)
	if err != nil {
		return 0, fmt.Errorf("insert improvement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("improvement id: %w", err)
	}
	return id, nil
}

// AddFeedback records one feedback annotation.
func (s *Store) AddFeedback(ctx context.Context, fb lineage.Feedback) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if fb.AlgorithmID <= 0 || fb.VersionID <= 0 {
		return 0, fmt.Errorf("algorithm and version ids are required")
	}
	if strings.TrimSpace(fb.Text) == "" {
		return 0, fmt.Errorf("feedback text is required")
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO feedback (algorithm_id, version_id, feedback_text, rating)
		 VALUES (?, ?, ?, ?)`,
		fb.AlgorithmID,
		fb.VersionID,
		strings.TrimSpace(fb.Text),
		fb.Rating,
	)
	if err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("feedback id: %w", err)
	}
	return id, nil
}

// AddCategory registers one category row.
func (s *Store) AddCategory(ctx context.Context, name, description string) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("category name is required")
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO algorithm_categories (name, description) VALUES (?, ?)`,
		name,
		strings.TrimSpace(description),
	)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category id: %w", err)
	}
	return id, nil
}

// MapCategory tags an algorithm with a category. Re-mapping is a no-op.
func (s *Store) MapCategory(ctx context.Context, algorithmID, categoryID int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if algorithmID <= 0 || categoryID <= 0 {
		return fmt.Errorf("algorithm and category ids are required")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO algorithm_category_mapping (algorithm_id, category_id)
		 VALUES (?, ?)`,
		algorithmID,
		categoryID,
	)
	if err != nil {
		return fmt.Errorf("insert category mapping: %w", err)
	}
	return nil
}
