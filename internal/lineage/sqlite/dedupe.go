package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"algobench/internal/lineage"
)

// DeduplicateByName reconciles duplicate algorithm names. For each name with
// more than one row it keeps the lowest id and cascade-deletes every other
// row's versions, metrics, improvements, feedback and category mappings. The
// whole operation runs in a single transaction.
func (s *Store) DeduplicateByName(ctx context.Context) ([]lineage.DedupeResult, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin dedupe transaction: %w", err)
	}
	results, err := dedupeInTx(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit dedupe transaction: %w", err)
	}
	return results, nil
}

func dedupeInTx(ctx context.Context, tx *sql.Tx) ([]lineage.DedupeResult, error) {
	names, err := duplicatedNames(ctx, tx)
	if err != nil {
		return nil, err
	}

	var results []lineage.DedupeResult
	for _, name := range names {
		ids, err := algorithmIDsByName(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		if len(ids) < 2 {
			continue
		}
		result := lineage.DedupeResult{Name: name, KeptID: ids[0]}
		for _, deleteID := range ids[1:] {
			if err := cascadeDeleteAlgorithm(ctx, tx, deleteID); err != nil {
				return nil, fmt.Errorf("delete algorithm %d (%q): %w", deleteID, name, err)
			}
			result.DeletedIDs = append(result.DeletedIDs, deleteID)
		}
		results = append(results, result)
	}
	return results, nil
}

func duplicatedNames(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(
		ctx,
		`SELECT name FROM algorithms GROUP BY name HAVING COUNT(*) > 1 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query duplicate names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan duplicate name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duplicate names: %w", err)
	}
	return names, nil
}

func algorithmIDsByName(ctx context.Context, tx *sql.Tx, name string) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM algorithms WHERE name = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("query ids for %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id for %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids for %q: %w", name, err)
	}
	return ids, nil
}

// cascadeDeleteAlgorithm removes one algorithm and everything that references
// it. Cascading is an application responsibility, not delegated to the
// storage engine.
func cascadeDeleteAlgorithm(ctx context.Context, tx *sql.Tx, algorithmID int64) error {
	statements := []string{
		`DELETE FROM performance_metrics WHERE version_id IN
		   (SELECT id FROM algorithm_versions WHERE algorithm_id = ?)`,
		`DELETE FROM algorithm_versions WHERE algorithm_id = ?`,
		`DELETE FROM improvements WHERE algorithm_id = ?`,
		`DELETE FROM feedback WHERE algorithm_id = ?`,
		`DELETE FROM algorithm_category_mapping WHERE algorithm_id = ?`,
		`DELETE FROM algorithms WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, algorithmID); err != nil {
			return err
		}
	}
	return nil
}
