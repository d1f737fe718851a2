package core

import (
	"context"

	"curriculumcore/pkg/domain"
)

// orphanedRows lists rows whose non-empty tableName matches no table config.
// Rows without a tableName predate table configs and are never orphans.
func orphanedRows(view domain.TransactionView) []CurriculumRow {
	var out []CurriculumRow
	for _, row := range view.ListCurriculumRows() {
		if row.TableName == "" {
			continue
		}
		if len(view.TableConfigsNamed(row.TableName)) == 0 {
			out = append(out, row)
		}
	}
	return out
}

// FindOrphanedRows reports orphaned rows without removing them.
func (s *Service) FindOrphanedRows(ctx context.Context) ([]CurriculumRow, error) {
	var rows []CurriculumRow
	err := s.view(ctx, "find_orphaned_rows", func(v domain.TransactionView) error {
		rows = orphanedRows(v)
		return nil
	})
	return rows, err
}

// CleanupOrphanedRows deletes every orphaned row and returns how many were
// removed. Running it again without intervening writes removes nothing.
func (s *Service) CleanupOrphanedRows(ctx context.Context) (int, Result, error) {
	var removed int
	res, err := s.run(ctx, "cleanup_orphaned_rows", nil, func(tx domain.Transaction) error {
		removed = 0
		for _, row := range orphanedRows(tx.Snapshot()) {
			if err := tx.DeleteCurriculumRow(row.ID); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, res, err
	}
	if removed > 0 {
		s.logger.Info("orphaned curriculum rows removed", "count", removed)
	}
	return removed, res, nil
}
