package core

import (
	"context"
	"fmt"
	"sort"

	"curriculumcore/pkg/domain"
)

// NewOrphanedRowsRule returns the warning rule that reports curriculum rows
// left without a table config. Orphans are tolerated and repaired by
// CleanupOrphanedRows.
func NewOrphanedRowsRule() domain.Rule {
	return orphanedRowsRule{}
}

type orphanedRowsRule struct{}

func (orphanedRowsRule) Name() string { return "orphaned_rows" }

func (r orphanedRowsRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	relevant := false
	for _, c := range changes {
		if c.Entity == domain.EntityCurriculumRow || c.Entity == domain.EntityTableConfig {
			relevant = true
			break
		}
	}
	if !relevant {
		return res, nil
	}

	byTable := make(map[string][]int64)
	for _, row := range orphanedRows(view) {
		byTable[row.TableName] = append(byTable[row.TableName], row.ID)
	}
	tables := make([]string, 0, len(byTable))
	for name := range byTable {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	for _, name := range tables {
		ids := byTable[name]
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("%d curriculum rows reference missing table %q", len(ids), name),
			Entity:   domain.EntityCurriculumRow,
			EntityID: ids[0],
		})
	}
	return res, nil
}
