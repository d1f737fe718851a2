package core

import (
	"context"
	"fmt"

	"curriculumcore/pkg/domain"
)

// NewHierarchyIntegrityRule returns the blocking rule that keeps the
// tab/dropdown/table tree consistent and the reserved order range to system
// tabs.
func NewHierarchyIntegrityRule() domain.Rule {
	return hierarchyIntegrityRule{}
}

type hierarchyIntegrityRule struct{}

func (hierarchyIntegrityRule) Name() string { return "hierarchy_integrity" }

func (r hierarchyIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touchesNavigation(changes) {
		return res, nil
	}
	block := func(entity domain.EntityType, id int64, format string, args ...any) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf(format, args...),
			Entity:   entity,
			EntityID: id,
		})
	}

	for _, tab := range view.ListNavigationTabs() {
		if !tab.IsAdmin() && tab.Order >= domain.ReservedOrderFloor {
			block(domain.EntityNavigationTab, tab.ID, "navigation tab %q uses reserved order %d", tab.Name, tab.Order)
		}
	}
	for _, item := range view.ListDropdownItems() {
		if _, ok := view.FindNavigationTab(item.TabID); !ok {
			block(domain.EntityDropdownItem, item.ID, "dropdown item %q references missing tab %d", item.Name, item.TabID)
		}
	}
	for _, cfg := range view.ListTableConfigs() {
		item, ok := view.FindDropdownItem(cfg.DropdownID)
		switch {
		case !ok:
			block(domain.EntityTableConfig, cfg.ID, "table config %q references missing dropdown item %d", cfg.TableName, cfg.DropdownID)
		case item.TabID != cfg.TabID:
			block(domain.EntityTableConfig, cfg.ID, "table config %q is under tab %d but its dropdown item belongs to tab %d", cfg.TableName, cfg.TabID, item.TabID)
		}
	}
	return res, nil
}

func touchesNavigation(changes []domain.Change) bool {
	for _, c := range changes {
		switch c.Entity {
		case domain.EntityNavigationTab, domain.EntityDropdownItem, domain.EntityTableConfig:
			return true
		}
	}
	return false
}
