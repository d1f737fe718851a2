package core

import "curriculumcore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewHierarchyIntegrityRule())
	engine.Register(NewOrphanedRowsRule())
	return engine
}
