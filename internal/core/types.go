package core

import "curriculumcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	NavigationTab      = domain.NavigationTab
	DropdownItem       = domain.DropdownItem
	TableConfig        = domain.TableConfig
	CurriculumRow      = domain.CurriculumRow
	Standard           = domain.Standard
	SchoolYear         = domain.SchoolYear
	Snapshot           = domain.Snapshot
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityNavigationTab = domain.EntityNavigationTab
	EntityDropdownItem  = domain.EntityDropdownItem
	EntityTableConfig   = domain.EntityTableConfig
	EntityCurriculumRow = domain.EntityCurriculumRow
	EntityStandard      = domain.EntityStandard
	EntitySchoolYear    = domain.EntitySchoolYear
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// CascadeResult reports how many records a cascading delete removed.
type CascadeResult struct {
	RowsDeleted          int `json:"rowsDeleted"`
	TableConfigsDeleted  int `json:"tableConfigsDeleted"`
	DropdownItemsDeleted int `json:"dropdownItemsDeleted"`
}

// CurriculumRowFilter narrows ListCurriculumRows. Empty fields match everything.
type CurriculumRowFilter struct {
	Grade     string
	Subject   string
	TableName string
}

func (f CurriculumRowFilter) matches(row CurriculumRow) bool {
	if f.Grade != "" && row.Grade != f.Grade {
		return false
	}
	if f.Subject != "" && row.Subject != f.Subject {
		return false
	}
	if f.TableName != "" && row.TableName != f.TableName {
		return false
	}
	return true
}
