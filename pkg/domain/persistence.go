package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Create methods honour a non-zero ID so
// snapshots can be restored verbatim; a zero ID is assigned by the store.
type Transaction interface {
	Snapshot() TransactionView
	CreateNavigationTab(NavigationTab) (NavigationTab, error)
	UpdateNavigationTab(id int64, mutator func(*NavigationTab) error) (NavigationTab, error)
	DeleteNavigationTab(id int64) error
	CreateDropdownItem(DropdownItem) (DropdownItem, error)
	UpdateDropdownItem(id int64, mutator func(*DropdownItem) error) (DropdownItem, error)
	DeleteDropdownItem(id int64) error
	CreateTableConfig(TableConfig) (TableConfig, error)
	UpdateTableConfig(id int64, mutator func(*TableConfig) error) (TableConfig, error)
	DeleteTableConfig(id int64) error
	CreateCurriculumRow(CurriculumRow) (CurriculumRow, error)
	UpdateCurriculumRow(id int64, mutator func(*CurriculumRow) error) (CurriculumRow, error)
	DeleteCurriculumRow(id int64) error
	// DeleteCurriculumRowsByTable removes every row whose tableName equals
	// tableName and returns how many were removed.
	DeleteCurriculumRowsByTable(tableName string) int
	CreateStandard(Standard) (Standard, error)
	UpdateStandard(id int64, mutator func(*Standard) error) (Standard, error)
	DeleteStandard(id int64) error
	PutSchoolYear(SchoolYear) (SchoolYear, error)
	// Truncate removes every record of the given entity type and returns the
	// number removed. The school year singleton cannot be truncated.
	Truncate(entity EntityType) (int, error)
}

// TransactionView provides read-only access to snapshot data for rules and
// service reads.
type TransactionView interface {
	ListNavigationTabs() []NavigationTab
	ListDropdownItems() []DropdownItem
	ListTableConfigs() []TableConfig
	ListCurriculumRows() []CurriculumRow
	ListStandards() []Standard
	FindNavigationTab(id int64) (NavigationTab, bool)
	FindNavigationTabByName(name string) (NavigationTab, bool)
	FindDropdownItem(id int64) (DropdownItem, bool)
	FindTableConfig(id int64) (TableConfig, bool)
	FindCurriculumRow(id int64) (CurriculumRow, bool)
	FindStandard(id int64) (Standard, bool)
	FindStandardByCode(code string) (Standard, bool)
	DropdownItemsForTab(tabID int64) []DropdownItem
	TableConfigsForDropdown(dropdownID int64) []TableConfig
	TableConfigsNamed(tableName string) []TableConfig
	CurriculumRowsForTable(tableName string) []CurriculumRow
	SchoolYear() (SchoolYear, bool)
}

// PersistentStore is a minimal abstraction over durable backends.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Close() error
}
