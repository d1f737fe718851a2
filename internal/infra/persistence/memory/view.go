package memory

// transactionView exposes a read-only snapshot of the transactional state.
// List methods return records ordered by id.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListNavigationTabs returns all tabs within the snapshot.
func (v transactionView) ListNavigationTabs() []NavigationTab {
	out := make([]NavigationTab, 0, len(v.state.tabs))
	for _, id := range sortedKeys(v.state.tabs) {
		out = append(out, v.state.tabs[id])
	}
	return out
}

// ListDropdownItems returns all dropdown items.
func (v transactionView) ListDropdownItems() []DropdownItem {
	out := make([]DropdownItem, 0, len(v.state.dropdowns))
	for _, id := range sortedKeys(v.state.dropdowns) {
		out = append(out, v.state.dropdowns[id])
	}
	return out
}

// ListTableConfigs returns all table configs.
func (v transactionView) ListTableConfigs() []TableConfig {
	out := make([]TableConfig, 0, len(v.state.configs))
	for _, id := range sortedKeys(v.state.configs) {
		out = append(out, v.state.configs[id])
	}
	return out
}

// ListCurriculumRows returns all curriculum rows.
func (v transactionView) ListCurriculumRows() []CurriculumRow {
	out := make([]CurriculumRow, 0, len(v.state.rows))
	for _, id := range sortedKeys(v.state.rows) {
		out = append(out, cloneRow(v.state.rows[id]))
	}
	return out
}

// ListStandards returns all standards.
func (v transactionView) ListStandards() []Standard {
	out := make([]Standard, 0, len(v.state.standards))
	for _, id := range sortedKeys(v.state.standards) {
		out = append(out, v.state.standards[id])
	}
	return out
}

// FindNavigationTab retrieves a tab by id.
func (v transactionView) FindNavigationTab(id int64) (NavigationTab, bool) {
	tab, ok := v.state.tabs[id]
	return tab, ok
}

// FindNavigationTabByName retrieves a tab by its unique name.
func (v transactionView) FindNavigationTabByName(name string) (NavigationTab, bool) {
	return v.state.tabByName(name)
}

// FindDropdownItem retrieves a dropdown item by id.
func (v transactionView) FindDropdownItem(id int64) (DropdownItem, bool) {
	item, ok := v.state.dropdowns[id]
	return item, ok
}

// FindTableConfig retrieves a table config by id.
func (v transactionView) FindTableConfig(id int64) (TableConfig, bool) {
	cfg, ok := v.state.configs[id]
	return cfg, ok
}

// FindCurriculumRow retrieves a curriculum row by id.
func (v transactionView) FindCurriculumRow(id int64) (CurriculumRow, bool) {
	row, ok := v.state.rows[id]
	if !ok {
		return CurriculumRow{}, false
	}
	return cloneRow(row), true
}

// FindStandard retrieves a standard by id.
func (v transactionView) FindStandard(id int64) (Standard, bool) {
	std, ok := v.state.standards[id]
	return std, ok
}

// FindStandardByCode retrieves a standard by its unique code.
func (v transactionView) FindStandardByCode(code string) (Standard, bool) {
	return v.state.standardByCode(code)
}

// DropdownItemsForTab returns the dropdown items owned by tabID.
func (v transactionView) DropdownItemsForTab(tabID int64) []DropdownItem {
	var out []DropdownItem
	for _, id := range sortedKeys(v.state.dropdowns) {
		if item := v.state.dropdowns[id]; item.TabID == tabID {
			out = append(out, item)
		}
	}
	return out
}

// TableConfigsForDropdown returns the table configs owned by dropdownID.
func (v transactionView) TableConfigsForDropdown(dropdownID int64) []TableConfig {
	var out []TableConfig
	for _, id := range sortedKeys(v.state.configs) {
		if cfg := v.state.configs[id]; cfg.DropdownID == dropdownID {
			out = append(out, cfg)
		}
	}
	return out
}

// TableConfigsNamed returns every table config using tableName.
func (v transactionView) TableConfigsNamed(tableName string) []TableConfig {
	ids := sortedIDs(v.state.configsByTable[tableName])
	out := make([]TableConfig, 0, len(ids))
	for _, id := range ids {
		out = append(out, v.state.configs[id])
	}
	return out
}

// CurriculumRowsForTable returns every row referencing tableName.
func (v transactionView) CurriculumRowsForTable(tableName string) []CurriculumRow {
	ids := sortedIDs(v.state.rowsByTable[tableName])
	out := make([]CurriculumRow, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneRow(v.state.rows[id]))
	}
	return out
}

// SchoolYear returns the school year singleton.
func (v transactionView) SchoolYear() (SchoolYear, bool) {
	if v.state.schoolYear == nil {
		return SchoolYear{}, false
	}
	return *v.state.schoolYear, true
}
