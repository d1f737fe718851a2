package memory

import (
	"curriculumcore/pkg/domain"
)

type memoryState struct {
	tabs       map[int64]NavigationTab
	dropdowns  map[int64]DropdownItem
	configs    map[int64]TableConfig
	rows       map[int64]CurriculumRow
	standards  map[int64]Standard
	schoolYear *SchoolYear
	lastID     map[domain.EntityType]int64

	// tableName -> ids; maintained alongside configs and rows so the soft
	// reference between them resolves without scanning.
	configsByTable map[string]map[int64]struct{}
	rowsByTable    map[string]map[int64]struct{}
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	NavigationTabs map[int64]NavigationTab     `json:"navigation_tabs"`
	DropdownItems  map[int64]DropdownItem      `json:"dropdown_items"`
	TableConfigs   map[int64]TableConfig       `json:"table_configs"`
	CurriculumRows map[int64]CurriculumRow     `json:"curriculum_rows"`
	Standards      map[int64]Standard          `json:"standards"`
	SchoolYear     *SchoolYear                 `json:"school_year,omitempty"`
	Sequences      map[domain.EntityType]int64 `json:"sequences"`
}

func newMemoryState() memoryState {
	return memoryState{
		tabs:           make(map[int64]NavigationTab),
		dropdowns:      make(map[int64]DropdownItem),
		configs:        make(map[int64]TableConfig),
		rows:           make(map[int64]CurriculumRow),
		standards:      make(map[int64]Standard),
		lastID:         make(map[domain.EntityType]int64),
		configsByTable: make(map[string]map[int64]struct{}),
		rowsByTable:    make(map[string]map[int64]struct{}),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.tabs {
		cloned.tabs[k] = v
	}
	for k, v := range s.dropdowns {
		cloned.dropdowns[k] = v
	}
	for k, v := range s.configs {
		cloned.configs[k] = v
	}
	for k, v := range s.rows {
		cloned.rows[k] = cloneRow(v)
	}
	for k, v := range s.standards {
		cloned.standards[k] = v
	}
	for k, v := range s.lastID {
		cloned.lastID[k] = v
	}
	if s.schoolYear != nil {
		year := *s.schoolYear
		cloned.schoolYear = &year
	}
	cloned.configsByTable = cloneIndex(s.configsByTable)
	cloned.rowsByTable = cloneIndex(s.rowsByTable)
	return cloned
}

func cloneIndex(in map[string]map[int64]struct{}) map[string]map[int64]struct{} {
	out := make(map[string]map[int64]struct{}, len(in))
	for name, ids := range in {
		set := make(map[int64]struct{}, len(ids))
		for id := range ids {
			set[id] = struct{}{}
		}
		out[name] = set
	}
	return out
}

func cloneRow(r CurriculumRow) CurriculumRow {
	cp := r
	cp.Standards = append([]string{}, r.Standards...)
	return cp
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		NavigationTabs: make(map[int64]NavigationTab, len(state.tabs)),
		DropdownItems:  make(map[int64]DropdownItem, len(state.dropdowns)),
		TableConfigs:   make(map[int64]TableConfig, len(state.configs)),
		CurriculumRows: make(map[int64]CurriculumRow, len(state.rows)),
		Standards:      make(map[int64]Standard, len(state.standards)),
		Sequences:      make(map[domain.EntityType]int64, len(state.lastID)),
	}
	for k, v := range state.tabs {
		s.NavigationTabs[k] = v
	}
	for k, v := range state.dropdowns {
		s.DropdownItems[k] = v
	}
	for k, v := range state.configs {
		s.TableConfigs[k] = v
	}
	for k, v := range state.rows {
		s.CurriculumRows[k] = cloneRow(v)
	}
	for k, v := range state.standards {
		s.Standards[k] = v
	}
	for k, v := range state.lastID {
		s.Sequences[k] = v
	}
	if state.schoolYear != nil {
		year := *state.schoolYear
		s.SchoolYear = &year
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.NavigationTabs {
		state.tabs[k] = v
		state.bump(domain.EntityNavigationTab, k)
	}
	for k, v := range s.DropdownItems {
		state.dropdowns[k] = v
		state.bump(domain.EntityDropdownItem, k)
	}
	for k, v := range s.TableConfigs {
		state.putConfig(v)
		state.bump(domain.EntityTableConfig, k)
	}
	for k, v := range s.CurriculumRows {
		row := cloneRow(v)
		row.ID = k
		state.putRow(row)
		state.bump(domain.EntityCurriculumRow, k)
	}
	for k, v := range s.Standards {
		state.standards[k] = v
		state.bump(domain.EntityStandard, k)
	}
	for entity, last := range s.Sequences {
		state.bump(entity, last)
	}
	if s.SchoolYear != nil {
		year := *s.SchoolYear
		state.schoolYear = &year
	}
	return state
}

func (s *memoryState) bump(entity domain.EntityType, id int64) {
	if id > s.lastID[entity] {
		s.lastID[entity] = id
	}
}

// claimID returns requested when non-zero and free, otherwise the next id in
// the entity's sequence. Ids are never reused within a store's lifetime.
func (s *memoryState) claimID(entity domain.EntityType, requested int64, taken func(int64) bool) (int64, error) {
	if requested < 0 {
		return 0, domain.NewValidationError("id", "must be positive, got %d", requested)
	}
	if requested > 0 {
		if taken(requested) {
			return 0, domain.NewValidationError("id", "%s %d already exists", entity, requested)
		}
		s.bump(entity, requested)
		return requested, nil
	}
	next := s.lastID[entity] + 1
	for taken(next) {
		next++
	}
	s.lastID[entity] = next
	return next, nil
}

func (s *memoryState) tabByName(name string) (NavigationTab, bool) {
	for _, tab := range s.tabs {
		if tab.Name == name {
			return tab, true
		}
	}
	return NavigationTab{}, false
}

func (s *memoryState) standardByCode(code string) (Standard, bool) {
	for _, std := range s.standards {
		if std.Code == code {
			return std, true
		}
	}
	return Standard{}, false
}

func (s *memoryState) configInDropdown(dropdownID int64, tableName string) (TableConfig, bool) {
	for id := range s.configsByTable[tableName] {
		if cfg := s.configs[id]; cfg.DropdownID == dropdownID {
			return cfg, true
		}
	}
	return TableConfig{}, false
}

func (s *memoryState) putConfig(cfg TableConfig) {
	s.configs[cfg.ID] = cfg
	addToIndex(s.configsByTable, cfg.TableName, cfg.ID)
}

func (s *memoryState) removeConfig(cfg TableConfig) {
	delete(s.configs, cfg.ID)
	removeFromIndex(s.configsByTable, cfg.TableName, cfg.ID)
}

func (s *memoryState) putRow(row CurriculumRow) {
	s.rows[row.ID] = row
	if row.TableName != "" {
		addToIndex(s.rowsByTable, row.TableName, row.ID)
	}
}

func (s *memoryState) removeRow(row CurriculumRow) {
	delete(s.rows, row.ID)
	removeFromIndex(s.rowsByTable, row.TableName, row.ID)
}

func addToIndex(index map[string]map[int64]struct{}, key string, id int64) {
	set, ok := index[key]
	if !ok {
		set = make(map[int64]struct{})
		index[key] = set
	}
	set[id] = struct{}{}
}

func removeFromIndex(index map[string]map[int64]struct{}, key string, id int64) {
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(index, key)
	}
}
