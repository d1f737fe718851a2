// Package memory provides an in-memory implementation of the core persistence
// store used for tests, ephemeral environments, and as the transactional
// engine beneath the durable backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"curriculumcore/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// NavigationTab aliases domain.NavigationTab for in-memory persistence operations.
	NavigationTab = domain.NavigationTab
	// DropdownItem aliases domain.DropdownItem.
	DropdownItem = domain.DropdownItem
	// TableConfig aliases domain.TableConfig.
	TableConfig = domain.TableConfig
	// CurriculumRow aliases domain.CurriculumRow.
	CurriculumRow = domain.CurriculumRow
	// Standard aliases domain.Standard.
	Standard = domain.Standard
	// SchoolYear aliases domain.SchoolYear.
	SchoolYear = domain.SchoolYear
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// CommitHook receives the candidate state of a transaction after rules pass
// and before it becomes visible. Returning an error aborts the commit.
type CommitHook func(ctx context.Context, next Snapshot) error

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithCommitHook installs a hook that durable backends use to persist state
// before it is swapped in.
func WithCommitHook(hook CommitHook) Option {
	return func(s *Store) { s.commitHook = hook }
}

// Store provides an in-memory transactional store for the curriculum domain.
type Store struct {
	mu         sync.RWMutex
	state      memoryState
	engine     *RulesEngine
	nowFn      func() time.Time
	commitHook CommitHook
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = newMemoryState()
	year := domain.DefaultSchoolYear(s.nowFn())
	s.state.schoolYear = &year
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := memoryStateFromSnapshot(snapshot)
	if state.schoolYear == nil {
		year := domain.DefaultSchoolYear(s.nowFn())
		state.schoolYear = &year
	}
	s.state = state
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// Close satisfies domain.PersistentStore; the memory store holds no resources.
func (s *Store) Close() error { return nil }

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the live state only if fn, the rules engine and the commit
// hook all succeed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.commitHook != nil {
		if err := s.commitHook(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, domain.IntegrityError{Op: "commit", Err: err}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	view := newTransactionView(&snapshot)
	return fn(view)
}

// transaction represents a mutation set applied to a cloned store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) stamp(created, updated *time.Time) {
	if created.IsZero() {
		*created = tx.now
	}
	if updated.IsZero() {
		*updated = tx.now
	}
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateNavigationTab stores a new navigation tab.
func (tx *transaction) CreateNavigationTab(t NavigationTab) (NavigationTab, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return NavigationTab{}, domain.NewValidationError("name", "required")
	}
	if existing, ok := tx.state.tabByName(t.Name); ok {
		return NavigationTab{}, domain.NewValidationError("name", "navigation tab %q already exists (id %d)", t.Name, existing.ID)
	}
	id, err := tx.state.claimID(domain.EntityNavigationTab, t.ID, func(id int64) bool {
		_, taken := tx.state.tabs[id]
		return taken
	})
	if err != nil {
		return NavigationTab{}, err
	}
	t.ID = id
	tx.stamp(&t.CreatedAt, &t.UpdatedAt)
	tx.state.tabs[t.ID] = t
	tx.recordChange(Change{Entity: domain.EntityNavigationTab, Action: domain.ActionCreate, After: t})
	return t, nil
}

// UpdateNavigationTab mutates an existing tab using the provided mutator.
func (tx *transaction) UpdateNavigationTab(id int64, mutator func(*NavigationTab) error) (NavigationTab, error) {
	current, ok := tx.state.tabs[id]
	if !ok {
		return NavigationTab{}, domain.NotFoundError{Entity: domain.EntityNavigationTab, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return NavigationTab{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.Name = strings.TrimSpace(current.Name)
	if current.Name == "" {
		return NavigationTab{}, domain.NewValidationError("name", "required")
	}
	if current.Name != before.Name {
		if existing, ok := tx.state.tabByName(current.Name); ok && existing.ID != id {
			return NavigationTab{}, domain.NewValidationError("name", "navigation tab %q already exists (id %d)", current.Name, existing.ID)
		}
	}
	current.UpdatedAt = tx.now
	tx.state.tabs[id] = current
	tx.recordChange(Change{Entity: domain.EntityNavigationTab, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteNavigationTab removes a tab that no longer owns dropdown items.
func (tx *transaction) DeleteNavigationTab(id int64) error {
	current, ok := tx.state.tabs[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityNavigationTab, ID: id}
	}
	for _, item := range tx.state.dropdowns {
		if item.TabID == id {
			return domain.IntegrityError{
				Op:  "delete navigation_tab",
				Err: fmt.Errorf("navigation tab %d still referenced by dropdown item %d", id, item.ID),
			}
		}
	}
	delete(tx.state.tabs, id)
	tx.recordChange(Change{Entity: domain.EntityNavigationTab, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateDropdownItem stores a subject entry under an existing tab.
func (tx *transaction) CreateDropdownItem(d DropdownItem) (DropdownItem, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return DropdownItem{}, domain.NewValidationError("name", "required")
	}
	if _, ok := tx.state.tabs[d.TabID]; !ok {
		return DropdownItem{}, domain.NotFoundError{Entity: domain.EntityNavigationTab, ID: d.TabID}
	}
	id, err := tx.state.claimID(domain.EntityDropdownItem, d.ID, func(id int64) bool {
		_, taken := tx.state.dropdowns[id]
		return taken
	})
	if err != nil {
		return DropdownItem{}, err
	}
	d.ID = id
	tx.stamp(&d.CreatedAt, &d.UpdatedAt)
	tx.state.dropdowns[d.ID] = d
	tx.recordChange(Change{Entity: domain.EntityDropdownItem, Action: domain.ActionCreate, After: d})
	return d, nil
}

// UpdateDropdownItem mutates a dropdown item. Ownership cannot change.
func (tx *transaction) UpdateDropdownItem(id int64, mutator func(*DropdownItem) error) (DropdownItem, error) {
	current, ok := tx.state.dropdowns[id]
	if !ok {
		return DropdownItem{}, domain.NotFoundError{Entity: domain.EntityDropdownItem, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return DropdownItem{}, err
	}
	current.ID = id
	current.TabID = before.TabID
	current.CreatedAt = before.CreatedAt
	current.Name = strings.TrimSpace(current.Name)
	if current.Name == "" {
		return DropdownItem{}, domain.NewValidationError("name", "required")
	}
	current.UpdatedAt = tx.now
	tx.state.dropdowns[id] = current
	tx.recordChange(Change{Entity: domain.EntityDropdownItem, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteDropdownItem removes a dropdown item that no longer owns table configs.
func (tx *transaction) DeleteDropdownItem(id int64) error {
	current, ok := tx.state.dropdowns[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityDropdownItem, ID: id}
	}
	for _, cfg := range tx.state.configs {
		if cfg.DropdownID == id {
			return domain.IntegrityError{
				Op:  "delete dropdown_item",
				Err: fmt.Errorf("dropdown item %d still referenced by table config %d", id, cfg.ID),
			}
		}
	}
	delete(tx.state.dropdowns, id)
	tx.recordChange(Change{Entity: domain.EntityDropdownItem, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateTableConfig stores a table config under an existing dropdown item.
func (tx *transaction) CreateTableConfig(c TableConfig) (TableConfig, error) {
	c.TableName = strings.TrimSpace(c.TableName)
	if c.TableName == "" {
		return TableConfig{}, domain.NewValidationError("tableName", "required")
	}
	if _, ok := tx.state.tabs[c.TabID]; !ok {
		return TableConfig{}, domain.NotFoundError{Entity: domain.EntityNavigationTab, ID: c.TabID}
	}
	dropdown, ok := tx.state.dropdowns[c.DropdownID]
	if !ok {
		return TableConfig{}, domain.NotFoundError{Entity: domain.EntityDropdownItem, ID: c.DropdownID}
	}
	if dropdown.TabID != c.TabID {
		return TableConfig{}, domain.NewValidationError("dropdownId", "dropdown item %d belongs to tab %d, not %d", dropdown.ID, dropdown.TabID, c.TabID)
	}
	if existing, ok := tx.state.configInDropdown(c.DropdownID, c.TableName); ok {
		return TableConfig{}, domain.NewValidationError("tableName", "table %q already exists in dropdown item %d (id %d)", c.TableName, c.DropdownID, existing.ID)
	}
	id, err := tx.state.claimID(domain.EntityTableConfig, c.ID, func(id int64) bool {
		_, taken := tx.state.configs[id]
		return taken
	})
	if err != nil {
		return TableConfig{}, err
	}
	c.ID = id
	tx.stamp(&c.CreatedAt, &c.UpdatedAt)
	tx.state.putConfig(c)
	tx.recordChange(Change{Entity: domain.EntityTableConfig, Action: domain.ActionCreate, After: c})
	return c, nil
}

// UpdateTableConfig mutates a table config. Ownership cannot change.
func (tx *transaction) UpdateTableConfig(id int64, mutator func(*TableConfig) error) (TableConfig, error) {
	current, ok := tx.state.configs[id]
	if !ok {
		return TableConfig{}, domain.NotFoundError{Entity: domain.EntityTableConfig, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return TableConfig{}, err
	}
	current.ID = id
	current.TabID = before.TabID
	current.DropdownID = before.DropdownID
	current.CreatedAt = before.CreatedAt
	current.TableName = strings.TrimSpace(current.TableName)
	if current.TableName == "" {
		return TableConfig{}, domain.NewValidationError("tableName", "required")
	}
	if current.TableName != before.TableName {
		if existing, ok := tx.state.configInDropdown(current.DropdownID, current.TableName); ok && existing.ID != id {
			return TableConfig{}, domain.NewValidationError("tableName", "table %q already exists in dropdown item %d (id %d)", current.TableName, current.DropdownID, existing.ID)
		}
	}
	current.UpdatedAt = tx.now
	tx.state.removeConfig(before)
	tx.state.putConfig(current)
	tx.recordChange(Change{Entity: domain.EntityTableConfig, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteTableConfig removes a table config. Rows that referenced it by name
// are left in place; callers delete them explicitly.
func (tx *transaction) DeleteTableConfig(id int64) error {
	current, ok := tx.state.configs[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityTableConfig, ID: id}
	}
	tx.state.removeConfig(current)
	tx.recordChange(Change{Entity: domain.EntityTableConfig, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateCurriculumRow stores a curriculum row.
func (tx *transaction) CreateCurriculumRow(r CurriculumRow) (CurriculumRow, error) {
	if err := validateRow(r); err != nil {
		return CurriculumRow{}, err
	}
	id, err := tx.state.claimID(domain.EntityCurriculumRow, r.ID, func(id int64) bool {
		_, taken := tx.state.rows[id]
		return taken
	})
	if err != nil {
		return CurriculumRow{}, err
	}
	r.ID = id
	r.Standards = domain.NormalizeStandards(r.Standards)
	tx.state.putRow(r)
	tx.recordChange(Change{Entity: domain.EntityCurriculumRow, Action: domain.ActionCreate, After: cloneRow(r)})
	return cloneRow(r), nil
}

// UpdateCurriculumRow mutates a curriculum row.
func (tx *transaction) UpdateCurriculumRow(id int64, mutator func(*CurriculumRow) error) (CurriculumRow, error) {
	stored, ok := tx.state.rows[id]
	if !ok {
		return CurriculumRow{}, domain.NotFoundError{Entity: domain.EntityCurriculumRow, ID: id}
	}
	before := cloneRow(stored)
	current := cloneRow(stored)
	if err := mutator(&current); err != nil {
		return CurriculumRow{}, err
	}
	current.ID = id
	if err := validateRow(current); err != nil {
		return CurriculumRow{}, err
	}
	current.Standards = domain.NormalizeStandards(current.Standards)
	tx.state.removeRow(stored)
	tx.state.putRow(current)
	tx.recordChange(Change{Entity: domain.EntityCurriculumRow, Action: domain.ActionUpdate, Before: before, After: cloneRow(current)})
	return cloneRow(current), nil
}

// DeleteCurriculumRow removes a curriculum row.
func (tx *transaction) DeleteCurriculumRow(id int64) error {
	current, ok := tx.state.rows[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityCurriculumRow, ID: id}
	}
	tx.state.removeRow(current)
	tx.recordChange(Change{Entity: domain.EntityCurriculumRow, Action: domain.ActionDelete, Before: cloneRow(current)})
	return nil
}

// DeleteCurriculumRowsByTable removes every row referencing tableName. Rows
// without a tableName are never matched.
func (tx *transaction) DeleteCurriculumRowsByTable(tableName string) int {
	if tableName == "" {
		return 0
	}
	ids := sortedIDs(tx.state.rowsByTable[tableName])
	for _, id := range ids {
		row := tx.state.rows[id]
		tx.state.removeRow(row)
		tx.recordChange(Change{Entity: domain.EntityCurriculumRow, Action: domain.ActionDelete, Before: cloneRow(row)})
	}
	return len(ids)
}

// CreateStandard stores a standard with a globally unique code.
func (tx *transaction) CreateStandard(std Standard) (Standard, error) {
	std.Code = strings.TrimSpace(std.Code)
	if err := validateStandard(std); err != nil {
		return Standard{}, err
	}
	if existing, ok := tx.state.standardByCode(std.Code); ok {
		return Standard{}, domain.NewValidationError("code", "standard %q already exists (id %d)", std.Code, existing.ID)
	}
	id, err := tx.state.claimID(domain.EntityStandard, std.ID, func(id int64) bool {
		_, taken := tx.state.standards[id]
		return taken
	})
	if err != nil {
		return Standard{}, err
	}
	std.ID = id
	tx.state.standards[std.ID] = std
	tx.recordChange(Change{Entity: domain.EntityStandard, Action: domain.ActionCreate, After: std})
	return std, nil
}

// UpdateStandard mutates a standard.
func (tx *transaction) UpdateStandard(id int64, mutator func(*Standard) error) (Standard, error) {
	current, ok := tx.state.standards[id]
	if !ok {
		return Standard{}, domain.NotFoundError{Entity: domain.EntityStandard, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Standard{}, err
	}
	current.ID = id
	current.Code = strings.TrimSpace(current.Code)
	if err := validateStandard(current); err != nil {
		return Standard{}, err
	}
	if current.Code != before.Code {
		if existing, ok := tx.state.standardByCode(current.Code); ok && existing.ID != id {
			return Standard{}, domain.NewValidationError("code", "standard %q already exists (id %d)", current.Code, existing.ID)
		}
	}
	tx.state.standards[id] = current
	tx.recordChange(Change{Entity: domain.EntityStandard, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteStandard removes a standard. Curriculum rows keep any codes they hold.
func (tx *transaction) DeleteStandard(id int64) error {
	current, ok := tx.state.standards[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityStandard, ID: id}
	}
	delete(tx.state.standards, id)
	tx.recordChange(Change{Entity: domain.EntityStandard, Action: domain.ActionDelete, Before: current})
	return nil
}

// PutSchoolYear replaces the school year singleton.
func (tx *transaction) PutSchoolYear(year SchoolYear) (SchoolYear, error) {
	year.Year = strings.TrimSpace(year.Year)
	if year.Year == "" {
		return SchoolYear{}, domain.NewValidationError("year", "required")
	}
	year.ID = domain.SchoolYearID
	if year.UpdatedAt.IsZero() {
		year.UpdatedAt = tx.now
	}
	change := Change{Entity: domain.EntitySchoolYear, Action: domain.ActionCreate, After: year}
	if tx.state.schoolYear != nil {
		change.Action = domain.ActionUpdate
		change.Before = *tx.state.schoolYear
	}
	tx.state.schoolYear = &year
	tx.recordChange(change)
	return year, nil
}

// Truncate removes every record of entity. Owners cannot be truncated while
// dependants still reference them.
func (tx *transaction) Truncate(entity domain.EntityType) (int, error) {
	switch entity {
	case domain.EntityCurriculumRow:
		n := len(tx.state.rows)
		for _, id := range sortedKeys(tx.state.rows) {
			tx.recordChange(Change{Entity: entity, Action: domain.ActionDelete, Before: cloneRow(tx.state.rows[id])})
		}
		tx.state.rows = make(map[int64]CurriculumRow)
		tx.state.rowsByTable = make(map[string]map[int64]struct{})
		return n, nil
	case domain.EntityStandard:
		n := len(tx.state.standards)
		for _, id := range sortedKeys(tx.state.standards) {
			tx.recordChange(Change{Entity: entity, Action: domain.ActionDelete, Before: tx.state.standards[id]})
		}
		tx.state.standards = make(map[int64]Standard)
		return n, nil
	case domain.EntityTableConfig:
		n := len(tx.state.configs)
		for _, id := range sortedKeys(tx.state.configs) {
			tx.recordChange(Change{Entity: entity, Action: domain.ActionDelete, Before: tx.state.configs[id]})
		}
		tx.state.configs = make(map[int64]TableConfig)
		tx.state.configsByTable = make(map[string]map[int64]struct{})
		return n, nil
	case domain.EntityDropdownItem:
		if len(tx.state.configs) > 0 {
			return 0, domain.IntegrityError{Op: "truncate dropdown_item", Err: fmt.Errorf("%d table configs still reference dropdown items", len(tx.state.configs))}
		}
		n := len(tx.state.dropdowns)
		for _, id := range sortedKeys(tx.state.dropdowns) {
			tx.recordChange(Change{Entity: entity, Action: domain.ActionDelete, Before: tx.state.dropdowns[id]})
		}
		tx.state.dropdowns = make(map[int64]DropdownItem)
		return n, nil
	case domain.EntityNavigationTab:
		if len(tx.state.dropdowns) > 0 {
			return 0, domain.IntegrityError{Op: "truncate navigation_tab", Err: fmt.Errorf("%d dropdown items still reference navigation tabs", len(tx.state.dropdowns))}
		}
		n := len(tx.state.tabs)
		for _, id := range sortedKeys(tx.state.tabs) {
			tx.recordChange(Change{Entity: entity, Action: domain.ActionDelete, Before: tx.state.tabs[id]})
		}
		tx.state.tabs = make(map[int64]NavigationTab)
		return n, nil
	default:
		return 0, fmt.Errorf("truncate unsupported for %s", entity)
	}
}

func validateRow(r CurriculumRow) error {
	if strings.TrimSpace(r.Grade) == "" {
		return domain.NewValidationError("grade", "required")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return domain.NewValidationError("subject", "required")
	}
	return nil
}

func validateStandard(std Standard) error {
	if std.Code == "" {
		return domain.NewValidationError("code", "required")
	}
	if strings.TrimSpace(std.Category) == "" {
		return domain.NewValidationError("category", "required")
	}
	return nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedIDs(set map[int64]struct{}) []int64 {
	return sortedKeys(set)
}
