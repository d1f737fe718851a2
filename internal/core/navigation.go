package core

import (
	"context"
	"strings"

	"curriculumcore/pkg/domain"
)

// NewNavigationTab is the input for CreateTab. DisplayName defaults to Name.
type NewNavigationTab struct {
	Name        string `json:"name" validate:"required,max=100"`
	DisplayName string `json:"displayName" validate:"max=200"`
	Order       int    `json:"order" validate:"gte=0"`
}

// NewDropdownItem is the input for CreateDropdownItem.
type NewDropdownItem struct {
	TabID       int64  `json:"tabId" validate:"required"`
	Name        string `json:"name" validate:"required,max=100"`
	DisplayName string `json:"displayName" validate:"max=200"`
	Order       int    `json:"order" validate:"gte=0"`
}

// NewTableConfig is the input for CreateTableConfig.
type NewTableConfig struct {
	TabID       int64  `json:"tabId" validate:"required"`
	DropdownID  int64  `json:"dropdownId" validate:"required"`
	TableName   string `json:"tableName" validate:"required,max=100"`
	DisplayName string `json:"displayName" validate:"max=200"`
	Order       int    `json:"order" validate:"gte=0"`
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func protectedAdmin(tab NavigationTab, reason string) error {
	return domain.ProtectedEntityError{Entity: EntityNavigationTab, ID: tab.ID, Name: tab.Name, Reason: reason}
}

// CreateTab adds an ordinary navigation tab. The Admin name and orders in
// the reserved range are rejected.
func (s *Service) CreateTab(ctx context.Context, in NewNavigationTab) (NavigationTab, Result, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return NavigationTab{}, Result{}, err
	}
	if in.Name == domain.AdminTabName {
		return NavigationTab{}, Result{}, protectedAdmin(NavigationTab{Name: in.Name}, "the Admin tab is system-managed")
	}
	if err := checkUserOrder(in.Order); err != nil {
		return NavigationTab{}, Result{}, err
	}
	var created NavigationTab
	res, err := s.run(ctx, "create_navigation_tab", &created.ID, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateNavigationTab(NavigationTab{
			Name:        in.Name,
			DisplayName: orDefault(in.DisplayName, in.Name),
			Order:       in.Order,
			IsActive:    true,
		})
		return err
	})
	return created, res, err
}

// UpdateTab applies patch to an ordinary tab.
func (s *Service) UpdateTab(ctx context.Context, id int64, patch domain.NavigationTabPatch) (NavigationTab, Result, error) {
	var updated NavigationTab
	entityID := id
	res, err := s.run(ctx, "update_navigation_tab", &entityID, func(tx domain.Transaction) error {
		current, ok := tx.Snapshot().FindNavigationTab(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityNavigationTab, ID: id}
		}
		if current.IsAdmin() {
			return protectedAdmin(current, "the Admin tab cannot be modified")
		}
		if err := validateInput(patch); err != nil {
			return err
		}
		if patch.Name != nil && strings.TrimSpace(*patch.Name) == domain.AdminTabName {
			return protectedAdmin(current, "the Admin name is reserved")
		}
		if patch.Order != nil {
			if err := checkUserOrder(*patch.Order); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.UpdateNavigationTab(id, func(tab *NavigationTab) error {
			patch.Apply(tab)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteTab removes an ordinary tab and everything beneath it in one
// transaction: rows of each owned table, the tables, the dropdown items and
// finally the tab.
func (s *Service) DeleteTab(ctx context.Context, id int64) (CascadeResult, Result, error) {
	var out CascadeResult
	entityID := id
	res, err := s.run(ctx, "delete_navigation_tab", &entityID, func(tx domain.Transaction) error {
		out = CascadeResult{}
		view := tx.Snapshot()
		tab, ok := view.FindNavigationTab(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityNavigationTab, ID: id}
		}
		if tab.IsAdmin() {
			return protectedAdmin(tab, "the Admin tab cannot be deleted")
		}
		for _, item := range view.DropdownItemsForTab(id) {
			if err := cascadeDropdownItem(tx, item, &out); err != nil {
				return err
			}
		}
		return tx.DeleteNavigationTab(id)
	})
	if err != nil {
		return CascadeResult{}, res, err
	}
	s.logger.Info("navigation tab deleted", "tab_id", id,
		"rows", out.RowsDeleted, "table_configs", out.TableConfigsDeleted, "dropdown_items", out.DropdownItemsDeleted)
	return out, res, nil
}

// cascadeDropdownItem deletes item and its descendants inside tx.
func cascadeDropdownItem(tx domain.Transaction, item DropdownItem, out *CascadeResult) error {
	configs := tx.Snapshot().TableConfigsForDropdown(item.ID)
	for _, cfg := range configs {
		out.RowsDeleted += tx.DeleteCurriculumRowsByTable(cfg.TableName)
	}
	for _, cfg := range configs {
		if err := tx.DeleteTableConfig(cfg.ID); err != nil {
			return err
		}
		out.TableConfigsDeleted++
	}
	if err := tx.DeleteDropdownItem(item.ID); err != nil {
		return err
	}
	out.DropdownItemsDeleted++
	return nil
}

// GetTab returns a single tab.
func (s *Service) GetTab(ctx context.Context, id int64) (NavigationTab, error) {
	var tab NavigationTab
	err := s.view(ctx, "get_navigation_tab", func(v domain.TransactionView) error {
		var ok bool
		if tab, ok = v.FindNavigationTab(id); !ok {
			return domain.NotFoundError{Entity: EntityNavigationTab, ID: id}
		}
		return nil
	})
	return tab, err
}

// ListTabs returns every tab in display order.
func (s *Service) ListTabs(ctx context.Context) ([]NavigationTab, error) {
	var tabs []NavigationTab
	err := s.view(ctx, "list_navigation_tabs", func(v domain.TransactionView) error {
		tabs = v.ListNavigationTabs()
		return nil
	})
	domain.SortTabs(tabs)
	return tabs, err
}

// GetActiveTabs returns active tabs ordered by order with Admin forced last.
func (s *Service) GetActiveTabs(ctx context.Context) ([]NavigationTab, error) {
	var tabs []NavigationTab
	err := s.view(ctx, "get_active_tabs", func(v domain.TransactionView) error {
		for _, tab := range v.ListNavigationTabs() {
			if tab.IsActive {
				tabs = append(tabs, tab)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	domain.SortTabs(tabs)
	return tabs, nil
}

// EnsureAdminTab creates the system-managed Admin tab when it is missing.
func (s *Service) EnsureAdminTab(ctx context.Context) (NavigationTab, error) {
	if tab, found, err := s.findTabByName(ctx, domain.AdminTabName); err != nil || found {
		return tab, err
	}
	var admin NavigationTab
	_, err := s.run(ctx, "ensure_admin_tab", &admin.ID, func(tx domain.Transaction) error {
		if existing, ok := tx.Snapshot().FindNavigationTabByName(domain.AdminTabName); ok {
			admin = existing
			return nil
		}
		var err error
		admin, err = tx.CreateNavigationTab(NavigationTab{
			Name:        domain.AdminTabName,
			DisplayName: domain.AdminTabName,
			Order:       domain.ReservedOrderFloor,
			IsActive:    true,
		})
		return err
	})
	return admin, err
}

func (s *Service) findTabByName(ctx context.Context, name string) (NavigationTab, bool, error) {
	var (
		tab   NavigationTab
		found bool
	)
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		tab, found = v.FindNavigationTabByName(name)
		return nil
	})
	return tab, found, err
}

// CreateDropdownItem adds a subject under an existing tab. Names are unique
// within a tab.
func (s *Service) CreateDropdownItem(ctx context.Context, in NewDropdownItem) (DropdownItem, Result, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return DropdownItem{}, Result{}, err
	}
	var created DropdownItem
	res, err := s.run(ctx, "create_dropdown_item", &created.ID, func(tx domain.Transaction) error {
		view := tx.Snapshot()
		if _, ok := view.FindNavigationTab(in.TabID); !ok {
			return domain.NotFoundError{Entity: EntityNavigationTab, ID: in.TabID}
		}
		if err := checkDropdownNameFree(view, in.TabID, in.Name, 0); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateDropdownItem(DropdownItem{
			TabID:       in.TabID,
			Name:        in.Name,
			DisplayName: orDefault(in.DisplayName, in.Name),
			Order:       in.Order,
			IsActive:    true,
		})
		return err
	})
	return created, res, err
}

func checkDropdownNameFree(view domain.TransactionView, tabID int64, name string, self int64) error {
	for _, item := range view.DropdownItemsForTab(tabID) {
		if item.Name == name && item.ID != self {
			return domain.NewValidationError("name", "dropdown item %q already exists in tab %d (id %d)", name, tabID, item.ID)
		}
	}
	return nil
}

// UpdateDropdownItem applies patch to a dropdown item.
func (s *Service) UpdateDropdownItem(ctx context.Context, id int64, patch domain.DropdownItemPatch) (DropdownItem, Result, error) {
	if err := validateInput(patch); err != nil {
		return DropdownItem{}, Result{}, err
	}
	var updated DropdownItem
	entityID := id
	res, err := s.run(ctx, "update_dropdown_item", &entityID, func(tx domain.Transaction) error {
		view := tx.Snapshot()
		current, ok := view.FindDropdownItem(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityDropdownItem, ID: id}
		}
		if patch.Name != nil {
			if err := checkDropdownNameFree(view, current.TabID, strings.TrimSpace(*patch.Name), id); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.UpdateDropdownItem(id, func(item *DropdownItem) error {
			patch.Apply(item)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteDropdownItem removes a dropdown item, its table configs and their rows.
func (s *Service) DeleteDropdownItem(ctx context.Context, id int64) (CascadeResult, Result, error) {
	var out CascadeResult
	entityID := id
	res, err := s.run(ctx, "delete_dropdown_item", &entityID, func(tx domain.Transaction) error {
		out = CascadeResult{}
		item, ok := tx.Snapshot().FindDropdownItem(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityDropdownItem, ID: id}
		}
		return cascadeDropdownItem(tx, item, &out)
	})
	if err != nil {
		return CascadeResult{}, res, err
	}
	return out, res, nil
}

// ListDropdownItems returns the items of a tab ordered by order then id.
func (s *Service) ListDropdownItems(ctx context.Context, tabID int64) ([]DropdownItem, error) {
	var items []DropdownItem
	err := s.view(ctx, "list_dropdown_items", func(v domain.TransactionView) error {
		if _, ok := v.FindNavigationTab(tabID); !ok {
			return domain.NotFoundError{Entity: EntityNavigationTab, ID: tabID}
		}
		items = v.DropdownItemsForTab(tabID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	domain.SortDropdownItems(items)
	return items, nil
}

// CreateTableConfig adds a table under a dropdown item and then, as a
// separate best-effort step, seeds one empty curriculum row for it. A
// seeding failure is logged and does not undo the table.
func (s *Service) CreateTableConfig(ctx context.Context, in NewTableConfig) (TableConfig, Result, error) {
	in.TableName = strings.TrimSpace(in.TableName)
	if err := validateInput(in); err != nil {
		return TableConfig{}, Result{}, err
	}
	var created TableConfig
	res, err := s.run(ctx, "create_table_config", &created.ID, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTableConfig(TableConfig{
			TabID:       in.TabID,
			DropdownID:  in.DropdownID,
			TableName:   in.TableName,
			DisplayName: orDefault(in.DisplayName, in.TableName),
			Order:       in.Order,
			IsActive:    true,
		})
		return err
	})
	if err != nil {
		return TableConfig{}, res, err
	}
	if _, seedErr := s.seedTableRow(ctx, created); seedErr != nil {
		s.logger.Warn("table config seed row skipped", "table_config_id", created.ID, "table_name", created.TableName, "error", seedErr)
	}
	return created, res, nil
}

// seedTableRow creates the sample row for cfg. It refuses to add a second
// row for the same grade, subject and table.
func (s *Service) seedTableRow(ctx context.Context, cfg TableConfig) (CurriculumRow, error) {
	var seeded CurriculumRow
	_, err := s.run(ctx, "seed_curriculum_row", &seeded.ID, func(tx domain.Transaction) error {
		view := tx.Snapshot()
		tab, ok := view.FindNavigationTab(cfg.TabID)
		if !ok {
			return domain.NotFoundError{Entity: EntityNavigationTab, ID: cfg.TabID}
		}
		item, ok := view.FindDropdownItem(cfg.DropdownID)
		if !ok {
			return domain.NotFoundError{Entity: EntityDropdownItem, ID: cfg.DropdownID}
		}
		for _, row := range view.CurriculumRowsForTable(cfg.TableName) {
			if row.Grade == tab.Name && row.Subject == item.Name {
				return domain.NewValidationError("tableName", "table %q already has a row for %s/%s (id %d)", cfg.TableName, tab.Name, item.Name, row.ID)
			}
		}
		var err error
		seeded, err = tx.CreateCurriculumRow(CurriculumRow{
			Grade:     tab.Name,
			Subject:   item.Name,
			TableName: cfg.TableName,
			Standards: []string{},
		})
		return err
	})
	return seeded, err
}

// UpdateTableConfig applies patch to a table config. Renaming the table
// re-points rows that used the old name unless another config still owns it.
func (s *Service) UpdateTableConfig(ctx context.Context, id int64, patch domain.TableConfigPatch) (TableConfig, Result, error) {
	if err := validateInput(patch); err != nil {
		return TableConfig{}, Result{}, err
	}
	var updated TableConfig
	entityID := id
	res, err := s.run(ctx, "update_table_config", &entityID, func(tx domain.Transaction) error {
		view := tx.Snapshot()
		current, ok := view.FindTableConfig(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityTableConfig, ID: id}
		}
		var err error
		updated, err = tx.UpdateTableConfig(id, func(cfg *TableConfig) error {
			patch.Apply(cfg)
			return nil
		})
		if err != nil {
			return err
		}
		if updated.TableName == current.TableName || len(tx.Snapshot().TableConfigsNamed(current.TableName)) > 0 {
			return nil
		}
		for _, row := range view.CurriculumRowsForTable(current.TableName) {
			if _, err := tx.UpdateCurriculumRow(row.ID, func(r *CurriculumRow) error {
				r.TableName = updated.TableName
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return updated, res, err
}

// DeleteTableConfig removes the rows of a table and then the table itself.
// It reports false when the table did not exist.
func (s *Service) DeleteTableConfig(ctx context.Context, id int64) (bool, Result, error) {
	var found bool
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		_, found = v.FindTableConfig(id)
		return nil
	})
	if err != nil || !found {
		return false, Result{}, err
	}
	var rows int
	entityID := id
	res, err := s.run(ctx, "delete_table_config", &entityID, func(tx domain.Transaction) error {
		cfg, ok := tx.Snapshot().FindTableConfig(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityTableConfig, ID: id}
		}
		rows = tx.DeleteCurriculumRowsByTable(cfg.TableName)
		return tx.DeleteTableConfig(id)
	})
	if domain.KindOf(err) == domain.KindNotFound {
		return false, res, nil
	}
	if err != nil {
		return false, res, err
	}
	s.logger.Info("table config deleted", "table_config_id", id, "rows", rows)
	return true, res, nil
}

// ListTableConfigs returns the tables of a dropdown item ordered by order then id.
func (s *Service) ListTableConfigs(ctx context.Context, dropdownID int64) ([]TableConfig, error) {
	var configs []TableConfig
	err := s.view(ctx, "list_table_configs", func(v domain.TransactionView) error {
		if _, ok := v.FindDropdownItem(dropdownID); !ok {
			return domain.NotFoundError{Entity: EntityDropdownItem, ID: dropdownID}
		}
		configs = v.TableConfigsForDropdown(dropdownID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	domain.SortTableConfigs(configs)
	return configs, nil
}
