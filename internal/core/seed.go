package core

import (
	"context"
	"fmt"
	"strings"
)

// NavigationSeed describes a navigation hierarchy to create, typically read
// from a YAML seed file.
type NavigationSeed struct {
	Admin bool      `json:"admin" yaml:"admin"`
	Tabs  []TabSeed `json:"tabs" yaml:"tabs"`
}

// TabSeed is a navigation tab and the subjects listed under it.
type TabSeed struct {
	Name        string        `json:"name" yaml:"name"`
	DisplayName string        `json:"displayName" yaml:"displayName"`
	Order       int           `json:"order" yaml:"order"`
	Subjects    []SubjectSeed `json:"subjects" yaml:"subjects"`
}

// SubjectSeed becomes a dropdown item of its tab.
type SubjectSeed struct {
	Name        string      `json:"name" yaml:"name"`
	DisplayName string      `json:"displayName" yaml:"displayName"`
	Order       int         `json:"order" yaml:"order"`
	Tables      []TableSeed `json:"tables" yaml:"tables"`
}

// TableSeed becomes a table config under its subject's dropdown item.
type TableSeed struct {
	TableName   string `json:"tableName" yaml:"tableName"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Order       int    `json:"order" yaml:"order"`
}

// SeedResult counts records created by SeedNavigation.
type SeedResult struct {
	TabsCreated          int `json:"tabsCreated"`
	DropdownItemsCreated int `json:"dropdownItemsCreated"`
	TableConfigsCreated  int `json:"tableConfigsCreated"`
}

// SeedNavigation creates the hierarchy in seed, reusing tabs, dropdown items
// and tables that already exist by name. Each record is created through the
// regular service operation, so table configs also seed their first row.
// It stops at the first failure; records created before it are kept.
func (s *Service) SeedNavigation(ctx context.Context, seed NavigationSeed) (SeedResult, error) {
	var out SeedResult
	if seed.Admin {
		if _, err := s.EnsureAdminTab(ctx); err != nil {
			return out, err
		}
	}
	for _, ts := range seed.Tabs {
		name := strings.TrimSpace(ts.Name)
		tab, found, err := s.findTabByName(ctx, name)
		if err != nil {
			return out, err
		}
		if !found {
			tab, _, err = s.CreateTab(ctx, NewNavigationTab{Name: name, DisplayName: ts.DisplayName, Order: ts.Order})
			if err != nil {
				return out, fmt.Errorf("seed tab %q: %w", name, err)
			}
			out.TabsCreated++
		}

		items, err := s.ListDropdownItems(ctx, tab.ID)
		if err != nil {
			return out, err
		}
		for _, ss := range ts.Subjects {
			subject := strings.TrimSpace(ss.Name)
			item, ok := findByName(items, subject, func(i DropdownItem) string { return i.Name })
			if !ok {
				item, _, err = s.CreateDropdownItem(ctx, NewDropdownItem{TabID: tab.ID, Name: subject, DisplayName: ss.DisplayName, Order: ss.Order})
				if err != nil {
					return out, fmt.Errorf("seed subject %q in tab %q: %w", subject, name, err)
				}
				out.DropdownItemsCreated++
			}

			configs, err := s.ListTableConfigs(ctx, item.ID)
			if err != nil {
				return out, err
			}
			for _, tbl := range ss.Tables {
				table := strings.TrimSpace(tbl.TableName)
				if _, ok := findByName(configs, table, func(c TableConfig) string { return c.TableName }); ok {
					continue
				}
				if _, _, err := s.CreateTableConfig(ctx, NewTableConfig{
					TabID: tab.ID, DropdownID: item.ID, TableName: table,
					DisplayName: tbl.DisplayName, Order: tbl.Order,
				}); err != nil {
					return out, fmt.Errorf("seed table %q under %s/%s: %w", table, name, subject, err)
				}
				out.TableConfigsCreated++
			}
		}
	}
	s.logger.Info("navigation seeded",
		"tabs", out.TabsCreated, "dropdown_items", out.DropdownItemsCreated, "table_configs", out.TableConfigsCreated)
	return out, nil
}

func findByName[T any](items []T, name string, key func(T) string) (T, bool) {
	for _, item := range items {
		if key(item) == name {
			return item, true
		}
	}
	var zero T
	return zero, false
}
