// Package domain defines the curriculum entities, value types, and rule
// evaluation primitives used by curriculumcore.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityNavigationTab identifies a top-level navigation tab (grade or Admin).
	EntityNavigationTab EntityType = "navigation_tab"
	// EntityDropdownItem identifies a subject entry nested under a tab.
	EntityDropdownItem EntityType = "dropdown_item"
	// EntityTableConfig identifies a displayable table of curriculum rows.
	EntityTableConfig EntityType = "table_config"
	// EntityCurriculumRow identifies a unit/lesson-level curriculum record.
	EntityCurriculumRow EntityType = "curriculum_row"
	// EntityStandard identifies a standards reference entry.
	EntityStandard EntityType = "standard"
	// EntitySchoolYear identifies the school year singleton.
	EntitySchoolYear EntityType = "school_year"
)

const (
	// AdminTabName is the reserved, system-managed navigation tab.
	AdminTabName = "Admin"
	// ReservedOrderFloor is the first order value reserved for system tabs.
	ReservedOrderFloor = 100
	// SchoolYearID is the fixed identifier of the school year singleton.
	SchoolYearID int64 = 1
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// NavigationTab is a grade-level tab or the reserved Admin tab.
type NavigationTab struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the tab is the system-managed Admin tab.
func (t NavigationTab) IsAdmin() bool { return t.Name == AdminTabName }

// DropdownItem is a subject entry owned by exactly one NavigationTab.
type DropdownItem struct {
	ID          int64     `json:"id"`
	TabID       int64     `json:"tabId"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableConfig is a named table of curriculum rows owned by a DropdownItem.
// Rows reference it through TableName rather than by id.
type TableConfig struct {
	ID          int64     `json:"id"`
	TabID       int64     `json:"tabId"`
	DropdownID  int64     `json:"dropdownId"`
	TableName   string    `json:"tableName"`
	DisplayName string    `json:"displayName"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CurriculumRow is one unit/lesson-level record of instructional content.
type CurriculumRow struct {
	ID                          int64    `json:"id"`
	Grade                       string   `json:"grade"`
	Subject                     string   `json:"subject"`
	TableName                   string   `json:"tableName"`
	Objectives                  string   `json:"objectives"`
	UnitPacing                  string   `json:"unitPacing"`
	Assessments                 string   `json:"assessments"`
	MaterialsAndDifferentiation string   `json:"materialsAndDifferentiation"`
	Biblical                    string   `json:"biblical"`
	Materials                   string   `json:"materials"`
	Differentiator              string   `json:"differentiator"`
	Standards                   []string `json:"standards"`
}

// Standard is an independent standards reference entry.
type Standard struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// SchoolYear is the singleton describing the active school year.
type SchoolYear struct {
	ID        int64     `json:"id"`
	Year      string    `json:"year"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultSchoolYear derives the academic year label for the supplied instant.
// Academic years roll over in July.
func DefaultSchoolYear(now time.Time) SchoolYear {
	start := now.Year()
	if now.Month() < time.July {
		start--
	}
	return SchoolYear{
		ID:        SchoolYearID,
		Year:      formatYearRange(start),
		UpdatedAt: now,
	}
}

func formatYearRange(start int) string {
	return fmt.Sprintf("%d-%d", start, start+1)
}

// NormalizeStandards trims, dedupes and drops empty codes while keeping the
// first-seen order, giving the set semantics curriculum rows require.
func NormalizeStandards(codes []string) []string {
	if len(codes) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

// SortTabs orders tabs Admin-last, then by order, then by id. Ids are
// assigned monotonically so the final key preserves insertion order.
func SortTabs(tabs []NavigationTab) {
	sort.SliceStable(tabs, func(i, j int) bool {
		a, b := tabs[i], tabs[j]
		if a.IsAdmin() != b.IsAdmin() {
			return !a.IsAdmin()
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
}

// SortDropdownItems orders dropdown items by order then id.
func SortDropdownItems(items []DropdownItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].ID < items[j].ID
	})
}

// SortTableConfigs orders table configs by order then id.
func SortTableConfigs(configs []TableConfig) {
	sort.SliceStable(configs, func(i, j int) bool {
		if configs[i].Order != configs[j].Order {
			return configs[i].Order < configs[j].Order
		}
		return configs[i].ID < configs[j].ID
	})
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID int64
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transaction blocked by rules: " + v.Message
		}
	}
	return "transaction blocked by rules"
}
