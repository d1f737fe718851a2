package domain

import "time"

// SnapshotVersion identifies the export document layout.
const SnapshotVersion = "2.0"

// Snapshot is the canonical full-dataset interchange document. Navigation
// arrays and the school year are optional on import; a nil slice (absent or
// null in JSON) leaves the corresponding records untouched.
type Snapshot struct {
	CurriculumRows []CurriculumRow  `json:"curriculumRows"`
	Standards      []Standard       `json:"standards"`
	NavigationTabs []NavigationTab  `json:"navigationTabs"`
	DropdownItems  []DropdownItem   `json:"dropdownItems"`
	TableConfigs   []TableConfig    `json:"tableConfigs"`
	SchoolYear     *SchoolYear      `json:"schoolYear,omitempty"`
	Metadata       SnapshotMetadata `json:"metadata"`
}

// SnapshotMetadata carries declared counts that must match the arrays.
type SnapshotMetadata struct {
	ExportDate             time.Time `json:"exportDate"`
	Version                string    `json:"version"`
	TotalCurriculumEntries int       `json:"totalCurriculumEntries"`
	TotalStandards         int       `json:"totalStandards"`
	TotalNavigationTabs    *int      `json:"totalNavigationTabs,omitempty"`
	TotalDropdownItems     *int      `json:"totalDropdownItems,omitempty"`
	TotalTableConfigs      *int      `json:"totalTableConfigs,omitempty"`
}

// HasNavigation reports whether any navigation array was supplied.
func (s Snapshot) HasNavigation() bool {
	return s.NavigationTabs != nil || s.DropdownItems != nil || s.TableConfigs != nil
}

// NewSnapshotMetadata computes metadata counts for the supplied arrays.
func NewSnapshotMetadata(s Snapshot, exportedAt time.Time) SnapshotMetadata {
	meta := SnapshotMetadata{
		ExportDate:             exportedAt,
		Version:                SnapshotVersion,
		TotalCurriculumEntries: len(s.CurriculumRows),
		TotalStandards:         len(s.Standards),
	}
	if s.NavigationTabs != nil {
		n := len(s.NavigationTabs)
		meta.TotalNavigationTabs = &n
	}
	if s.DropdownItems != nil {
		n := len(s.DropdownItems)
		meta.TotalDropdownItems = &n
	}
	if s.TableConfigs != nil {
		n := len(s.TableConfigs)
		meta.TotalTableConfigs = &n
	}
	return meta
}
