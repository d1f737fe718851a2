package domain

// NavigationTabPatch carries an optional value per mutable tab field. Nil
// fields are left untouched.
type NavigationTabPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=200"`
	Order       *int    `json:"order,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NavigationTabPatch) Empty() bool {
	return p.Name == nil && p.DisplayName == nil && p.Order == nil && p.IsActive == nil
}

// Apply copies every supplied field onto tab.
func (p NavigationTabPatch) Apply(tab *NavigationTab) {
	if p.Name != nil {
		tab.Name = *p.Name
	}
	if p.DisplayName != nil {
		tab.DisplayName = *p.DisplayName
	}
	if p.Order != nil {
		tab.Order = *p.Order
	}
	if p.IsActive != nil {
		tab.IsActive = *p.IsActive
	}
}

// DropdownItemPatch carries optional dropdown item field updates.
type DropdownItemPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=200"`
	Order       *int    `json:"order,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Apply copies every supplied field onto item.
func (p DropdownItemPatch) Apply(item *DropdownItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.DisplayName != nil {
		item.DisplayName = *p.DisplayName
	}
	if p.Order != nil {
		item.Order = *p.Order
	}
	if p.IsActive != nil {
		item.IsActive = *p.IsActive
	}
}

// TableConfigPatch carries optional table config field updates. Ownership
// (tab and dropdown) is fixed at creation.
type TableConfigPatch struct {
	TableName   *string `json:"tableName,omitempty" validate:"omitempty,min=1,max=100"`
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=200"`
	Order       *int    `json:"order,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Apply copies every supplied field onto cfg.
func (p TableConfigPatch) Apply(cfg *TableConfig) {
	if p.TableName != nil {
		cfg.TableName = *p.TableName
	}
	if p.DisplayName != nil {
		cfg.DisplayName = *p.DisplayName
	}
	if p.Order != nil {
		cfg.Order = *p.Order
	}
	if p.IsActive != nil {
		cfg.IsActive = *p.IsActive
	}
}

// CurriculumRowPatch carries optional curriculum row field updates.
type CurriculumRowPatch struct {
	Grade                       *string   `json:"grade,omitempty" validate:"omitempty,min=1"`
	Subject                     *string   `json:"subject,omitempty" validate:"omitempty,min=1"`
	TableName                   *string   `json:"tableName,omitempty"`
	Objectives                  *string   `json:"objectives,omitempty"`
	UnitPacing                  *string   `json:"unitPacing,omitempty"`
	Assessments                 *string   `json:"assessments,omitempty"`
	MaterialsAndDifferentiation *string   `json:"materialsAndDifferentiation,omitempty"`
	Biblical                    *string   `json:"biblical,omitempty"`
	Materials                   *string   `json:"materials,omitempty"`
	Differentiator              *string   `json:"differentiator,omitempty"`
	Standards                   *[]string `json:"standards,omitempty"`
}

// Apply copies every supplied field onto row.
func (p CurriculumRowPatch) Apply(row *CurriculumRow) {
	setString(&row.Grade, p.Grade)
	setString(&row.Subject, p.Subject)
	setString(&row.TableName, p.TableName)
	setString(&row.Objectives, p.Objectives)
	setString(&row.UnitPacing, p.UnitPacing)
	setString(&row.Assessments, p.Assessments)
	setString(&row.MaterialsAndDifferentiation, p.MaterialsAndDifferentiation)
	setString(&row.Biblical, p.Biblical)
	setString(&row.Materials, p.Materials)
	setString(&row.Differentiator, p.Differentiator)
	if p.Standards != nil {
		row.Standards = NormalizeStandards(*p.Standards)
	}
}

// StandardPatch carries optional standard field updates.
type StandardPatch struct {
	Code        *string `json:"code,omitempty" validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty" validate:"omitempty,min=1"`
}

// Apply copies every supplied field onto std.
func (p StandardPatch) Apply(std *Standard) {
	setString(&std.Code, p.Code)
	setString(&std.Description, p.Description)
	setString(&std.Category, p.Category)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
