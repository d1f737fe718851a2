package core

import (
	"context"
	"sort"
	"strings"

	"curriculumcore/pkg/domain"
)

// NewCurriculumRow is the input for CreateCurriculumRow. Standards codes are
// soft references and are not checked against the standards table.
type NewCurriculumRow struct {
	Grade                       string   `json:"grade" validate:"required"`
	Subject                     string   `json:"subject" validate:"required"`
	TableName                   string   `json:"tableName" validate:"max=100"`
	Objectives                  string   `json:"objectives"`
	UnitPacing                  string   `json:"unitPacing"`
	Assessments                 string   `json:"assessments"`
	MaterialsAndDifferentiation string   `json:"materialsAndDifferentiation"`
	Biblical                    string   `json:"biblical"`
	Materials                   string   `json:"materials"`
	Differentiator              string   `json:"differentiator"`
	Standards                   []string `json:"standards"`
}

// NewStandard is the input for CreateStandard.
type NewStandard struct {
	Code        string `json:"code" validate:"required,max=64"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required,max=100"`
}

type schoolYearInput struct {
	Year string `json:"year" validate:"required,schoolyear"`
}

// CreateCurriculumRow stores a new curriculum row.
func (s *Service) CreateCurriculumRow(ctx context.Context, in NewCurriculumRow) (CurriculumRow, Result, error) {
	in.Grade = strings.TrimSpace(in.Grade)
	in.Subject = strings.TrimSpace(in.Subject)
	in.TableName = strings.TrimSpace(in.TableName)
	if err := validateInput(in); err != nil {
		return CurriculumRow{}, Result{}, err
	}
	var created CurriculumRow
	res, err := s.run(ctx, "create_curriculum_row", &created.ID, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateCurriculumRow(CurriculumRow{
			Grade:                       in.Grade,
			Subject:                     in.Subject,
			TableName:                   in.TableName,
			Objectives:                  in.Objectives,
			UnitPacing:                  in.UnitPacing,
			Assessments:                 in.Assessments,
			MaterialsAndDifferentiation: in.MaterialsAndDifferentiation,
			Biblical:                    in.Biblical,
			Materials:                   in.Materials,
			Differentiator:              in.Differentiator,
			Standards:                   in.Standards,
		})
		return err
	})
	return created, res, err
}

// GetCurriculumRow returns a single row.
func (s *Service) GetCurriculumRow(ctx context.Context, id int64) (CurriculumRow, error) {
	var row CurriculumRow
	err := s.view(ctx, "get_curriculum_row", func(v domain.TransactionView) error {
		var ok bool
		if row, ok = v.FindCurriculumRow(id); !ok {
			return domain.NotFoundError{Entity: EntityCurriculumRow, ID: id}
		}
		return nil
	})
	return row, err
}

// UpdateCurriculumRow applies patch to a row.
func (s *Service) UpdateCurriculumRow(ctx context.Context, id int64, patch domain.CurriculumRowPatch) (CurriculumRow, Result, error) {
	if err := validateInput(patch); err != nil {
		return CurriculumRow{}, Result{}, err
	}
	var updated CurriculumRow
	entityID := id
	res, err := s.run(ctx, "update_curriculum_row", &entityID, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateCurriculumRow(id, func(row *CurriculumRow) error {
			patch.Apply(row)
			row.TableName = strings.TrimSpace(row.TableName)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteCurriculumRow removes a row.
func (s *Service) DeleteCurriculumRow(ctx context.Context, id int64) (Result, error) {
	entityID := id
	return s.run(ctx, "delete_curriculum_row", &entityID, func(tx domain.Transaction) error {
		return tx.DeleteCurriculumRow(id)
	})
}

// ListCurriculumRows returns rows matching filter ordered by id.
func (s *Service) ListCurriculumRows(ctx context.Context, filter CurriculumRowFilter) ([]CurriculumRow, error) {
	var rows []CurriculumRow
	err := s.view(ctx, "list_curriculum_rows", func(v domain.TransactionView) error {
		source := v.ListCurriculumRows()
		if filter.TableName != "" {
			source = v.CurriculumRowsForTable(filter.TableName)
		}
		rows = make([]CurriculumRow, 0, len(source))
		for _, row := range source {
			if filter.matches(row) {
				rows = append(rows, row)
			}
		}
		return nil
	})
	return rows, err
}

// CreateStandard stores a standard with a globally unique code.
func (s *Service) CreateStandard(ctx context.Context, in NewStandard) (Standard, Result, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateInput(in); err != nil {
		return Standard{}, Result{}, err
	}
	var created Standard
	res, err := s.run(ctx, "create_standard", &created.ID, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateStandard(Standard{Code: in.Code, Description: in.Description, Category: in.Category})
		return err
	})
	return created, res, err
}

// GetStandard returns a single standard.
func (s *Service) GetStandard(ctx context.Context, id int64) (Standard, error) {
	var std Standard
	err := s.view(ctx, "get_standard", func(v domain.TransactionView) error {
		var ok bool
		if std, ok = v.FindStandard(id); !ok {
			return domain.NotFoundError{Entity: EntityStandard, ID: id}
		}
		return nil
	})
	return std, err
}

// UpdateStandard applies patch to a standard.
func (s *Service) UpdateStandard(ctx context.Context, id int64, patch domain.StandardPatch) (Standard, Result, error) {
	if err := validateInput(patch); err != nil {
		return Standard{}, Result{}, err
	}
	var updated Standard
	entityID := id
	res, err := s.run(ctx, "update_standard", &entityID, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateStandard(id, func(std *Standard) error {
			patch.Apply(std)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteStandard removes a standard. Rows keep any code they reference.
func (s *Service) DeleteStandard(ctx context.Context, id int64) (Result, error) {
	entityID := id
	return s.run(ctx, "delete_standard", &entityID, func(tx domain.Transaction) error {
		return tx.DeleteStandard(id)
	})
}

// ListStandards returns standards ordered by code, optionally restricted to
// one category.
func (s *Service) ListStandards(ctx context.Context, category string) ([]Standard, error) {
	var out []Standard
	err := s.view(ctx, "list_standards", func(v domain.TransactionView) error {
		for _, std := range v.ListStandards() {
			if category == "" || std.Category == category {
				out = append(out, std)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortStandards(out)
	return out, nil
}

// GetSchoolYear returns the school year singleton.
func (s *Service) GetSchoolYear(ctx context.Context) (SchoolYear, error) {
	var year SchoolYear
	err := s.view(ctx, "get_school_year", func(v domain.TransactionView) error {
		var ok bool
		if year, ok = v.SchoolYear(); !ok {
			return domain.NotFoundError{Entity: EntitySchoolYear, ID: domain.SchoolYearID}
		}
		return nil
	})
	return year, err
}

// SetSchoolYear replaces the school year label, e.g. "2026-2027".
func (s *Service) SetSchoolYear(ctx context.Context, year string) (SchoolYear, Result, error) {
	in := schoolYearInput{Year: strings.TrimSpace(year)}
	if err := validateInput(in); err != nil {
		return SchoolYear{}, Result{}, err
	}
	var updated SchoolYear
	entityID := domain.SchoolYearID
	res, err := s.run(ctx, "set_school_year", &entityID, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.PutSchoolYear(SchoolYear{Year: in.Year, UpdatedAt: s.clock.Now()})
		return err
	})
	return updated, res, err
}

func sortStandards(standards []Standard) {
	sort.SliceStable(standards, func(i, j int) bool {
		if standards[i].Code != standards[j].Code {
			return standards[i].Code < standards[j].Code
		}
		return standards[i].ID < standards[j].ID
	})
}
