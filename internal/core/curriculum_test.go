package core

import (
	"context"
	"testing"

	"curriculumcore/pkg/domain"
)

func TestCurriculumRowLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	row, _, err := svc.CreateCurriculumRow(ctx, NewCurriculumRow{
		Grade: " Grade 3 ", Subject: "Math", Objectives: "Fractions",
		Standards: []string{"MA.3.1", "MA.3.1", ""},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if row.Grade != "Grade 3" || len(row.Standards) != 1 || row.Standards[0] != "MA.3.1" {
		t.Fatalf("expected trimmed grade and normalized standards, got %+v", row)
	}

	standards := []string{"MA.3.2"}
	updated, _, err := svc.UpdateCurriculumRow(ctx, row.ID, domain.CurriculumRowPatch{
		UnitPacing: strPtr("4 weeks"),
		Standards:  &standards,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UnitPacing != "4 weeks" || updated.Objectives != "Fractions" || updated.Standards[0] != "MA.3.2" {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, _, err := svc.UpdateCurriculumRow(ctx, row.ID, domain.CurriculumRowPatch{Grade: strPtr("")}); err == nil {
		t.Fatalf("expected empty grade to be rejected")
	}
	if _, err := svc.DeleteCurriculumRow(ctx, row.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.GetCurriculumRow(ctx, row.ID)
	expectKind(t, err, domain.KindNotFound)
	_, err = svc.DeleteCurriculumRow(ctx, row.ID)
	expectKind(t, err, domain.KindNotFound)
}

func TestCreateCurriculumRowRequiresGradeAndSubject(t *testing.T) {
	svc := newTestService(t)
	for _, in := range []NewCurriculumRow{{Subject: "Math"}, {Grade: "KG"}, {Grade: " ", Subject: "Art"}} {
		_, _, err := svc.CreateCurriculumRow(context.Background(), in)
		expectKind(t, err, domain.KindValidation)
	}
}

func TestListCurriculumRowsFilter(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedHierarchy(t, svc, "Grade 1", "Math", "g1-math")
	seedHierarchy(t, svc, "Grade 1", "Reading", "g1-reading")
	seedHierarchy(t, svc, "Grade 2", "Math", "g2-math")

	if got := mustRows(t, svc, CurriculumRowFilter{Subject: "Math"}); len(got) != 2 {
		t.Fatalf("expected 2 math rows, got %+v", got)
	}
	if got := mustRows(t, svc, CurriculumRowFilter{Grade: "Grade 1", Subject: "Reading"}); len(got) != 1 || got[0].TableName != "g1-reading" {
		t.Fatalf("unexpected grade+subject rows %+v", got)
	}
	if got := mustRows(t, svc, CurriculumRowFilter{TableName: "g2-math", Grade: "Grade 1"}); len(got) != 0 {
		t.Fatalf("filters must combine, got %+v", got)
	}
	all := mustRows(t, svc, CurriculumRowFilter{})
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("rows must be ordered by id: %+v", all)
		}
	}
	if _, err := svc.ListCurriculumRows(ctx, CurriculumRowFilter{TableName: "missing"}); err != nil {
		t.Fatalf("unknown table lists nothing: %v", err)
	}
}

func TestStandards(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	for _, in := range []NewStandard{
		{Code: "RD.1.1", Category: "Reading"},
		{Code: "MA.1.2", Category: "Math"},
		{Code: "MA.1.1", Category: "Math"},
	} {
		if _, _, err := svc.CreateStandard(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.Code, err)
		}
	}
	_, _, err := svc.CreateStandard(ctx, NewStandard{Code: "MA.1.1", Category: "Math"})
	expectKind(t, err, domain.KindValidation)
	_, _, err = svc.CreateStandard(ctx, NewStandard{Code: "MA.1.3"})
	expectKind(t, err, domain.KindValidation)

	math, err := svc.ListStandards(ctx, "Math")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(math) != 2 || math[0].Code != "MA.1.1" || math[1].Code != "MA.1.2" {
		t.Fatalf("expected math standards ordered by code, got %+v", math)
	}
	all, _ := svc.ListStandards(ctx, "")
	if len(all) != 3 || all[2].Code != "RD.1.1" {
		t.Fatalf("unexpected standards %+v", all)
	}

	updated, _, err := svc.UpdateStandard(ctx, math[0].ID, domain.StandardPatch{Description: strPtr("Count to 120")})
	if err != nil || updated.Description != "Count to 120" || updated.Code != "MA.1.1" {
		t.Fatalf("update: %+v %v", updated, err)
	}
	if _, err := svc.DeleteStandard(ctx, math[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.GetStandard(ctx, math[0].ID)
	expectKind(t, err, domain.KindNotFound)
}

func TestSchoolYear(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.GetSchoolYear(ctx)
	expectKind(t, err, domain.KindNotFound)

	for _, bad := range []string{"", "2026", "2026-2028", "26-27", "2026/2027", "abcd-efgh"} {
		_, _, err := svc.SetSchoolYear(ctx, bad)
		expectKind(t, err, domain.KindValidation)
	}
	year, _, err := svc.SetSchoolYear(ctx, " 2026-2027 ")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if year.Year != "2026-2027" || !year.UpdatedAt.Equal(testNow) {
		t.Fatalf("unexpected school year %+v", year)
	}
	got, err := svc.GetSchoolYear(ctx)
	if err != nil || got.Year != "2026-2027" {
		t.Fatalf("get: %+v %v", got, err)
	}
}
