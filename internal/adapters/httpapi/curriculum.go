package httpapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"curriculumcore/internal/core"
	"curriculumcore/pkg/domain"
)

var csvColumns = []string{
	"id", "grade", "subject", "tableName", "objectives", "unitPacing", "assessments",
	"materialsAndDifferentiation", "biblical", "materials", "differentiator", "standards",
}

func (h *Handler) handleCurriculum(w http.ResponseWriter, r *http.Request, rest []string) {
	ctx := r.Context()
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := r.URL.Query()
		filter := core.CurriculumRowFilter{Grade: q.Get("grade"), Subject: q.Get("subject"), TableName: q.Get("tableName")}
		format := negotiateFormat(r)
		if format == "" {
			writeError(w, http.StatusNotAcceptable, "requested format not supported")
			return
		}
		rows, err := h.Service.ListCurriculumRows(ctx, filter)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if format == "csv" {
			streamCSV(w, rows)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"curriculumRows": rows})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var in core.NewCurriculumRow
		if err := decodeBody(r, &in); err != nil {
			h.fail(w, r, err)
			return
		}
		row, res, err := h.Service.CreateCurriculumRow(ctx, in)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeMutation(w, http.StatusCreated, "curriculumRow", row, res)
	case len(rest) == 0:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	case len(rest) == 1:
		id, err := parseID(rest[0])
		if err != nil {
			h.fail(w, r, err)
			return
		}
		switch r.Method {
		case http.MethodGet:
			row, err := h.Service.GetCurriculumRow(ctx, id)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"curriculumRow": row})
		case http.MethodPatch:
			var patch domain.CurriculumRowPatch
			if err := decodeBody(r, &patch); err != nil {
				h.fail(w, r, err)
				return
			}
			row, res, err := h.Service.UpdateCurriculumRow(ctx, id, patch)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeMutation(w, http.StatusOK, "curriculumRow", row, res)
		case http.MethodDelete:
			res, err := h.Service.DeleteCurriculumRow(ctx, id)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeMutation(w, http.StatusOK, "deleted", true, res)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleStandards(w http.ResponseWriter, r *http.Request, rest []string) {
	ctx := r.Context()
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		standards, err := h.Service.ListStandards(ctx, r.URL.Query().Get("category"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if standards == nil {
			standards = []core.Standard{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"standards": standards})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var in core.NewStandard
		if err := decodeBody(r, &in); err != nil {
			h.fail(w, r, err)
			return
		}
		std, res, err := h.Service.CreateStandard(ctx, in)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeMutation(w, http.StatusCreated, "standard", std, res)
	case len(rest) == 0:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	case len(rest) == 1:
		id, err := parseID(rest[0])
		if err != nil {
			h.fail(w, r, err)
			return
		}
		switch r.Method {
		case http.MethodGet:
			std, err := h.Service.GetStandard(ctx, id)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"standard": std})
		case http.MethodPatch:
			var patch domain.StandardPatch
			if err := decodeBody(r, &patch); err != nil {
				h.fail(w, r, err)
				return
			}
			std, res, err := h.Service.UpdateStandard(ctx, id, patch)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeMutation(w, http.StatusOK, "standard", std, res)
		case http.MethodDelete:
			res, err := h.Service.DeleteStandard(ctx, id)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeMutation(w, http.StatusOK, "deleted", true, res)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	default:
		http.NotFound(w, r)
	}
}

type schoolYearRequest struct {
	Year string `json:"year"`
}

func (h *Handler) handleSchoolYear(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) != 0 {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		year, err := h.Service.GetSchoolYear(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"schoolYear": year})
	case http.MethodPut:
		var req schoolYearRequest
		if err := decodeBody(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		year, res, err := h.Service.SetSchoolYear(r.Context(), req.Year)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeMutation(w, http.StatusOK, "schoolYear", year, res)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

// negotiateFormat picks json or csv from ?format= or the Accept header and
// returns "" for anything else.
func negotiateFormat(r *http.Request) string {
	wanted := strings.ToLower(r.URL.Query().Get("format"))
	if wanted == "" {
		if strings.Contains(r.Header.Get("Accept"), "text/csv") {
			return "csv"
		}
		return "json"
	}
	switch wanted {
	case "json", "csv":
		return wanted
	}
	return ""
}

func streamCSV(w http.ResponseWriter, rows []core.CurriculumRow) {
	filename := fmt.Sprintf("curriculum-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvColumns); err != nil {
		return
	}
	for _, row := range rows {
		record := []string{
			fmt.Sprintf("%d", row.ID), row.Grade, row.Subject, row.TableName, row.Objectives,
			row.UnitPacing, row.Assessments, row.MaterialsAndDifferentiation, row.Biblical,
			row.Materials, row.Differentiator, strings.Join(row.Standards, ";"),
		}
		if err := writer.Write(record); err != nil {
			return
		}
	}
}
