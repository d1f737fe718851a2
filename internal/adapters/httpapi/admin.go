package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"curriculumcore/internal/core"
	"curriculumcore/internal/snapshot"
)

type restoreRequest struct {
	Key string `json:"key"`
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request, rest []string) {
	switch strings.Join(rest, "/") {
	case "export":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleExport(w, r)
	case "import":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		res, err := h.Service.ImportSnapshot(r.Context(), r.Body)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"import": res})
	case "import/validate":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		payload, err := snapshot.ReadPayload(r.Body)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		sum, err := h.Service.ValidateSnapshot(r.Context(), payload)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "summary": sum})
	case "cleanup-orphans":
		h.handleOrphans(w, r)
	case "backups":
		h.handleBackups(w, r)
	case "backups/restore":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		var req restoreRequest
		if err := decodeBody(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		res, err := h.Service.RestoreArchived(r.Context(), req.Key)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"import": res})
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.ExportSnapshot(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filename := fmt.Sprintf("curriculum-export-%s.json", snap.Metadata.ExportDate.UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := snapshot.Encode(w, snap); err != nil {
		h.Logger.Error("write export", "error", err)
	}
}

func (h *Handler) handleOrphans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rows, err := h.Service.FindOrphanedRows(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if rows == nil {
			rows = []core.CurriculumRow{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"orphanedRows": rows})
	case http.MethodPost:
		removed, res, err := h.Service.CleanupOrphanedRows(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeMutation(w, http.StatusOK, "removed", removed, res)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *Handler) handleBackups(w http.ResponseWriter, r *http.Request) {
	archive := h.Service.Archive()
	if archive == nil {
		writeError(w, http.StatusNotFound, "snapshot archive not configured")
		return
	}
	switch r.Method {
	case http.MethodGet:
		kind := core.ArchiveKind(r.URL.Query().Get("kind"))
		infos, err := archive.List(r.Context(), kind)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"backups": infos})
	case http.MethodPost:
		info, err := h.Service.ArchiveSnapshot(r.Context(), core.ArchiveExport)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"backup": info})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}
