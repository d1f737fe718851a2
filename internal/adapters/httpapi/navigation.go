package httpapi

import (
	"net/http"

	"curriculumcore/internal/core"
	"curriculumcore/pkg/domain"
)

func (h *Handler) handleTabs(w http.ResponseWriter, r *http.Request, rest []string) {
	ctx := r.Context()
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			tabs, err := h.Service.ListTabs(ctx)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"tabs": tabs})
		case http.MethodPost:
			var in core.NewNavigationTab
			if err := decodeBody(r, &in); err != nil {
				h.fail(w, r, err)
				return
			}
			tab, res, err := h.Service.CreateTab(ctx, in)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeMutation(w, http.StatusCreated, "tab", tab, res)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}
	if len(rest) != 1 {
		http.NotFound(w, r)
		return
	}

	switch rest[0] {
	case "active":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		tabs, err := h.Service.GetActiveTabs(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tabs": tabs})
		return
	case "admin":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		tab, err := h.Service.EnsureAdminTab(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tab": tab})
		return
	}

	id, err := parseID(rest[0])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		tab, err := h.Service.GetTab(ctx, id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tab": tab})
	case http.MethodPatch:
		var patch domain.NavigationTabPatch
		if err := decodeBody(r, &patch); err != nil {
			h.fail(w, r, err)
			return
		}
		tab, res, err := h.Service.UpdateTab(ctx, id, patch)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeMutation(w, http.StatusOK, "tab", tab, res)
	case http.MethodDelete:
		cascade, res, err := h.Service.DeleteTab(ctx, id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeMutation(w, http.StatusOK, "deleted", cascade, res)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (h *Handler) handleDropdowns(w http.ResponseWriter, r *http.Request, rest []string) {
	ctx := r.Context()
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		tabID, err := queryID(r, "tabId")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		items, err := h.Service.ListDropdownItems(ctx, tabID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"dropdownItems": items})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var in core.NewDropdownItem
		if err := decodeBody(r, &in); err != nil {
			h.fail(w, r, err)
			return
		}
		item, res, err := h.Service.CreateDropdownItem(ctx, in)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeMutation(w, http.StatusCreated, "dropdownItem", item, res)
	case len(rest) == 0:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	case len(rest) == 1:
		id, err := parseID(rest[0])
		if err != nil {
			h.fail(w, r, err)
			return
		}
		switch r.Method {
		case http.MethodPatch:
			var patch domain.DropdownItemPatch
			if err := decodeBody(r, &patch); err != nil {
				h.fail(w, r, err)
				return
			}
			item, res, err := h.Service.UpdateDropdownItem(ctx, id, patch)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeMutation(w, http.StatusOK, "dropdownItem", item, res)
		case http.MethodDelete:
			cascade, res, err := h.Service.DeleteDropdownItem(ctx, id)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeMutation(w, http.StatusOK, "deleted", cascade, res)
		default:
			methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
		}
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleTableConfigs(w http.ResponseWriter, r *http.Request, rest []string) {
	ctx := r.Context()
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		dropdownID, err := queryID(r, "dropdownId")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		configs, err := h.Service.ListTableConfigs(ctx, dropdownID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tableConfigs": configs})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var in core.NewTableConfig
		if err := decodeBody(r, &in); err != nil {
			h.fail(w, r, err)
			return
		}
		cfg, res, err := h.Service.CreateTableConfig(ctx, in)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeMutation(w, http.StatusCreated, "tableConfig", cfg, res)
	case len(rest) == 0:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	case len(rest) == 1:
		id, err := parseID(rest[0])
		if err != nil {
			h.fail(w, r, err)
			return
		}
		switch r.Method {
		case http.MethodPatch:
			var patch domain.TableConfigPatch
			if err := decodeBody(r, &patch); err != nil {
				h.fail(w, r, err)
				return
			}
			cfg, res, err := h.Service.UpdateTableConfig(ctx, id, patch)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeMutation(w, http.StatusOK, "tableConfig", cfg, res)
		case http.MethodDelete:
			deleted, res, err := h.Service.DeleteTableConfig(ctx, id)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			if !deleted {
				h.fail(w, r, domain.NotFoundError{Entity: domain.EntityTableConfig, ID: id})
				return
			}
			writeMutation(w, http.StatusOK, "deleted", true, res)
		default:
			methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
		}
	default:
		http.NotFound(w, r)
	}
}
