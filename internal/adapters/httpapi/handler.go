// Package httpapi exposes the curriculum service over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"curriculumcore/internal/core"
	"curriculumcore/pkg/domain"
)

const (
	apiPrefix = "/api/v1"

	// maxBodyBytes bounds non-import request bodies.
	maxBodyBytes = 1 << 20
)

// Handler routes /api/v1 requests to a core.Service.
type Handler struct {
	Service *core.Service
	Logger  core.Logger
}

// NewHandler constructs a handler. A nil logger discards output.
func NewHandler(svc *core.Service, logger core.Logger) *Handler {
	if logger == nil {
		logger = discardLogger{}
	}
	return &Handler{Service: svc, Logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "curriculum service not configured")
		return
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if !strings.HasPrefix(path, apiPrefix+"/") {
		http.NotFound(w, r)
		return
	}
	segments := strings.Split(strings.TrimPrefix(path, apiPrefix+"/"), "/")
	switch segments[0] {
	case "tabs":
		h.handleTabs(w, r, segments[1:])
	case "dropdowns":
		h.handleDropdowns(w, r, segments[1:])
	case "table-configs":
		h.handleTableConfigs(w, r, segments[1:])
	case "curriculum":
		h.handleCurriculum(w, r, segments[1:])
	case "standards":
		h.handleStandards(w, r, segments[1:])
	case "school-year":
		h.handleSchoolYear(w, r, segments[1:])
	case "admin":
		h.handleAdmin(w, r, segments[1:])
	default:
		http.NotFound(w, r)
	}
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindProtected:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := map[string]any{"error": err.Error(), "kind": domain.KindOf(err)}
	var invalid domain.ValidationError
	if errors.As(err, &invalid) && invalid.Field != "" {
		body["field"] = invalid.Field
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

// writeMutation writes value under key plus any rule warnings.
func writeMutation(w http.ResponseWriter, status int, key string, value any, res core.Result) {
	body := map[string]any{key: value}
	if len(res.Violations) > 0 {
		body["warnings"] = res.Violations
	}
	writeJSON(w, status, body)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "must be a positive integer, got %q", raw)
	}
	return id, nil
}

func queryID(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, domain.NewValidationError(key, "query parameter required")
	}
	id, err := parseID(raw)
	if err != nil {
		return 0, domain.NewValidationError(key, "must be a positive integer, got %q", raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "request body required")
		}
		return domain.NewValidationError("body", "invalid JSON: %v", err)
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
