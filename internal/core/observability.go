package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time to the service.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock. A nil ClockFunc reports UTC now.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f()
}

// Logger is the structured logging surface used by the service. *slog.Logger
// satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder observes the outcome and latency of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// Tracer starts a span around each service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is finished exactly once with the operation's error, if any.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// AuditStatus reports whether an audited operation committed.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one audited mutation.
type AuditEntry struct {
	ID        string
	Operation string
	Entity    EntityType
	Action    Action
	EntityID  int64
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives audit entries for service mutations.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type operationMetadata struct {
	entity EntityType
	action Action
}

// auditedOperations maps mutating service operations onto the entity they
// touch. Reads are not audited.
var auditedOperations = map[string]operationMetadata{
	"create_navigation_tab": {EntityNavigationTab, ActionCreate},
	"update_navigation_tab": {EntityNavigationTab, ActionUpdate},
	"delete_navigation_tab": {EntityNavigationTab, ActionDelete},
	"ensure_admin_tab":      {EntityNavigationTab, ActionCreate},
	"create_dropdown_item":  {EntityDropdownItem, ActionCreate},
	"update_dropdown_item":  {EntityDropdownItem, ActionUpdate},
	"delete_dropdown_item":  {EntityDropdownItem, ActionDelete},
	"create_table_config":   {EntityTableConfig, ActionCreate},
	"update_table_config":   {EntityTableConfig, ActionUpdate},
	"delete_table_config":   {EntityTableConfig, ActionDelete},
	"seed_curriculum_row":   {EntityCurriculumRow, ActionCreate},
	"create_curriculum_row": {EntityCurriculumRow, ActionCreate},
	"update_curriculum_row": {EntityCurriculumRow, ActionUpdate},
	"delete_curriculum_row": {EntityCurriculumRow, ActionDelete},
	"cleanup_orphaned_rows": {EntityCurriculumRow, ActionDelete},
	"create_standard":       {EntityStandard, ActionCreate},
	"update_standard":       {EntityStandard, ActionUpdate},
	"delete_standard":       {EntityStandard, ActionDelete},
	"set_school_year":       {EntitySchoolYear, ActionUpdate},
	"apply_snapshot":        {EntityCurriculumRow, ActionUpdate},
}

func (s *Service) recordAuditSuccess(ctx context.Context, operation string, entityID int64, duration time.Duration) {
	s.recordAudit(ctx, operation, entityID, duration, nil)
}

func (s *Service) recordAuditError(ctx context.Context, operation string, entityID int64, duration time.Duration, err error) {
	s.recordAudit(ctx, operation, entityID, duration, err)
}

func (s *Service) recordAudit(ctx context.Context, operation string, entityID int64, duration time.Duration, err error) {
	meta, ok := auditedOperations[operation]
	if !ok {
		return
	}
	entry := AuditEntry{
		ID:        uuid.NewString(),
		Operation: operation,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// LoggerAuditRecorder writes audit entries to a Logger at info level.
type LoggerAuditRecorder struct {
	Logger Logger
}

// Record implements AuditRecorder.
func (r LoggerAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	if r.Logger == nil {
		return
	}
	args := []any{
		"audit_id", entry.ID,
		"operation", entry.Operation,
		"entity", entry.Entity,
		"action", entry.Action,
		"entity_id", entry.EntityID,
		"status", entry.Status,
		"duration", entry.Duration,
	}
	if entry.Error != "" {
		args = append(args, "error", entry.Error)
	}
	r.Logger.Info("audit", args...)
}
