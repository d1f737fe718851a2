package core

import (
	"context"
	"errors"
	"time"

	"curriculumcore/internal/infra/persistence/memory"
	"curriculumcore/pkg/domain"
)

// Service exposes the transactional curriculum operations. Every mutation
// runs inside a single PersistentStore transaction.
type Service struct {
	store   domain.PersistentStore
	clock   Clock
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	archive *Archive

	backupBeforeImport bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditRecorder sets the audit sink for mutations.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the span factory.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithArchive attaches a snapshot archive. When backup is true, ImportSnapshot
// saves the current dataset to the archive before applying.
func WithArchive(archive *Archive, backup bool) Option {
	return func(s *Service) {
		s.archive = archive
		s.backupBeforeImport = archive != nil && backup
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		clock:   ClockFunc(nil),
		logger:  noopLogger{},
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(engine *domain.RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying persistence implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// Archive returns the configured snapshot archive, or nil.
func (s *Service) Archive() *Archive {
	return s.archive
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// run executes fn in a transaction with tracing, metrics, logging and audit.
// entityID, when non-nil, is read after fn returns so creates can report the
// assigned id.
func (s *Service) run(ctx context.Context, op string, entityID *int64, fn func(domain.Transaction) error) (Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	res, err := s.store.RunInTransaction(ctx, fn)
	var blocked domain.RuleViolationError
	if errors.As(err, &blocked) {
		err = domain.IntegrityError{Op: op, Err: err}
	}
	duration := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)

	var id int64
	if entityID != nil {
		id = *entityID
	}
	if err != nil {
		s.logger.Error("core operation failed", "operation", op, "kind", domain.KindOf(err), "error", err)
		s.recordAuditError(ctx, op, id, duration, err)
		return res, err
	}
	for _, v := range res.Violations {
		if v.Severity == domain.SeverityWarn {
			s.logger.Warn("rule warning", "operation", op, "rule", v.Rule, "message", v.Message)
		}
	}
	s.logger.Debug("core operation succeeded", "operation", op, "duration", duration)
	s.recordAuditSuccess(ctx, op, id, duration)
	return res, nil
}

// view runs a read-only closure with tracing and metrics.
func (s *Service) view(ctx context.Context, op string, fn func(domain.TransactionView) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := s.store.View(ctx, fn)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("core read failed", "operation", op, "error", err)
	}
	return err
}
