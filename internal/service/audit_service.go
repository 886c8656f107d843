package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/asistencia-app/attendance-service/internal/events"
	"github.com/asistencia-app/attendance-service/internal/observability"
)

// AuditService writes an audit trail of domain events and counts attendance marks.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventUserCreated,
		events.EventUserUpdated,
		events.EventUserDeleted,
		events.EventAttendanceDeleted,
	} {
		a.dispatcher.Subscribe(eventType, a.handleChange)
	}
	a.dispatcher.Subscribe(events.EventUserRoleChanged, a.handleRoleChanged)
	a.dispatcher.Subscribe(events.EventAttendanceRecorded, a.handleAttendanceRecorded)
	a.dispatcher.Subscribe(events.EventAttendanceDuplicate, a.handleAttendanceDuplicate)
}

func (a *AuditService) handleChange(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), fields(event)...)
	return nil
}

func (a *AuditService) handleRoleChanged(_ context.Context, event events.Event) error {
	// Privilege changes are kept at warn level so they stand out in the trail.
	a.logger.Warn(string(event.Type), fields(event)...)
	return nil
}

func (a *AuditService) handleAttendanceRecorded(_ context.Context, event events.Event) error {
	a.metrics.RecordAttendanceMark(observability.MarkCreated)
	a.logger.Info(string(event.Type), fields(event)...)
	return nil
}

func (a *AuditService) handleAttendanceDuplicate(_ context.Context, event events.Event) error {
	a.metrics.RecordAttendanceMark(observability.MarkDuplicate)
	a.logger.Debug(string(event.Type), fields(event)...)
	return nil
}

func fields(event events.Event) []zap.Field {
	fs := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
	if event.ActorID != nil {
		fs = append(fs, zap.String("actor_id", *event.ActorID))
	}
	return fs
}
