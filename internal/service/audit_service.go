package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/events"
	"github.com/spec-kit/appointment-service/internal/repository"
)

// AuditService records appointment lifecycle events as history rows so
// cancelled bookings keep their trail.
type AuditService struct {
	dispatcher events.Dispatcher
	history    repository.HistoryRepository
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, history repository.HistoryRepository, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, history: history, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventAppointmentCreated, a.handleCreated)
	a.dispatcher.Subscribe(events.EventAppointmentCancelled, a.handleCancelled)
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleUserRegistered)
}

func (a *AuditService) handleCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AppointmentCreatedPayload)
	if !ok {
		return nil
	}
	newValue := string(domain.AppointmentStatusPending)
	entry := &domain.AppointmentHistory{
		AppointmentID: event.AppointmentID,
		ActorRole:     event.Actor.Role,
		ActorID:       event.Actor.UserID,
		ChangeType:    domain.HistoryChangeCreated,
		NewValue:      &newValue,
	}
	if err := a.history.Create(ctx, entry); err != nil {
		a.logger.Error("record appointment created", zap.Error(err), zap.String("appointment_id", event.AppointmentID))
		return err
	}
	a.logger.Info("appointment created",
		zap.String("appointment_id", event.AppointmentID),
		zap.String("doctor_id", payload.DoctorID),
		zap.String("date", payload.Date),
		zap.String("slot", string(payload.Slot)))
	return nil
}

func (a *AuditService) handleCancelled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AppointmentCancelledPayload)
	if !ok {
		return nil
	}
	oldValue := string(payload.OldStatus)
	newValue := string(payload.NewStatus)
	entry := &domain.AppointmentHistory{
		AppointmentID: event.AppointmentID,
		ActorRole:     event.Actor.Role,
		ActorID:       event.Actor.UserID,
		ChangeType:    domain.HistoryChangeStatusChanged,
		OldValue:      &oldValue,
		NewValue:      &newValue,
	}
	if err := a.history.Create(ctx, entry); err != nil {
		a.logger.Error("record appointment cancelled", zap.Error(err), zap.String("appointment_id", event.AppointmentID))
		return err
	}
	a.logger.Info("appointment cancelled", zap.String("appointment_id", event.AppointmentID))
	return nil
}

func (a *AuditService) handleUserRegistered(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return nil
	}
	a.logger.Info("user registered",
		zap.String("user_id", payload.UserID),
		zap.String("role", string(payload.Role)))
	return nil
}
