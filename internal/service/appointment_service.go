package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/appointment-service/internal/auth"
	"github.com/spec-kit/appointment-service/internal/config"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/events"
	"github.com/spec-kit/appointment-service/internal/repository"
	"github.com/spec-kit/appointment-service/pkg/util"
)

// AppointmentService coordinates booking workflows.
type AppointmentService struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	history      repository.HistoryRepository
	dispatcher   events.Dispatcher
	horizonDays  int
	now          func() time.Time
}

// AppointmentDependencies bundles requirements for the appointment service.
type AppointmentDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	UserRepo        repository.UserRepository
	HistoryRepo     repository.HistoryRepository
	Dispatcher      events.Dispatcher
}

// CreateAppointmentInput describes a booking payload.
type CreateAppointmentInput struct {
	DoctorID string
	Date     time.Time
	Slot     domain.TimeSlot
	Symptoms string
}

// AppointmentView is an appointment with its references resolved for display.
type AppointmentView struct {
	Appointment domain.Appointment
	Doctor      *domain.User
	Patient     *domain.User
}

// NewAppointmentService constructs the service.
func NewAppointmentService(cfg config.BookingConfig, deps AppointmentDependencies) *AppointmentService {
	horizon := cfg.HorizonDays
	if horizon <= 0 {
		horizon = 30
	}
	return &AppointmentService{
		appointments: deps.AppointmentRepo,
		users:        deps.UserRepo,
		history:      deps.HistoryRepo,
		dispatcher:   deps.Dispatcher,
		horizonDays:  horizon,
		now:          time.Now,
	}
}

// Create validates and persists a booking for the authenticated caller. The
// slot uniqueness race is settled by the store: of two concurrent creators
// for the same (doctor, day, slot), exactly one insert succeeds and the other
// surfaces as Conflict.
func (s *AppointmentService) Create(ctx context.Context, principal *auth.Principal, input CreateAppointmentInput) (*domain.Appointment, error) {
	if input.DoctorID == "" || input.Date.IsZero() || input.Slot == "" || strings.TrimSpace(input.Symptoms) == "" {
		return nil, util.NewValidationError("doctorId, date, timeSlot, symptoms required", nil)
	}
	if _, ok := domain.ParseTimeSlot(string(input.Slot)); !ok {
		return nil, util.NewValidationError("invalid time slot", map[string]any{"slot": string(input.Slot)})
	}

	today := domain.DayBucket(s.now())
	bucket := domain.DayBucket(input.Date)
	if bucket.Before(today) {
		return nil, util.NewValidationError("appointment date must be today or in the future", nil)
	}
	if bucket.After(today.AddDate(0, 0, s.horizonDays)) {
		return nil, util.NewValidationError("appointment date beyond booking horizon", map[string]any{"horizon_days": s.horizonDays})
	}

	doctor, err := s.users.GetByID(ctx, input.DoctorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("doctor", map[string]any{"id": input.DoctorID})
		}
		return nil, util.MapError(err)
	}
	if !doctor.IsDoctor() {
		return nil, util.NewNotFound("doctor", map[string]any{"id": input.DoctorID})
	}
	if !slotDeclared(doctor.DeclaredSlots, input.Slot) {
		return nil, util.NewValidationError("doctor does not offer this time slot", map[string]any{"slot": string(input.Slot)})
	}

	appt := &domain.Appointment{
		DoctorID: doctor.ID,
		Date:     bucket,
		Slot:     input.Slot,
		Symptoms: strings.TrimSpace(input.Symptoms),
		Status:   domain.AppointmentStatusPending,
	}
	if principal != nil && principal.User != nil && principal.User.Role == domain.RolePatient {
		patientID := principal.User.ID
		appt.PatientID = &patientID
	}

	if err := s.appointments.Create(ctx, appt); err != nil {
		if util.IsUniqueViolation(err, repository.SlotConstraintName) {
			return nil, util.NewConflict("time slot already booked", map[string]any{
				"doctor_id": appt.DoctorID,
				"date":      domain.DayKey(appt.Date),
				"slot":      string(appt.Slot),
			})
		}
		return nil, util.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:          events.EventAppointmentCreated,
		AppointmentID: appt.ID,
		Actor:         actorFor(principal),
		Timestamp:     s.now(),
		Payload: events.AppointmentCreatedPayload{
			DoctorID: appt.DoctorID,
			Date:     domain.DayKey(appt.Date),
			Slot:     appt.Slot,
		},
	})
	return appt, nil
}

// List returns appointments visible to the caller: patients see their own
// bookings, doctors their own schedule, admins everything. References are
// resolved for display.
func (s *AppointmentService) List(ctx context.Context, principal *auth.Principal) ([]AppointmentView, error) {
	if principal == nil || principal.User == nil {
		return nil, util.NewUnauthorized("authentication required")
	}

	filter := repository.AppointmentFilter{}
	switch principal.User.Role {
	case domain.RolePatient:
		id := principal.User.ID
		filter.PatientID = &id
	case domain.RoleDoctor:
		id := principal.User.ID
		filter.DoctorID = &id
	case domain.RoleAdmin:
		// unscoped
	}

	appts, err := s.appointments.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, util.MapError(err)
	}
	return s.resolveViews(ctx, appts)
}

// Cancel transitions the appointment to cancelled, freeing its slot. The
// row is retained for audit.
func (s *AppointmentService) Cancel(ctx context.Context, principal *auth.Principal, id string) (*domain.Appointment, error) {
	appt, err := s.getAuthorized(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	oldStatus := appt.Status
	if oldStatus == domain.AppointmentStatusCancelled {
		return appt, nil
	}

	if err := s.appointments.UpdateStatus(ctx, appt.ID, domain.AppointmentStatusCancelled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("appointment", map[string]any{"id": id})
		}
		return nil, util.MapError(err)
	}
	appt.Status = domain.AppointmentStatusCancelled

	s.publish(ctx, events.Event{
		Type:          events.EventAppointmentCancelled,
		AppointmentID: appt.ID,
		Actor:         actorFor(principal),
		Timestamp:     s.now(),
		Payload: events.AppointmentCancelledPayload{
			OldStatus: oldStatus,
			NewStatus: domain.AppointmentStatusCancelled,
		},
	})
	return appt, nil
}

// ListHistory returns the audit trail for an appointment the caller may see.
func (s *AppointmentService) ListHistory(ctx context.Context, principal *auth.Principal, id string) ([]domain.AppointmentHistory, error) {
	if _, err := s.getAuthorized(ctx, principal, id); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByAppointment(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	return entries, nil
}

func (s *AppointmentService) getAuthorized(ctx context.Context, principal *auth.Principal, id string) (*domain.Appointment, error) {
	if principal == nil || principal.User == nil {
		return nil, util.NewUnauthorized("authentication required")
	}

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("appointment", map[string]any{"id": id})
		}
		return nil, util.MapError(err)
	}

	caller := principal.User
	isPatient := appt.PatientID != nil && *appt.PatientID == caller.ID
	isDoctor := appt.DoctorID == caller.ID
	if !isPatient && !isDoctor && caller.Role != domain.RoleAdmin {
		return nil, util.NewForbidden("not your appointment")
	}
	return appt, nil
}

func (s *AppointmentService) resolveViews(ctx context.Context, appts []domain.Appointment) ([]AppointmentView, error) {
	cache := make(map[string]*domain.User)
	lookup := func(id string) (*domain.User, error) {
		if user, ok := cache[id]; ok {
			return user, nil
		}
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				cache[id] = nil
				return nil, nil
			}
			return nil, util.MapError(err)
		}
		cache[id] = user
		return user, nil
	}

	views := make([]AppointmentView, 0, len(appts))
	for _, appt := range appts {
		view := AppointmentView{Appointment: appt}
		doctor, err := lookup(appt.DoctorID)
		if err != nil {
			return nil, err
		}
		view.Doctor = doctor
		if appt.PatientID != nil {
			patient, err := lookup(*appt.PatientID)
			if err != nil {
				return nil, err
			}
			view.Patient = patient
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *AppointmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(principal *auth.Principal) events.Actor {
	if principal == nil || principal.User == nil {
		return events.Actor{Role: domain.RolePatient}
	}
	id := principal.User.ID
	return events.Actor{Role: principal.User.Role, UserID: &id}
}

func slotDeclared(declared []domain.TimeSlot, slot domain.TimeSlot) bool {
	for _, s := range declared {
		if s == slot {
			return true
		}
	}
	return false
}
