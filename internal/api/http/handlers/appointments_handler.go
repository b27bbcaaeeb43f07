package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/appointment-service/internal/api/dto"
	"github.com/spec-kit/appointment-service/internal/auth"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/service"
	"github.com/spec-kit/appointment-service/pkg/util"
)

const dateLayout = "2006-01-02"

// AppointmentsHandler manages booking endpoints.
type AppointmentsHandler struct {
	appointments *service.AppointmentService
	schedule     *service.ScheduleService
}

// NewAppointmentsHandler constructs handler.
func NewAppointmentsHandler(appointmentService *service.AppointmentService, scheduleService *service.ScheduleService) *AppointmentsHandler {
	return &AppointmentsHandler{appointments: appointmentService, schedule: scheduleService}
}

// Create POST /appointments.
func (h *AppointmentsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.DoctorID == "" || req.Date == "" || req.TimeSlot == "" || req.Symptoms == "" {
		return util.NewValidationError("doctorId, date, timeSlot, symptoms required", nil)
	}

	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		return util.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": req.Date})
	}
	slot, ok := domain.ParseTimeSlot(req.TimeSlot)
	if !ok {
		return util.NewValidationError("invalid time slot", map[string]any{"slot": req.TimeSlot})
	}

	appt, err := h.appointments.Create(c.Context(), principal, service.CreateAppointmentInput{
		DoctorID: req.DoctorID,
		Date:     date,
		Slot:     slot,
		Symptoms: req.Symptoms,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAppointmentResponse(appt)})
}

// List GET /appointments.
func (h *AppointmentsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	views, err := h.appointments.List(c.Context(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.AppointmentResponse, 0, len(views))
	for i := range views {
		resp := dto.NewAppointmentResponse(&views[i].Appointment)
		resp.Doctor = dto.NewParty(views[i].Doctor)
		resp.Patient = dto.NewParty(views[i].Patient)
		items = append(items, resp)
	}
	return c.JSON(fiber.Map{"data": items})
}

// Cancel DELETE /appointments/:id.
func (h *AppointmentsHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	appt, err := h.appointments.Cancel(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAppointmentResponse(appt)})
}

// History GET /appointments/:id/history.
func (h *AppointmentsHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	entries, err := h.appointments.ListHistory(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.HistoryResponse{
			ID:         entry.ID,
			ChangeType: entry.ChangeType,
			ActorRole:  entry.ActorRole,
			ActorID:    entry.ActorID,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// BookedSlots GET /appointments/slots/:doctorId?date=YYYY-MM-DD returns the
// slot labels already taken for the given day.
func (h *AppointmentsHandler) BookedSlots(c *fiber.Ctx) error {
	dateStr := c.Query("date")
	if dateStr == "" {
		return util.NewValidationError("date query parameter required", nil)
	}
	date, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return util.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": dateStr})
	}

	booked, err := h.schedule.BookedForDate(c.Context(), c.Params("doctorId"), date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": domain.SlotStrings(booked)})
}
