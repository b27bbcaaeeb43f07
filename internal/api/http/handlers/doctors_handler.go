package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/appointment-service/internal/api/dto"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/service"
)

// DoctorsHandler exposes the doctor directory and availability views.
type DoctorsHandler struct {
	doctors  *service.DoctorService
	schedule *service.ScheduleService
}

// NewDoctorsHandler constructs handler.
func NewDoctorsHandler(doctorService *service.DoctorService, scheduleService *service.ScheduleService) *DoctorsHandler {
	return &DoctorsHandler{doctors: doctorService, schedule: scheduleService}
}

// ListDoctors GET /doctors.
func (h *DoctorsHandler) ListDoctors(c *fiber.Ctx) error {
	doctors, err := h.doctors.ListDoctors(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(doctors))
	for i := range doctors {
		items = append(items, dto.NewUserResponse(&doctors[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetDoctor GET /doctors/:id.
func (h *DoctorsHandler) GetDoctor(c *fiber.Ctx) error {
	doctor, err := h.doctors.GetDoctor(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(doctor)})
}

// TimeSlots GET /doctors/:id/time-slots returns the rolling availability
// window starting today, keyed by date.
func (h *DoctorsHandler) TimeSlots(c *fiber.Ctx) error {
	window, err := h.schedule.AvailableWindow(c.Context(), c.Params("id"), time.Now())
	if err != nil {
		return err
	}
	out := make(map[string][]string, len(window))
	for day, slots := range window {
		out[day] = domain.SlotStrings(slots)
	}
	return c.JSON(fiber.Map{"data": out})
}
