package events

import (
	"time"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered       EventType = "user_registered"
	EventAppointmentCreated   EventType = "appointment_created"
	EventAppointmentCancelled EventType = "appointment_cancelled"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role   domain.Role `json:"role"`
	UserID *string     `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	AppointmentID string      `json:"appointment_id,omitempty"`
	Actor         Actor       `json:"actor"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// AppointmentCreatedPayload payload.
type AppointmentCreatedPayload struct {
	DoctorID string          `json:"doctor_id"`
	Date     string          `json:"date"`
	Slot     domain.TimeSlot `json:"slot"`
}

// AppointmentCancelledPayload payload.
type AppointmentCancelledPayload struct {
	OldStatus domain.AppointmentStatus `json:"old_status"`
	NewStatus domain.AppointmentStatus `json:"new_status"`
}
