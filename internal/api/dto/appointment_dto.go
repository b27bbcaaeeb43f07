package dto

import (
	"time"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// CreateAppointmentRequest payload.
type CreateAppointmentRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	Symptoms string `json:"symptoms"`
}

// PartyResponse is the display form of a referenced identity.
type PartyResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Specialization *string `json:"specialization,omitempty"`
}

// AppointmentResponse is the wire form of a booking.
type AppointmentResponse struct {
	ID        string                   `json:"id"`
	DoctorID  string                   `json:"doctor_id"`
	PatientID *string                  `json:"patient_id,omitempty"`
	Date      string                   `json:"date"`
	TimeSlot  string                   `json:"timeSlot"`
	Symptoms  string                   `json:"symptoms"`
	Status    domain.AppointmentStatus `json:"status"`
	Doctor    *PartyResponse           `json:"doctor,omitempty"`
	Patient   *PartyResponse           `json:"patient,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         string                   `json:"id"`
	ChangeType domain.HistoryChangeType `json:"change_type"`
	ActorRole  domain.Role              `json:"actor_role"`
	ActorID    *string                  `json:"actor_id,omitempty"`
	OldValue   *string                  `json:"old_value,omitempty"`
	NewValue   *string                  `json:"new_value,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

// NewAppointmentResponse maps a bare appointment.
func NewAppointmentResponse(appt *domain.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        appt.ID,
		DoctorID:  appt.DoctorID,
		PatientID: appt.PatientID,
		Date:      domain.DayKey(appt.Date),
		TimeSlot:  string(appt.Slot),
		Symptoms:  appt.Symptoms,
		Status:    appt.Status,
		CreatedAt: appt.CreatedAt,
		UpdatedAt: appt.UpdatedAt,
	}
}

// NewParty maps a resolved reference, tolerating missing users.
func NewParty(user *domain.User) *PartyResponse {
	if user == nil {
		return nil
	}
	return &PartyResponse{ID: user.ID, Name: user.Name, Specialization: user.Specialization}
}
