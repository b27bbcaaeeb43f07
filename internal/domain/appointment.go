package domain

import "time"

// AppointmentStatus enumerates booking lifecycle states.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a booking of one doctor slot on one calendar day. Date
// carries day semantics only: it is normalized to midnight UTC before
// persistence so that all bucketing happens in a single zone. Cancellation is
// a status transition; cancelled rows are retained for audit and excluded
// from occupancy.
type Appointment struct {
	ID        string
	DoctorID  string
	PatientID *string
	Date      time.Time
	Slot      TimeSlot
	Symptoms  string
	Status    AppointmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the appointment still occupies its slot.
func (a *Appointment) Active() bool {
	return a != nil && a.Status != AppointmentStatusCancelled
}

// DayBucket truncates t to its UTC calendar day.
func DayBucket(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// DayKey formats a bucket as its ISO-8601 date string.
func DayKey(t time.Time) string {
	return DayBucket(t).Format("2006-01-02")
}
