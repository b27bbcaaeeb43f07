package domain

import "time"

// HistoryChangeType identifies what an audit entry records.
type HistoryChangeType string

const (
	HistoryChangeCreated       HistoryChangeType = "created"
	HistoryChangeStatusChanged HistoryChangeType = "status_changed"
)

// AppointmentHistory is one audit entry for an appointment.
type AppointmentHistory struct {
	ID            string
	AppointmentID string
	ActorRole     Role
	ActorID       *string
	ChangeType    HistoryChangeType
	OldValue      *string
	NewValue      *string
	CreatedAt     time.Time
}
