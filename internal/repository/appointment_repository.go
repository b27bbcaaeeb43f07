package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// SlotConstraintName is the partial unique index guarding double bookings.
// Insert failures on it surface as a unique violation and map to Conflict.
const SlotConstraintName = "appointments_slot_unique"

// AppointmentFilter captures listing parameters.
type AppointmentFilter struct {
	DoctorID        *string
	PatientID       *string
	DateFrom        *time.Time
	DateTo          *time.Time
	ExcludeStatuses []domain.AppointmentStatus
}

// AppointmentRepository encapsulates appointment persistence.
type AppointmentRepository interface {
	// Create inserts the appointment. The store enforces slot uniqueness
	// atomically, so concurrent writers for the same (doctor, date, slot)
	// cannot both succeed.
	Create(ctx context.Context, appt *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus) error
	ListWithFilter(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository instantiates repository.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

func (r *appointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	const query = `
        INSERT INTO appointments (doctor_id, patient_id, date, time_slot, symptoms, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		appt.DoctorID,
		appt.PatientID,
		domain.DayBucket(appt.Date),
		appt.Slot,
		appt.Symptoms,
		appt.Status,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	const query = `
        SELECT id, doctor_id, patient_id, date, time_slot, symptoms, status, created_at, updated_at
        FROM appointments WHERE id=$1`

	var appt domain.Appointment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&appt.ID,
		&appt.DoctorID,
		&appt.PatientID,
		&appt.Date,
		&appt.Slot,
		&appt.Symptoms,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus) error {
	const query = `UPDATE appointments SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepository) ListWithFilter(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error) {
	base := `SELECT id, doctor_id, patient_id, date, time_slot, symptoms, status, created_at, updated_at
             FROM appointments`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		clauses = append(clauses, fmt.Sprintf("doctor_id=$%d", len(args)))
	}
	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		clauses = append(clauses, fmt.Sprintf("patient_id=$%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, domain.DayBucket(*filter.DateFrom))
		clauses = append(clauses, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, domain.DayBucket(*filter.DateTo))
		clauses = append(clauses, fmt.Sprintf("date <= $%d", len(args)))
	}
	for _, status := range filter.ExcludeStatuses {
		args = append(args, status)
		clauses = append(clauses, fmt.Sprintf("status <> $%d", len(args)))
	}

	query := base + " WHERE " + strings.Join(clauses, " AND ") + " ORDER BY date ASC, created_at ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Appointment
	for rows.Next() {
		var appt domain.Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.DoctorID,
			&appt.PatientID,
			&appt.Date,
			&appt.Slot,
			&appt.Symptoms,
			&appt.Status,
			&appt.CreatedAt,
			&appt.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, appt)
	}
	return result, rows.Err()
}
