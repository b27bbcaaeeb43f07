package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// HistoryRepository stores appointment audit entries.
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.AppointmentHistory) error
	ListByAppointment(ctx context.Context, appointmentID string) ([]domain.AppointmentHistory, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Create(ctx context.Context, entry *domain.AppointmentHistory) error {
	const query = `
        INSERT INTO appointment_history (appointment_id, actor_role, actor_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.AppointmentID,
		entry.ActorRole,
		entry.ActorID,
		entry.ChangeType,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historyRepository) ListByAppointment(ctx context.Context, appointmentID string) ([]domain.AppointmentHistory, error) {
	const query = `
        SELECT id, appointment_id, actor_role, actor_id, change_type, old_value, new_value, created_at
        FROM appointment_history WHERE appointment_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AppointmentHistory
	for rows.Next() {
		var entry domain.AppointmentHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.AppointmentID,
			&entry.ActorRole,
			&entry.ActorID,
			&entry.ChangeType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
