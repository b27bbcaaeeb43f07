package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/repository"
	"github.com/spec-kit/appointment-service/pkg/util"
)

// DoctorService exposes the doctor directory.
type DoctorService struct {
	users repository.UserRepository
}

// NewDoctorService constructs the service.
func NewDoctorService(users repository.UserRepository) *DoctorService {
	return &DoctorService{users: users}
}

// ListDoctors returns all bookable doctors.
func (s *DoctorService) ListDoctors(ctx context.Context) ([]domain.User, error) {
	doctors, err := s.users.ListByRole(ctx, domain.RoleDoctor)
	if err != nil {
		return nil, util.MapError(err)
	}
	return doctors, nil
}

// GetDoctor fetches one doctor. Identities with another role are treated as
// absent rather than exposed.
func (s *DoctorService) GetDoctor(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("doctor", map[string]any{"id": id})
		}
		return nil, util.MapError(err)
	}
	if !user.IsDoctor() {
		return nil, util.NewNotFound("doctor", map[string]any{"id": id})
	}
	return user, nil
}
