package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/appointment-service/internal/auth"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/repository"
)

const demoDoctorCount = 10

var demoSpecializations = []string{
	"Cardiology", "Dermatology", "Endocrinology", "Gastroenterology",
	"Neurology", "Oncology", "Pediatrics", "Psychiatry", "Orthopedics", "General Medicine",
}

// SeedService provisions demo fixtures. It is only invoked explicitly, via
// configuration or test setup.
type SeedService struct {
	users      repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewSeedService constructs the service.
func NewSeedService(users repository.UserRepository, bcryptCost int, logger *zap.Logger) *SeedService {
	return &SeedService{users: users, bcryptCost: bcryptCost, logger: logger}
}

// SeedDemoDoctors tops the directory up to ten demo doctors. Safe to call
// repeatedly: existing demo emails are left untouched.
func (s *SeedService) SeedDemoDoctors(ctx context.Context) error {
	count, err := s.users.CountByRole(ctx, domain.RoleDoctor)
	if err != nil {
		return err
	}
	if count >= demoDoctorCount {
		return nil
	}

	created := 0
	for i := 0; i < demoDoctorCount; i++ {
		email := fmt.Sprintf("doctor%d@demo.com", i+1)
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			continue
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		hash, err := auth.HashPassword("demo", s.bcryptCost)
		if err != nil {
			return err
		}

		specialization := demoSpecializations[i%len(demoSpecializations)]
		experience := 5 + i
		doctor := &domain.User{
			Name:           fmt.Sprintf("Dr. Demo%d", i+1),
			Email:          email,
			PasswordHash:   hash,
			Role:           domain.RoleDoctor,
			Specialization: &specialization,
			Experience:     &experience,
			DeclaredSlots:  domain.AllTimeSlots(),
		}
		if err := s.users.Create(ctx, doctor); err != nil {
			return err
		}
		created++
	}

	if s.logger != nil {
		s.logger.Info("seeded demo doctors", zap.Int("created", created))
	}
	return nil
}
