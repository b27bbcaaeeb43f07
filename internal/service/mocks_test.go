package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/repository"
)

// -- Mock repositories --

type mockUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, user := range m.users {
		if user.Role == role {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role domain.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, user := range m.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

type mockAppointmentRepo struct {
	mu    sync.Mutex
	seq   int
	appts map[string]*domain.Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: make(map[string]*domain.Appointment)}
}

// Create mirrors the store's partial unique index: the occupancy check and
// the insert happen under one lock.
func (m *mockAppointmentRepo) Create(_ context.Context, appt *domain.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := domain.DayKey(appt.Date)
	for _, existing := range m.appts {
		if existing.Active() &&
			existing.DoctorID == appt.DoctorID &&
			domain.DayKey(existing.Date) == bucket &&
			existing.Slot == appt.Slot {
			return &pgconn.PgError{Code: "23505", ConstraintName: repository.SlotConstraintName}
		}
	}
	m.seq++
	appt.ID = fmt.Sprintf("appt-%d", m.seq)
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	clone := *appt
	m.appts[appt.ID] = &clone
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *appt
	return &clone, nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id string, status domain.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	appt.Status = status
	appt.UpdatedAt = time.Now()
	return nil
}

func (m *mockAppointmentRepo) ListWithFilter(_ context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Appointment
	for _, appt := range m.appts {
		if filter.DoctorID != nil && appt.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.PatientID != nil && (appt.PatientID == nil || *appt.PatientID != *filter.PatientID) {
			continue
		}
		if filter.DateFrom != nil && domain.DayBucket(appt.Date).Before(domain.DayBucket(*filter.DateFrom)) {
			continue
		}
		if filter.DateTo != nil && domain.DayBucket(appt.Date).After(domain.DayBucket(*filter.DateTo)) {
			continue
		}
		excluded := false
		for _, status := range filter.ExcludeStatuses {
			if appt.Status == status {
				excluded = true
			}
		}
		if excluded {
			continue
		}
		out = append(out, *appt)
	}
	return out, nil
}

type mockHistoryRepo struct {
	mu      sync.Mutex
	seq     int
	entries []domain.AppointmentHistory
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{}
}

func (m *mockHistoryRepo) Create(_ context.Context, entry *domain.AppointmentHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	entry.ID = fmt.Sprintf("history-%d", m.seq)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHistoryRepo) ListByAppointment(_ context.Context, appointmentID string) ([]domain.AppointmentHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AppointmentHistory
	for _, entry := range m.entries {
		if entry.AppointmentID == appointmentID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type mockSessionRepo struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{revoked: make(map[string]time.Time)}
}

func (m *mockSessionRepo) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

func (m *mockSessionRepo) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.revoked[tokenID]
	return ok && time.Now().Before(expiry), nil
}

// -- Fixtures --

func fixtureDoctor(t interface{ Fatalf(string, ...any) }, users *mockUserRepo, name string, slots []domain.TimeSlot) *domain.User {
	specialization := "Cardiology"
	experience := 5
	doctor := &domain.User{
		Name:           name,
		Email:          fmt.Sprintf("%s@demo.com", name),
		PasswordHash:   "hash",
		Role:           domain.RoleDoctor,
		Specialization: &specialization,
		Experience:     &experience,
		DeclaredSlots:  slots,
	}
	if err := users.Create(context.Background(), doctor); err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return doctor
}

func fixturePatient(t interface{ Fatalf(string, ...any) }, users *mockUserRepo, name string) *domain.User {
	patient := &domain.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@test.com", name),
		PasswordHash: "hash",
		Role:         domain.RolePatient,
	}
	if err := users.Create(context.Background(), patient); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return patient
}
