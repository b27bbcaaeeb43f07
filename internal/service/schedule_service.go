package service

import (
	"context"
	"time"

	"github.com/spec-kit/appointment-service/internal/config"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/repository"
	"github.com/spec-kit/appointment-service/pkg/util"
)

// ScheduleService computes slot availability for doctors. Availability is
// always recomputed from the store; nothing is cached across requests. All
// day bucketing is done in UTC.
type ScheduleService struct {
	doctors      *DoctorService
	appointments repository.AppointmentRepository
	windowDays   int
}

// NewScheduleService constructs the service.
func NewScheduleService(doctors *DoctorService, appointments repository.AppointmentRepository, cfg config.BookingConfig) *ScheduleService {
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 7
	}
	return &ScheduleService{doctors: doctors, appointments: appointments, windowDays: windowDays}
}

// AvailableForDate returns the doctor's declared slots not taken by a live
// appointment on the given day, in declared order. A doctor with no declared
// slots yields an empty sequence.
func (s *ScheduleService) AvailableForDate(ctx context.Context, doctorID string, date time.Time) ([]domain.TimeSlot, error) {
	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	bucket := domain.DayBucket(date)
	booked, err := s.bookedByDay(ctx, doctorID, bucket, bucket)
	if err != nil {
		return nil, err
	}
	return subtract(doctor.DeclaredSlots, booked[domain.DayKey(bucket)]), nil
}

// AvailableWindow maps each day of the rolling window starting at from to the
// doctor's free slots for that day.
func (s *ScheduleService) AvailableWindow(ctx context.Context, doctorID string, from time.Time) (map[string][]domain.TimeSlot, error) {
	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	start := domain.DayBucket(from)
	end := start.AddDate(0, 0, s.windowDays-1)
	booked, err := s.bookedByDay(ctx, doctorID, start, end)
	if err != nil {
		return nil, err
	}

	window := make(map[string][]domain.TimeSlot, s.windowDays)
	for i := 0; i < s.windowDays; i++ {
		day := start.AddDate(0, 0, i)
		window[domain.DayKey(day)] = subtract(doctor.DeclaredSlots, booked[domain.DayKey(day)])
	}
	return window, nil
}

// BookedForDate returns the slots consumed by live appointments on the given
// day, in catalog order.
func (s *ScheduleService) BookedForDate(ctx context.Context, doctorID string, date time.Time) ([]domain.TimeSlot, error) {
	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	bucket := domain.DayBucket(date)
	booked, err := s.bookedByDay(ctx, doctorID, bucket, bucket)
	if err != nil {
		return nil, err
	}

	taken := booked[domain.DayKey(bucket)]
	ordered := make([]domain.TimeSlot, 0, len(taken))
	for _, slot := range domain.AllTimeSlots() {
		if _, ok := taken[slot]; ok {
			ordered = append(ordered, slot)
		}
	}
	return ordered, nil
}

func (s *ScheduleService) bookedByDay(ctx context.Context, doctorID string, from, to time.Time) (map[string]map[domain.TimeSlot]struct{}, error) {
	appts, err := s.appointments.ListWithFilter(ctx, repository.AppointmentFilter{
		DoctorID:        &doctorID,
		DateFrom:        &from,
		DateTo:          &to,
		ExcludeStatuses: []domain.AppointmentStatus{domain.AppointmentStatusCancelled},
	})
	if err != nil {
		return nil, util.MapError(err)
	}

	booked := make(map[string]map[domain.TimeSlot]struct{})
	for _, appt := range appts {
		key := domain.DayKey(appt.Date)
		if booked[key] == nil {
			booked[key] = make(map[domain.TimeSlot]struct{})
		}
		booked[key][appt.Slot] = struct{}{}
	}
	return booked, nil
}

func subtract(declared []domain.TimeSlot, taken map[domain.TimeSlot]struct{}) []domain.TimeSlot {
	free := make([]domain.TimeSlot, 0, len(declared))
	for _, slot := range declared {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free
}
