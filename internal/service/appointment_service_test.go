package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/appointment-service/internal/auth"
	"github.com/spec-kit/appointment-service/internal/config"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/events"
	"go.uber.org/zap"
)

type appointmentFixture struct {
	service  *AppointmentService
	schedule *ScheduleService
	users    *mockUserRepo
	appts    *mockAppointmentRepo
	history  *mockHistoryRepo
	doctor   *domain.User
	patient  *domain.User
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	t.Helper()
	users := newMockUserRepo()
	appts := newMockAppointmentRepo()
	history := newMockHistoryRepo()
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, history, zap.NewNop()).RegisterHandlers()

	svc := NewAppointmentService(config.BookingConfig{HorizonDays: 30, WindowDays: 7}, AppointmentDependencies{
		AppointmentRepo: appts,
		UserRepo:        users,
		HistoryRepo:     history,
		Dispatcher:      dispatcher,
	})
	doctors := NewDoctorService(users)
	schedule := NewScheduleService(doctors, appts, config.BookingConfig{HorizonDays: 30, WindowDays: 7})

	return &appointmentFixture{
		service:  svc,
		schedule: schedule,
		users:    users,
		appts:    appts,
		history:  history,
		doctor:   fixtureDoctor(t, users, "Dr. Demo1", domain.AllTimeSlots()),
		patient:  fixturePatient(t, users, "alice"),
	}
}

func principalFor(user *domain.User) *auth.Principal {
	return &auth.Principal{User: user}
}

func (f *appointmentFixture) createInput(daysAhead int, slot domain.TimeSlot) CreateAppointmentInput {
	return CreateAppointmentInput{
		DoctorID: f.doctor.ID,
		Date:     time.Now().UTC().AddDate(0, 0, daysAhead),
		Slot:     slot,
		Symptoms: "persistent cough",
	}
}

func TestCreateAppointment(t *testing.T) {
	f := newAppointmentFixture(t)

	appt, err := f.service.Create(context.Background(), principalFor(f.patient), f.createInput(1, domain.Slot0900))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.Status != domain.AppointmentStatusPending {
		t.Fatalf("expected pending, got %s", appt.Status)
	}
	if appt.PatientID == nil || *appt.PatientID != f.patient.ID {
		t.Fatal("patient not taken from requesting identity")
	}
	if !appt.Date.Equal(domain.DayBucket(appt.Date)) {
		t.Fatal("date not normalized to day bucket")
	}

	entries, err := f.history.ListByAppointment(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 || entries[0].ChangeType != domain.HistoryChangeCreated {
		t.Fatalf("expected one created audit entry, got %+v", entries)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	f := newAppointmentFixture(t)
	principal := principalFor(f.patient)

	tests := []struct {
		name  string
		input CreateAppointmentInput
		code  string
	}{
		{"missing doctor", CreateAppointmentInput{Date: time.Now().UTC(), Slot: domain.Slot0900, Symptoms: "x"}, "VALIDATION_FAILED"},
		{"missing date", CreateAppointmentInput{DoctorID: f.doctor.ID, Slot: domain.Slot0900, Symptoms: "x"}, "VALIDATION_FAILED"},
		{"missing slot", CreateAppointmentInput{DoctorID: f.doctor.ID, Date: time.Now().UTC(), Symptoms: "x"}, "VALIDATION_FAILED"},
		{"missing symptoms", CreateAppointmentInput{DoctorID: f.doctor.ID, Date: time.Now().UTC(), Slot: domain.Slot0900}, "VALIDATION_FAILED"},
		{"unknown slot label", CreateAppointmentInput{DoctorID: f.doctor.ID, Date: time.Now().UTC(), Slot: "1:00 PM", Symptoms: "x"}, "VALIDATION_FAILED"},
		{"past date", f.createInput(-1, domain.Slot0900), "VALIDATION_FAILED"},
		{"beyond horizon", f.createInput(31, domain.Slot0900), "VALIDATION_FAILED"},
		{"unknown doctor", CreateAppointmentInput{DoctorID: "missing", Date: time.Now().UTC(), Slot: domain.Slot0900, Symptoms: "x"}, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), principal, tt.input)
			assertErrorCode(t, err, tt.code)
		})
	}
}

func TestCreateAppointmentSameDayAllowed(t *testing.T) {
	f := newAppointmentFixture(t)

	if _, err := f.service.Create(context.Background(), principalFor(f.patient), f.createInput(0, domain.Slot1400)); err != nil {
		t.Fatalf("same-day booking should pass: %v", err)
	}
}

func TestCreateAppointmentUndeclaredSlot(t *testing.T) {
	f := newAppointmentFixture(t)
	limited := fixtureDoctor(t, f.users, "Dr. Morning", []domain.TimeSlot{domain.Slot0900, domain.Slot0930})

	input := f.createInput(1, domain.Slot1400)
	input.DoctorID = limited.ID
	_, err := f.service.Create(context.Background(), principalFor(f.patient), input)
	assertErrorCode(t, err, "VALIDATION_FAILED")
}

func TestCreateAppointmentBookingPatientAsDoctorFails(t *testing.T) {
	f := newAppointmentFixture(t)

	input := f.createInput(1, domain.Slot0900)
	input.DoctorID = f.patient.ID
	_, err := f.service.Create(context.Background(), principalFor(f.patient), input)
	assertErrorCode(t, err, "NOT_FOUND")
}

func TestCreateAppointmentConflict(t *testing.T) {
	f := newAppointmentFixture(t)
	principal := principalFor(f.patient)

	if _, err := f.service.Create(context.Background(), principal, f.createInput(1, domain.Slot0900)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.service.Create(context.Background(), principal, f.createInput(1, domain.Slot0900))
	assertErrorCode(t, err, "CONFLICT")

	// A different slot on the same day is still free.
	if _, err := f.service.Create(context.Background(), principal, f.createInput(1, domain.Slot0930)); err != nil {
		t.Fatalf("other slot: %v", err)
	}
}

func TestCreateAppointmentConcurrentConflict(t *testing.T) {
	f := newAppointmentFixture(t)

	const writers = 2
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Create(context.Background(), principalFor(f.patient), f.createInput(2, domain.Slot1030))
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			assertErrorCode(t, err, "CONFLICT")
			conflicted++
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("expected exactly one success and one conflict, got %d/%d", succeeded, conflicted)
	}
}

func TestCreateThenAvailabilityRoundTrip(t *testing.T) {
	f := newAppointmentFixture(t)
	input := f.createInput(3, domain.Slot1530)

	if _, err := f.service.Create(context.Background(), principalFor(f.patient), input); err != nil {
		t.Fatalf("create: %v", err)
	}

	available, err := f.schedule.AvailableForDate(context.Background(), f.doctor.ID, input.Date)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	for _, slot := range available {
		if slot == input.Slot {
			t.Fatal("created slot still appears available")
		}
	}
}

func TestListScopedByRole(t *testing.T) {
	f := newAppointmentFixture(t)
	otherPatient := fixturePatient(t, f.users, "bob")
	otherDoctor := fixtureDoctor(t, f.users, "Dr. Demo2", domain.AllTimeSlots())
	admin := &domain.User{Name: "root", Email: "root@test.com", PasswordHash: "hash", Role: domain.RoleAdmin}
	if err := f.users.Create(context.Background(), admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	mustCreate := func(patient *domain.User, doctorID string, slot domain.TimeSlot) {
		input := f.createInput(1, slot)
		input.DoctorID = doctorID
		if _, err := f.service.Create(context.Background(), principalFor(patient), input); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mustCreate(f.patient, f.doctor.ID, domain.Slot0900)
	mustCreate(otherPatient, f.doctor.ID, domain.Slot0930)
	mustCreate(otherPatient, otherDoctor.ID, domain.Slot0900)

	views, err := f.service.List(context.Background(), principalFor(f.patient))
	if err != nil {
		t.Fatalf("list as patient: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("patient should see 1 appointment, got %d", len(views))
	}
	for _, view := range views {
		if view.Appointment.PatientID == nil || *view.Appointment.PatientID != f.patient.ID {
			t.Fatal("patient listing leaked another patient's appointment")
		}
	}

	views, err = f.service.List(context.Background(), principalFor(f.doctor))
	if err != nil {
		t.Fatalf("list as doctor: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("doctor should see 2 appointments, got %d", len(views))
	}
	for _, view := range views {
		if view.Appointment.DoctorID != f.doctor.ID {
			t.Fatal("doctor listing leaked another doctor's appointment")
		}
	}

	views, err = f.service.List(context.Background(), principalFor(admin))
	if err != nil {
		t.Fatalf("list as admin: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("admin should see all 3 appointments, got %d", len(views))
	}
	for _, view := range views {
		if view.Doctor == nil || view.Doctor.Name == "" {
			t.Fatal("doctor reference not resolved")
		}
	}
}

func TestCancelAppointment(t *testing.T) {
	f := newAppointmentFixture(t)
	appt, err := f.service.Create(context.Background(), principalFor(f.patient), f.createInput(1, domain.Slot0900))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled, err := f.service.Cancel(context.Background(), principalFor(f.patient), appt.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.AppointmentStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// Row is retained for audit, with the transition recorded.
	stored, err := f.appts.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("cancelled row was deleted: %v", err)
	}
	if stored.Status != domain.AppointmentStatusCancelled {
		t.Fatalf("stored status %s", stored.Status)
	}
	entries, _ := f.history.ListByAppointment(context.Background(), appt.ID)
	if len(entries) != 2 {
		t.Fatalf("expected created + status_changed entries, got %d", len(entries))
	}
	if entries[1].ChangeType != domain.HistoryChangeStatusChanged {
		t.Fatalf("expected status_changed, got %s", entries[1].ChangeType)
	}

	// Slot is bookable again.
	if _, err := f.service.Create(context.Background(), principalFor(f.patient), f.createInput(1, domain.Slot0900)); err != nil {
		t.Fatalf("rebooking freed slot: %v", err)
	}
}

func TestCancelAuthorization(t *testing.T) {
	f := newAppointmentFixture(t)
	stranger := fixturePatient(t, f.users, "mallory")
	admin := &domain.User{Name: "root", Email: "root@test.com", PasswordHash: "hash", Role: domain.RoleAdmin}
	if err := f.users.Create(context.Background(), admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	appt, err := f.service.Create(context.Background(), principalFor(f.patient), f.createInput(1, domain.Slot0900))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.service.Cancel(context.Background(), principalFor(stranger), appt.ID)
	assertErrorCode(t, err, "FORBIDDEN")

	_, err = f.service.Cancel(context.Background(), principalFor(f.patient), "missing")
	assertErrorCode(t, err, "NOT_FOUND")

	// Doctor and admin may both cancel.
	if _, err := f.service.Cancel(context.Background(), principalFor(f.doctor), appt.ID); err != nil {
		t.Fatalf("doctor cancel: %v", err)
	}
	appt2, err := f.service.Create(context.Background(), principalFor(f.patient), f.createInput(1, domain.Slot0930))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Cancel(context.Background(), principalFor(admin), appt2.ID); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
}

func TestListHistoryAuthorization(t *testing.T) {
	f := newAppointmentFixture(t)
	stranger := fixturePatient(t, f.users, "mallory")

	appt, err := f.service.Create(context.Background(), principalFor(f.patient), f.createInput(1, domain.Slot0900))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.service.ListHistory(context.Background(), principalFor(f.patient), appt.ID); err != nil {
		t.Fatalf("owner history: %v", err)
	}
	_, err = f.service.ListHistory(context.Background(), principalFor(stranger), appt.ID)
	assertErrorCode(t, err, "FORBIDDEN")
}
