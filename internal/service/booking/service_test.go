package booking

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicware/clinic-api/internal/model"
	"github.com/clinicware/clinic-api/internal/notification"
	"github.com/clinicware/clinic-api/internal/repository"
	"github.com/clinicware/clinic-api/internal/service/scheduling"
	apperrors "github.com/clinicware/clinic-api/pkg/errors"
)

// fakeAppointmentRepo is an in-memory AppointmentRepository that enforces
// the same partial uniqueness as the schema: at most one Booked/Completed
// appointment per (doctor, date, time).
type fakeAppointmentRepo struct {
	appts      map[uuid.UUID]*model.Appointment
	treatments map[uuid.UUID]*model.Treatment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appts:      make(map[uuid.UUID]*model.Appointment),
		treatments: make(map[uuid.UUID]*model.Treatment),
	}
}

func (r *fakeAppointmentRepo) slotTaken(candidate *model.Appointment) bool {
	if !candidate.Status.Occupies() || candidate.DoctorID == nil {
		return false
	}
	for _, a := range r.appts {
		if a.ID == candidate.ID || !a.Status.Occupies() || a.DoctorID == nil {
			continue
		}
		if *a.DoctorID == *candidate.DoctorID && a.Date == candidate.Date && a.Time == candidate.Time {
			return true
		}
	}
	return false
}

func (r *fakeAppointmentRepo) Create(_ context.Context, appt *model.Appointment) error {
	if r.slotTaken(appt) {
		return &pq.Error{Code: "23505"}
	}
	appt.ID = uuid.New()
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	clone := *appt
	r.appts[appt.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, ok := r.appts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *appt
	return &clone, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, appt *model.Appointment) error {
	if _, ok := r.appts[appt.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.slotTaken(appt) {
		return &pq.Error{Code: "23505"}
	}
	clone := *appt
	r.appts[appt.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.appts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.appts, id)
	delete(r.treatments, id)
	return nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range r.appts {
		if filters.PatientID != nil && a.PatientID != *filters.PatientID {
			continue
		}
		if filters.DoctorID != nil && (a.DoctorID == nil || *a.DoctorID != *filters.DoctorID) {
			continue
		}
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		clone := *a
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (r *fakeAppointmentRepo) OccupiedTimes(_ context.Context, doctorID uuid.UUID, date model.Date) ([]model.TimeOfDay, error) {
	var times []model.TimeOfDay
	for _, a := range r.appts {
		if a.DoctorID != nil && *a.DoctorID == doctorID && a.Date == date && a.Status.Occupies() {
			times = append(times, a.Time)
		}
	}
	return times, nil
}

func (r *fakeAppointmentRepo) HasFutureBookedWithDoctor(_ context.Context, patientID, doctorID uuid.UUID, from model.Date) (bool, error) {
	for _, a := range r.appts {
		if a.PatientID == patientID && a.DoctorID != nil && *a.DoctorID == doctorID &&
			a.Status == model.AppointmentStatusBooked && !a.Date.Before(from) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppointmentRepo) HasBookedAt(_ context.Context, patientID uuid.UUID, date model.Date, t model.TimeOfDay, excludeID *uuid.UUID) (bool, error) {
	for _, a := range r.appts {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.PatientID == patientID && a.Date == date && a.Time == t && a.Status == model.AppointmentStatusBooked {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppointmentRepo) CountByStatus(_ context.Context) (*model.StatusCounts, error) {
	counts := &model.StatusCounts{}
	for _, a := range r.appts {
		switch a.Status {
		case model.AppointmentStatusBooked:
			counts.Booked++
		case model.AppointmentStatusCompleted:
			counts.Completed++
		case model.AppointmentStatusCancelled:
			counts.Cancelled++
		}
	}
	return counts, nil
}

func (r *fakeAppointmentRepo) SaveTreatment(_ context.Context, treatment *model.Treatment, complete bool) error {
	if treatment.ID == uuid.Nil {
		treatment.ID = uuid.New()
	}
	clone := *treatment
	r.treatments[treatment.AppointmentID] = &clone
	if complete {
		if appt, ok := r.appts[treatment.AppointmentID]; ok {
			appt.Status = model.AppointmentStatusCompleted
		}
	}
	return nil
}

func (r *fakeAppointmentRepo) GetTreatment(_ context.Context, appointmentID uuid.UUID) (*model.Treatment, error) {
	t, ok := r.treatments[appointmentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

// racyAppointmentRepo reports every slot as free so inserts reach the
// uniqueness check, simulating concurrent requests.
type racyAppointmentRepo struct {
	*fakeAppointmentRepo
}

func (r *racyAppointmentRepo) OccupiedTimes(context.Context, uuid.UUID, model.Date) ([]model.TimeOfDay, error) {
	return nil, nil
}

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{doctors: make(map[uuid.UUID]*model.Doctor)}
}

func (r *fakeDoctorRepo) add(blacklisted bool) uuid.UUID {
	id := uuid.New()
	r.doctors[id] = &model.Doctor{
		Base:          model.Base{ID: id},
		UserID:        uuid.New(),
		IsBlacklisted: blacklisted,
	}
	return id
}

func (r *fakeDoctorRepo) Create(context.Context, *model.User, *model.Doctor) error { return nil }

func (r *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (r *fakeDoctorRepo) GetByUserID(context.Context, uuid.UUID) (*model.Doctor, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeDoctorRepo) Update(context.Context, *model.User, *model.Doctor) error { return nil }
func (r *fakeDoctorRepo) Delete(context.Context, uuid.UUID) error                  { return nil }
func (r *fakeDoctorRepo) List(context.Context, *model.DoctorFilters) ([]*model.Doctor, error) {
	return nil, nil
}
func (r *fakeDoctorRepo) SetBlacklisted(context.Context, uuid.UUID, bool) error { return nil }
func (r *fakeDoctorRepo) CountAppointments(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}
func (r *fakeDoctorRepo) Count(context.Context) (int, error) { return len(r.doctors), nil }

// fakePatientRepo only serves the dashboard count; booking never touches
// patient records otherwise.
type fakePatientRepo struct {
	repository.PatientRepository
	count int
}

func (r *fakePatientRepo) Count(context.Context) (int, error) { return r.count, nil }

type fakeAvailabilityRepo struct {
	windows map[uuid.UUID]*model.AvailabilityWindow
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{windows: make(map[uuid.UUID]*model.AvailabilityWindow)}
}

func (r *fakeAvailabilityRepo) add(doctorID uuid.UUID, date model.Date, start, end model.TimeOfDay) {
	id := uuid.New()
	r.windows[id] = &model.AvailabilityWindow{
		Base:      model.Base{ID: id},
		DoctorID:  doctorID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	}
}

func (r *fakeAvailabilityRepo) Create(_ context.Context, w *model.AvailabilityWindow) error {
	w.ID = uuid.New()
	clone := *w
	r.windows[w.ID] = &clone
	return nil
}

func (r *fakeAvailabilityRepo) Get(_ context.Context, id uuid.UUID) (*model.AvailabilityWindow, error) {
	w, ok := r.windows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return w, nil
}

func (r *fakeAvailabilityRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.windows, id)
	return nil
}

func (r *fakeAvailabilityRepo) ListForDate(_ context.Context, doctorID uuid.UUID, date model.Date) ([]*model.AvailabilityWindow, error) {
	var out []*model.AvailabilityWindow
	for _, w := range r.windows {
		if w.DoctorID == doctorID && w.Date == date {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) ListBetween(_ context.Context, doctorID uuid.UUID, from, to model.Date) ([]*model.AvailabilityWindow, error) {
	var out []*model.AvailabilityWindow
	for _, w := range r.windows {
		if w.DoctorID == doctorID && !w.Date.Before(from) && !w.Date.After(to) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) HasOverlap(_ context.Context, doctorID uuid.UUID, date model.Date, start, end model.TimeOfDay) (bool, error) {
	for _, w := range r.windows {
		if w.DoctorID == doctorID && w.Date == date && w.StartTime <= end && w.EndTime >= start {
			return true, nil
		}
	}
	return false, nil
}

type fixture struct {
	svc      *Service
	appts    *fakeAppointmentRepo
	doctors  *fakeDoctorRepo
	windows  *fakeAvailabilityRepo
	doctorID uuid.UUID
	tomorrow model.Date
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	appts := newFakeAppointmentRepo()
	doctors := newFakeDoctorRepo()
	windows := newFakeAvailabilityRepo()

	logger := zerolog.Nop()
	scheduler := scheduling.NewService(windows, appts, logger)
	svc := NewService(appts, doctors, &fakePatientRepo{count: 3}, scheduler, notification.Noop{}, logger)

	doctorID := doctors.add(false)
	tomorrow := model.Today().AddDays(1)
	windows.add(doctorID, tomorrow, mustTime(t, "09:00"), mustTime(t, "11:00"))

	return &fixture{
		svc:      svc,
		appts:    appts,
		doctors:  doctors,
		windows:  windows,
		doctorID: doctorID,
		tomorrow: tomorrow,
	}
}

func mustTime(t *testing.T, s string) model.TimeOfDay {
	t.Helper()
	parsed, err := model.ParseTimeOfDay(s)
	require.NoError(t, err)
	return parsed
}

func patientCaller(patientID uuid.UUID) model.Caller {
	return model.Caller{UserID: uuid.New(), Role: model.RolePatient, PatientID: &patientID}
}

func doctorCaller(doctorID uuid.UUID) model.Caller {
	return model.Caller{UserID: uuid.New(), Role: model.RoleDoctor, DoctorID: &doctorID}
}

func adminCaller() model.Caller {
	return model.Caller{UserID: uuid.New(), Role: model.RoleAdmin}
}

func TestBook(t *testing.T) {
	ctx := context.Background()

	t.Run("books a free slot", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()

		appt, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, mustTime(t, "09:30"))
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusBooked, appt.Status)
		assert.Equal(t, f.tomorrow, appt.Date)
		assert.NotEqual(t, uuid.Nil, appt.ID)
	})

	t.Run("unknown doctor is reported unavailable", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Book(ctx, uuid.New(), uuid.New(), f.tomorrow, mustTime(t, "09:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindDoctorUnavailable))
	})

	t.Run("blacklisted doctor is reported unavailable", func(t *testing.T) {
		f := newFixture(t)
		blacklisted := f.doctors.add(true)
		f.windows.add(blacklisted, f.tomorrow, mustTime(t, "09:00"), mustTime(t, "11:00"))

		_, err := f.svc.Book(ctx, uuid.New(), blacklisted, f.tomorrow, mustTime(t, "09:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindDoctorUnavailable))
	})

	t.Run("rejects today and past dates", func(t *testing.T) {
		f := newFixture(t)
		for _, date := range []model.Date{model.Today(), model.Today().AddDays(-1)} {
			_, err := f.svc.Book(ctx, uuid.New(), f.doctorID, date, mustTime(t, "09:00"))
			assert.True(t, apperrors.IsKind(err, apperrors.KindDateOutOfRange), "date %s", date)
		}
	})

	t.Run("rejects dates beyond the horizon", func(t *testing.T) {
		f := newFixture(t)
		tooFar := model.Today().AddDays(scheduling.HorizonDays + 1)
		f.windows.add(f.doctorID, tooFar, mustTime(t, "09:00"), mustTime(t, "11:00"))

		_, err := f.svc.Book(ctx, uuid.New(), f.doctorID, tooFar, mustTime(t, "09:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindDateOutOfRange))
	})

	t.Run("accepts the last day of the horizon", func(t *testing.T) {
		f := newFixture(t)
		edge := model.Today().AddDays(scheduling.HorizonDays)
		f.windows.add(f.doctorID, edge, mustTime(t, "09:00"), mustTime(t, "11:00"))

		_, err := f.svc.Book(ctx, uuid.New(), f.doctorID, edge, mustTime(t, "10:00"))
		assert.NoError(t, err)
	})

	t.Run("rejects a time outside any window", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "14:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindSlotUnavailable))
	})

	t.Run("rejects a misaligned time inside a window", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:15"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindSlotUnavailable))
	})

	t.Run("rejects an occupied slot", func(t *testing.T) {
		f := newFixture(t)
		slot := mustTime(t, "09:00")
		_, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, slot)
		require.NoError(t, err)

		_, err = f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, slot)
		assert.True(t, apperrors.IsKind(err, apperrors.KindSlotUnavailable))
	})

	t.Run("rejects a second active booking with the same doctor", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()
		_, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		_, err = f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, mustTime(t, "10:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindDuplicateDoctorBooking))
	})

	t.Run("rejects overlapping appointment with a different doctor", func(t *testing.T) {
		f := newFixture(t)
		other := f.doctors.add(false)
		f.windows.add(other, f.tomorrow, mustTime(t, "09:00"), mustTime(t, "11:00"))

		patientID := uuid.New()
		slot := mustTime(t, "09:30")
		_, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, slot)
		require.NoError(t, err)

		_, err = f.svc.Book(ctx, patientID, other, f.tomorrow, slot)
		assert.True(t, apperrors.IsKind(err, apperrors.KindPatientTimeConflict))
	})

	t.Run("unique violation on insert maps to slot unavailable", func(t *testing.T) {
		f := newFixture(t)
		slot := mustTime(t, "10:00")
		// Hide occupancy from the advisory free-slot check so both
		// bookings pass validation and the second one loses the race at
		// the unique index, like two concurrent requests.
		racy := &racyAppointmentRepo{fakeAppointmentRepo: f.appts}
		scheduler := scheduling.NewService(f.windows, racy, zerolog.Nop())
		svc := NewService(racy, f.doctors, &fakePatientRepo{}, scheduler, notification.Noop{}, zerolog.Nop())

		_, err := svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, slot)
		require.NoError(t, err)

		_, err = svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, slot)
		assert.True(t, apperrors.IsKind(err, apperrors.KindSlotUnavailable))
	})

	t.Run("completed appointment keeps its slot occupied", func(t *testing.T) {
		f := newFixture(t)
		slot := mustTime(t, "09:00")
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, slot)
		require.NoError(t, err)

		_, err = f.svc.SetStatus(ctx, adminCaller(), appt.ID, model.AppointmentStatusCompleted)
		require.NoError(t, err)

		_, err = f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, slot)
		assert.True(t, apperrors.IsKind(err, apperrors.KindSlotUnavailable))
	})
}

func TestCancelFreesSlotForOtherPatient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slot := mustTime(t, "09:30")

	patientID := uuid.New()
	appt, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, slot)
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, slot)
	require.True(t, apperrors.IsKind(err, apperrors.KindSlotUnavailable))

	_, err = f.svc.Cancel(ctx, patientCaller(patientID), appt.ID)
	require.NoError(t, err)

	rebooked, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, slot)
	require.NoError(t, err)
	assert.Equal(t, slot, rebooked.Time)

	// The cancelled row survives as history.
	cancelled, err := f.appts.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
}

func TestReschedule(t *testing.T) {
	ctx := context.Background()

	book := func(t *testing.T, f *fixture, patientID uuid.UUID, timeStr string) *model.Appointment {
		t.Helper()
		appt, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, mustTime(t, timeStr))
		require.NoError(t, err)
		return appt
	}

	t.Run("moves to another free slot", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()
		appt := book(t, f, patientID, "09:00")

		moved, err := f.svc.Reschedule(ctx, patientCaller(patientID), appt.ID, f.tomorrow, mustTime(t, "10:30"))
		require.NoError(t, err)
		assert.Equal(t, mustTime(t, "10:30"), moved.Time)

		free, err := f.svc.scheduler.FreeSlots(ctx, f.doctorID, f.tomorrow)
		require.NoError(t, err)
		assert.Contains(t, free, mustTime(t, "09:00"))
		assert.NotContains(t, free, mustTime(t, "10:30"))
	})

	t.Run("keeping the same slot does not conflict with itself", func(t *testing.T) {
		f := newFixture(t)
		nextDay := f.tomorrow.AddDays(1)
		f.windows.add(f.doctorID, nextDay, mustTime(t, "09:00"), mustTime(t, "11:00"))

		patientID := uuid.New()
		appt := book(t, f, patientID, "09:00")

		// Same time on a different day; the existing row must be excluded
		// from the patient-conflict check.
		_, err := f.svc.Reschedule(ctx, patientCaller(patientID), appt.ID, nextDay, mustTime(t, "09:00"))
		assert.NoError(t, err)
	})

	t.Run("another patient cannot reschedule it", func(t *testing.T) {
		f := newFixture(t)
		appt := book(t, f, uuid.New(), "09:00")

		_, err := f.svc.Reschedule(ctx, patientCaller(uuid.New()), appt.ID, f.tomorrow, mustTime(t, "10:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("cancelled appointment cannot be rescheduled", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()
		appt := book(t, f, patientID, "09:00")
		_, err := f.svc.Cancel(ctx, patientCaller(patientID), appt.ID)
		require.NoError(t, err)

		_, err = f.svc.Reschedule(ctx, patientCaller(patientID), appt.ID, f.tomorrow, mustTime(t, "10:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("target slot must be free", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()
		appt := book(t, f, patientID, "09:00")
		book(t, f, uuid.New(), "10:00")

		_, err := f.svc.Reschedule(ctx, patientCaller(patientID), appt.ID, f.tomorrow, mustTime(t, "10:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindSlotUnavailable))
	})

	t.Run("target date must be within the horizon", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()
		appt := book(t, f, patientID, "09:00")

		_, err := f.svc.Reschedule(ctx, patientCaller(patientID), appt.ID, model.Today().AddDays(scheduling.HorizonDays+1), mustTime(t, "09:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindDateOutOfRange))
	})

	t.Run("missing appointment is not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Reschedule(ctx, patientCaller(uuid.New()), uuid.New(), f.tomorrow, mustTime(t, "09:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("doctor can cancel own appointment", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		cancelled, err := f.svc.Cancel(ctx, doctorCaller(f.doctorID), appt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	})

	t.Run("doctor cannot cancel another doctor's appointment", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, doctorCaller(uuid.New()), appt.ID)
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()
		appt, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		caller := patientCaller(patientID)
		_, err = f.svc.Cancel(ctx, caller, appt.ID)
		require.NoError(t, err)
		again, err := f.svc.Cancel(ctx, caller, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusCancelled, again.Status)
	})

	t.Run("completed appointment cannot be cancelled even by admin", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)
		_, err = f.svc.SetStatus(ctx, adminCaller(), appt.ID, model.AppointmentStatusCompleted)
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, adminCaller(), appt.ID)
		assert.True(t, apperrors.IsKind(err, apperrors.KindIllegalTransition))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("booked to completed", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		updated, err := f.svc.SetStatus(ctx, doctorCaller(f.doctorID), appt.ID, model.AppointmentStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusCompleted, updated.Status)
	})

	t.Run("completed to booked is rejected here", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)
		_, err = f.svc.SetStatus(ctx, adminCaller(), appt.ID, model.AppointmentStatusCompleted)
		require.NoError(t, err)

		_, err = f.svc.SetStatus(ctx, adminCaller(), appt.ID, model.AppointmentStatusBooked)
		assert.True(t, apperrors.IsKind(err, apperrors.KindIllegalTransition))
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		updated, err := f.svc.SetStatus(ctx, adminCaller(), appt.ID, model.AppointmentStatusBooked)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusBooked, updated.Status)
	})

	t.Run("patients cannot change status", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()
		appt, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		_, err = f.svc.SetStatus(ctx, patientCaller(patientID), appt.ID, model.AppointmentStatusCompleted)
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("invalid status is rejected", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		_, err = f.svc.SetStatus(ctx, adminCaller(), appt.ID, model.AppointmentStatus("Pending"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})
}

func TestReopen(t *testing.T) {
	ctx := context.Background()

	t.Run("admin reopens a completed appointment", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)
		_, err = f.svc.SetStatus(ctx, adminCaller(), appt.ID, model.AppointmentStatusCompleted)
		require.NoError(t, err)

		reopened, err := f.svc.Reopen(ctx, adminCaller(), appt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusBooked, reopened.Status)
	})

	t.Run("non-admins cannot reopen", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		_, err = f.svc.Reopen(ctx, doctorCaller(f.doctorID), appt.ID)
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("only completed appointments can be reopened", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		_, err = f.svc.Reopen(ctx, adminCaller(), appt.ID)
		assert.True(t, apperrors.IsKind(err, apperrors.KindIllegalTransition))
	})
}

func TestRecordTreatment(t *testing.T) {
	ctx := context.Background()

	t.Run("saving a treatment completes a booked appointment", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		treatment, err := f.svc.RecordTreatment(ctx, doctorCaller(f.doctorID), appt.ID, &model.SaveTreatmentRequest{
			Diagnosis:    "seasonal allergies",
			Prescription: "antihistamine",
		})
		require.NoError(t, err)
		require.NotNil(t, treatment.Diagnosis)
		assert.Equal(t, "seasonal allergies", *treatment.Diagnosis)

		stored, err := f.appts.Get(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusCompleted, stored.Status)
	})

	t.Run("resaving updates the existing treatment", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		caller := doctorCaller(f.doctorID)
		first, err := f.svc.RecordTreatment(ctx, caller, appt.ID, &model.SaveTreatmentRequest{Diagnosis: "draft"})
		require.NoError(t, err)
		second, err := f.svc.RecordTreatment(ctx, caller, appt.ID, &model.SaveTreatmentRequest{Diagnosis: "final"})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "final", *second.Diagnosis)
	})

	t.Run("cancelled appointments take no treatment", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()
		appt, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, patientCaller(patientID), appt.ID)
		require.NoError(t, err)

		_, err = f.svc.RecordTreatment(ctx, doctorCaller(f.doctorID), appt.ID, &model.SaveTreatmentRequest{Diagnosis: "late"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("another doctor cannot record treatment", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		_, err = f.svc.RecordTreatment(ctx, doctorCaller(uuid.New()), appt.ID, &model.SaveTreatmentRequest{Diagnosis: "x"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("admin deletes any appointment", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, adminCaller(), appt.ID))
		_, err = f.appts.Get(ctx, appt.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("patient deletes own future booked appointment", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()
		appt, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		assert.NoError(t, f.svc.Delete(ctx, patientCaller(patientID), appt.ID))
	})

	t.Run("patient cannot delete a completed appointment", func(t *testing.T) {
		f := newFixture(t)
		patientID := uuid.New()
		appt, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)
		_, err = f.svc.SetStatus(ctx, adminCaller(), appt.ID, model.AppointmentStatusCompleted)
		require.NoError(t, err)

		err = f.svc.Delete(ctx, patientCaller(patientID), appt.ID)
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("doctors cannot delete appointments", func(t *testing.T) {
		f := newFixture(t)
		appt, err := f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "09:00"))
		require.NoError(t, err)

		err = f.svc.Delete(ctx, doctorCaller(f.doctorID), appt.ID)
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})
}

func TestListScoping(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	patientA := uuid.New()
	patientB := uuid.New()
	_, err := f.svc.Book(ctx, patientA, f.doctorID, f.tomorrow, mustTime(t, "09:00"))
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, patientB, f.doctorID, f.tomorrow, mustTime(t, "10:00"))
	require.NoError(t, err)

	all, err := f.svc.List(ctx, adminCaller(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.List(ctx, patientCaller(patientA), nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, patientA, mine[0].PatientID)

	doctors, err := f.svc.List(ctx, doctorCaller(f.doctorID), nil)
	require.NoError(t, err)
	assert.Len(t, doctors, 2)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	patientID := uuid.New()
	appt, err := f.svc.Book(ctx, patientID, f.doctorID, f.tomorrow, mustTime(t, "09:00"))
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, uuid.New(), f.doctorID, f.tomorrow, mustTime(t, "10:00"))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, patientCaller(patientID), appt.ID)
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, adminCaller())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Appointments.Booked)
	assert.Equal(t, 1, stats.Appointments.Cancelled)
	assert.Equal(t, 2, stats.Appointments.Total())
	assert.Equal(t, 1, stats.Doctors)
	assert.Equal(t, 3, stats.Patients)

	_, err = f.svc.Stats(ctx, patientCaller(patientID))
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}
