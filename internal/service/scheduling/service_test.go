package scheduling

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicware/clinic-api/internal/model"
	"github.com/clinicware/clinic-api/internal/repository"
	apperrors "github.com/clinicware/clinic-api/pkg/errors"
)

type stubWindows struct {
	windows []*model.AvailabilityWindow
	created []*model.AvailabilityWindow
	overlap bool
}

func (s *stubWindows) Create(_ context.Context, w *model.AvailabilityWindow) error {
	w.ID = uuid.New()
	s.created = append(s.created, w)
	s.windows = append(s.windows, w)
	return nil
}

func (s *stubWindows) Get(_ context.Context, id uuid.UUID) (*model.AvailabilityWindow, error) {
	for _, w := range s.windows {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubWindows) Delete(_ context.Context, id uuid.UUID) error {
	for i, w := range s.windows {
		if w.ID == id {
			s.windows = append(s.windows[:i], s.windows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *stubWindows) ListForDate(_ context.Context, doctorID uuid.UUID, date model.Date) ([]*model.AvailabilityWindow, error) {
	var out []*model.AvailabilityWindow
	for _, w := range s.windows {
		if w.DoctorID == doctorID && w.Date == date {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *stubWindows) ListBetween(_ context.Context, doctorID uuid.UUID, from, to model.Date) ([]*model.AvailabilityWindow, error) {
	var out []*model.AvailabilityWindow
	for _, w := range s.windows {
		if w.DoctorID == doctorID && !w.Date.Before(from) && !w.Date.After(to) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *stubWindows) HasOverlap(context.Context, uuid.UUID, model.Date, model.TimeOfDay, model.TimeOfDay) (bool, error) {
	return s.overlap, nil
}

// stubAppts implements only the occupied-times lookup; the rest is unused
// by the scheduling service.
type stubAppts struct {
	repository.AppointmentRepository
	occupied []model.TimeOfDay
}

func (s *stubAppts) OccupiedTimes(context.Context, uuid.UUID, model.Date) ([]model.TimeOfDay, error) {
	return s.occupied, nil
}

func TestFreeSlots(t *testing.T) {
	ctx := context.Background()
	doctorID := uuid.New()
	tomorrow := model.Today().AddDays(1)

	newSvc := func(windows *stubWindows, appts *stubAppts) *Service {
		return NewService(windows, appts, zerolog.Nop())
	}

	t.Run("today and past dates are empty regardless of windows", func(t *testing.T) {
		windows := &stubWindows{windows: []*model.AvailabilityWindow{{
			DoctorID: doctorID, Date: model.Today(),
			StartTime: tod(t, "09:00"), EndTime: tod(t, "17:00"),
		}}}
		svc := newSvc(windows, &stubAppts{})

		for _, date := range []model.Date{model.Today(), model.Today().AddDays(-3)} {
			slots, err := svc.FreeSlots(ctx, doctorID, date)
			require.NoError(t, err)
			assert.Empty(t, slots, "date %s", date)
		}
	})

	t.Run("occupied times are subtracted", func(t *testing.T) {
		windows := &stubWindows{windows: []*model.AvailabilityWindow{{
			DoctorID: doctorID, Date: tomorrow,
			StartTime: tod(t, "09:00"), EndTime: tod(t, "11:00"),
		}}}
		appts := &stubAppts{occupied: []model.TimeOfDay{tod(t, "09:30"), tod(t, "10:30")}}
		svc := newSvc(windows, appts)

		slots, err := svc.FreeSlots(ctx, doctorID, tomorrow)
		require.NoError(t, err)
		assert.Equal(t, []model.TimeOfDay{tod(t, "09:00"), tod(t, "10:00")}, slots)
	})

	t.Run("doctor without windows yields empty, not error", func(t *testing.T) {
		svc := newSvc(&stubWindows{}, &stubAppts{})

		slots, err := svc.FreeSlots(ctx, uuid.New(), tomorrow)
		require.NoError(t, err)
		assert.NotNil(t, slots)
		assert.Empty(t, slots)
	})
}

func TestCreateWindow(t *testing.T) {
	ctx := context.Background()
	doctorID := uuid.New()
	tomorrow := model.Today().AddDays(1)

	t.Run("creates a valid window", func(t *testing.T) {
		windows := &stubWindows{}
		svc := NewService(windows, &stubAppts{}, zerolog.Nop())

		w, err := svc.CreateWindow(ctx, doctorID, tomorrow, tod(t, "09:00"), tod(t, "12:00"))
		require.NoError(t, err)
		assert.Equal(t, doctorID, w.DoctorID)
		assert.Len(t, windows.created, 1)
	})

	t.Run("end must be after start", func(t *testing.T) {
		svc := NewService(&stubWindows{}, &stubAppts{}, zerolog.Nop())

		_, err := svc.CreateWindow(ctx, doctorID, tomorrow, tod(t, "12:00"), tod(t, "09:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

		_, err = svc.CreateWindow(ctx, doctorID, tomorrow, tod(t, "09:00"), tod(t, "09:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("past dates are rejected", func(t *testing.T) {
		svc := NewService(&stubWindows{}, &stubAppts{}, zerolog.Nop())

		_, err := svc.CreateWindow(ctx, doctorID, model.Today().AddDays(-1), tod(t, "09:00"), tod(t, "12:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("overlapping windows are rejected", func(t *testing.T) {
		svc := NewService(&stubWindows{overlap: true}, &stubAppts{}, zerolog.Nop())

		_, err := svc.CreateWindow(ctx, doctorID, tomorrow, tod(t, "09:00"), tod(t, "12:00"))
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	})
}

func TestDeleteWindow(t *testing.T) {
	ctx := context.Background()
	doctorID := uuid.New()
	tomorrow := model.Today().AddDays(1)

	windows := &stubWindows{}
	svc := NewService(windows, &stubAppts{}, zerolog.Nop())
	w, err := svc.CreateWindow(ctx, doctorID, tomorrow, tod(t, "09:00"), tod(t, "12:00"))
	require.NoError(t, err)

	t.Run("another doctor cannot delete it", func(t *testing.T) {
		err := svc.DeleteWindow(ctx, uuid.New(), w.ID)
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("owner deletes it", func(t *testing.T) {
		require.NoError(t, svc.DeleteWindow(ctx, doctorID, w.ID))
		err := svc.DeleteWindow(ctx, doctorID, w.ID)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}
