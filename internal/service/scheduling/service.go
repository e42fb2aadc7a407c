package scheduling

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/model"
	"github.com/clinicware/clinic-api/internal/repository"
	apperrors "github.com/clinicware/clinic-api/pkg/errors"
)

// Service computes availability and manages doctor availability windows.
// Free slots are derived on every query, never materialized.
type Service struct {
	windows repository.AvailabilityRepository
	appts   repository.AppointmentRepository
	logger  zerolog.Logger
}

func NewService(windows repository.AvailabilityRepository, appts repository.AppointmentRepository, logger zerolog.Logger) *Service {
	return &Service{windows: windows, appts: appts, logger: logger}
}

// FreeSlots returns the free slot start times for (doctor, date), sorted
// ascending. Today or earlier yields an empty result regardless of windows
// (booking lead time is at least one day). Unknown doctors yield an empty
// result, not an error. The horizon upper bound is the booking engine's
// concern, not enforced here.
func (s *Service) FreeSlots(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.TimeOfDay, error) {
	if !date.After(model.Today()) {
		return []model.TimeOfDay{}, nil
	}

	windows, err := s.windows.ListForDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability windows: %w", err)
	}

	slots := SlotsForWindows(windows)
	if len(slots) == 0 {
		return []model.TimeOfDay{}, nil
	}

	occupied, err := s.appts.OccupiedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupied times: %w", err)
	}

	taken := make(map[model.TimeOfDay]struct{}, len(occupied))
	for _, t := range occupied {
		taken[t] = struct{}{}
	}

	free := slots[:0]
	for _, t := range slots {
		if _, ok := taken[t]; !ok {
			free = append(free, t)
		}
	}
	sort.Slice(free, func(i, j int) bool { return free[i] < free[j] })
	return free, nil
}

// CreateWindow declares a new availability window for the doctor. The
// overlap check is advisory UX, not a correctness guarantee: a racing
// creation can still slip through and only costs redundant slot
// computation.
func (s *Service) CreateWindow(ctx context.Context, doctorID uuid.UUID, date model.Date, start, end model.TimeOfDay) (*model.AvailabilityWindow, error) {
	if end <= start {
		return nil, apperrors.Validation("end time must be after start time")
	}
	if date.Before(model.Today()) {
		return nil, apperrors.Validation("availability date cannot be in the past")
	}

	overlaps, err := s.windows.HasOverlap(ctx, doctorID, date, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to check window overlap: %w", err)
	}
	if overlaps {
		return nil, apperrors.Conflict("availability window overlaps an existing window")
	}

	window := &model.AvailabilityWindow{
		DoctorID:  doctorID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	}
	if err := s.windows.Create(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to create availability window: %w", err)
	}

	s.logger.Info().
		Str("doctor_id", doctorID.String()).
		Str("date", date.String()).
		Str("start", start.String()).
		Str("end", end.String()).
		Msg("availability window created")
	return window, nil
}

// DeleteWindow removes a window owned by the doctor.
func (s *Service) DeleteWindow(ctx context.Context, doctorID, windowID uuid.UUID) error {
	window, err := s.windows.Get(ctx, windowID)
	if err != nil {
		return apperrors.NotFound("availability window")
	}
	if window.DoctorID != doctorID {
		return apperrors.Forbidden("availability window belongs to another doctor")
	}
	if err := s.windows.Delete(ctx, windowID); err != nil {
		return fmt.Errorf("failed to delete availability window: %w", err)
	}
	return nil
}

// ListWindows returns the doctor's windows over the booking horizon,
// today included so the doctor sees what patients can no longer book.
func (s *Service) ListWindows(ctx context.Context, doctorID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	today := model.Today()
	windows, err := s.windows.ListBetween(ctx, doctorID, today, today.AddDays(HorizonDays))
	if err != nil {
		return nil, fmt.Errorf("failed to list availability windows: %w", err)
	}
	return windows, nil
}
