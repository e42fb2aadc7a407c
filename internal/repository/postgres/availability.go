package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicware/clinic-api/internal/model"
	"github.com/clinicware/clinic-api/internal/repository"
)

type availabilityRepository struct {
	BaseRepository
}

func NewAvailabilityRepository(db *sqlx.DB) repository.AvailabilityRepository {
	return &availabilityRepository{BaseRepository: NewBaseRepository(db)}
}

const windowColumns = `id, doctor_id, avail_date, start_time, end_time, created_at, updated_at`

func (r *availabilityRepository) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	query := `
		INSERT INTO availability_windows (id, doctor_id, avail_date, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now()
	window.ID = uuid.New()
	window.CreatedAt = now
	window.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		window.ID,
		window.DoctorID,
		window.Date,
		window.StartTime,
		window.EndTime,
		window.CreatedAt,
		window.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create availability window: %w", err)
	}
	return nil
}

func (r *availabilityRepository) Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityWindow, error) {
	var window model.AvailabilityWindow
	query := `SELECT ` + windowColumns + ` FROM availability_windows WHERE id = $1`
	if err := r.db.GetContext(ctx, &window, query, id); err != nil {
		return nil, fmt.Errorf("failed to get availability window: %w", err)
	}
	return &window, nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete availability window: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *availabilityRepository) ListForDate(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE doctor_id = $1 AND avail_date = $2
		ORDER BY start_time ASC
	`
	var windows []*model.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list availability windows: %w", err)
	}
	return windows, nil
}

func (r *availabilityRepository) ListBetween(ctx context.Context, doctorID uuid.UUID, from, to model.Date) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE doctor_id = $1 AND avail_date BETWEEN $2 AND $3
		ORDER BY avail_date ASC, start_time ASC
	`
	var windows []*model.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, doctorID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list availability windows: %w", err)
	}
	return windows, nil
}

func (r *availabilityRepository) HasOverlap(ctx context.Context, doctorID uuid.UUID, date model.Date, start, end model.TimeOfDay) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM availability_windows
			WHERE doctor_id = $1
			AND avail_date = $2
			AND start_time <= $3
			AND end_time >= $4
		)
	`
	var overlaps bool
	if err := r.db.GetContext(ctx, &overlaps, query, doctorID, date, end, start); err != nil {
		return false, fmt.Errorf("failed to check window overlap: %w", err)
	}
	return overlaps, nil
}
