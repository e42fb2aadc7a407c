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

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: NewBaseRepository(db)}
}

const appointmentColumns = `id, patient_id, doctor_id, appt_date, appt_time, status, notes, created_at, updated_at`

// Create inserts a Booked appointment. The partial unique index on
// (doctor_id, appt_date, appt_time) is the authoritative race guard; a
// violation here must be translated by the caller, not retried.
func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, appt_date, appt_time, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	now := time.Now()
	appointment.ID = uuid.New()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET appt_date = $1, appt_time = $2, status = $3, notes = $4, updated_at = $5
		WHERE id = $6
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Notes,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
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

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
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

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PatientID != nil {
			query += fmt.Sprintf(` AND patient_id = $%d`, argCount)
			args = append(args, *filters.PatientID)
			argCount++
		}
		if filters.DoctorID != nil {
			query += fmt.Sprintf(` AND doctor_id = $%d`, argCount)
			args = append(args, *filters.DoctorID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(` AND status = $%d`, argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.FromDate.IsZero() {
			query += fmt.Sprintf(` AND appt_date >= $%d`, argCount)
			args = append(args, filters.FromDate)
			argCount++
		}
		if !filters.ToDate.IsZero() {
			query += fmt.Sprintf(` AND appt_date <= $%d`, argCount)
			args = append(args, filters.ToDate)
			argCount++
		}
	}

	query += ` ORDER BY appt_date ASC, appt_time ASC`

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) OccupiedTimes(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.TimeOfDay, error) {
	query := `
		SELECT appt_time FROM appointments
		WHERE doctor_id = $1
		AND appt_date = $2
		AND status IN ('Booked', 'Completed')
		ORDER BY appt_time ASC
	`
	var times []model.TimeOfDay
	if err := r.db.SelectContext(ctx, &times, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to get occupied times: %w", err)
	}
	return times, nil
}

func (r *appointmentRepository) HasFutureBookedWithDoctor(ctx context.Context, patientID, doctorID uuid.UUID, from model.Date) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1
			AND doctor_id = $2
			AND status = 'Booked'
			AND appt_date >= $3
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, patientID, doctorID, from); err != nil {
		return false, fmt.Errorf("failed to check existing booking: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepository) HasBookedAt(ctx context.Context, patientID uuid.UUID, date model.Date, t model.TimeOfDay, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1
			AND status = 'Booked'
			AND appt_date = $2
			AND appt_time = $3
	`
	args := []interface{}{patientID, date, t}

	if excludeID != nil {
		query += ` AND id != $4`
		args = append(args, *excludeID)
	}
	query += `)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check time conflict: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepository) CountByStatus(ctx context.Context) (*model.StatusCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'Booked') AS booked,
			COUNT(*) FILTER (WHERE status = 'Completed') AS completed,
			COUNT(*) FILTER (WHERE status = 'Cancelled') AS cancelled
		FROM appointments
	`
	var counts model.StatusCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}
	return &counts, nil
}

// SaveTreatment upserts the appointment's treatment record and, when
// complete is set, marks the appointment Completed in the same transaction.
func (r *appointmentRepository) SaveTreatment(ctx context.Context, treatment *model.Treatment, complete bool) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO treatments (id, appointment_id, diagnosis, prescription, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (appointment_id) DO UPDATE
			SET diagnosis = EXCLUDED.diagnosis,
			    prescription = EXCLUDED.prescription,
			    notes = EXCLUDED.notes,
			    updated_at = EXCLUDED.updated_at
		`
		now := time.Now()
		if treatment.ID == uuid.Nil {
			treatment.ID = uuid.New()
			treatment.CreatedAt = now
		}
		treatment.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, query,
			treatment.ID,
			treatment.AppointmentID,
			treatment.Diagnosis,
			treatment.Prescription,
			treatment.Notes,
			treatment.CreatedAt,
			treatment.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to save treatment: %w", err)
		}

		if complete {
			if _, err := tx.ExecContext(ctx,
				`UPDATE appointments SET status = 'Completed', updated_at = $1 WHERE id = $2`,
				now, treatment.AppointmentID,
			); err != nil {
				return fmt.Errorf("failed to complete appointment: %w", err)
			}
		}
		return nil
	})
}

func (r *appointmentRepository) GetTreatment(ctx context.Context, appointmentID uuid.UUID) (*model.Treatment, error) {
	var treatment model.Treatment
	query := `
		SELECT id, appointment_id, diagnosis, prescription, notes, created_at, updated_at
		FROM treatments
		WHERE appointment_id = $1
	`
	if err := r.db.GetContext(ctx, &treatment, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to get treatment: %w", err)
	}
	return &treatment, nil
}
