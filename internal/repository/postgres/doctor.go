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

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{BaseRepository: NewBaseRepository(db)}
}

const doctorSelect = `
	SELECT d.id, d.user_id, d.department_id, d.specialization, d.is_blacklisted,
	       d.created_at, d.updated_at, u.name, u.email
	FROM doctors d
	JOIN users u ON u.id = d.user_id
`

func (r *doctorRepository) Create(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}

		query := `
			INSERT INTO doctors (id, user_id, department_id, specialization, is_blacklisted, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		now := time.Now()
		doctor.ID = uuid.New()
		doctor.UserID = user.ID
		doctor.CreatedAt = now
		doctor.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, query,
			doctor.ID,
			doctor.UserID,
			doctor.DepartmentID,
			doctor.Specialization,
			doctor.IsBlacklisted,
			doctor.CreatedAt,
			doctor.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create doctor: %w", err)
		}

		doctor.Name = user.Name
		doctor.Email = user.Email
		return nil
	})
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, doctorSelect+` WHERE d.id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, doctorSelect+` WHERE d.user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("failed to get doctor by user: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateUserTx(ctx, tx, user); err != nil {
			return err
		}

		query := `
			UPDATE doctors
			SET department_id = $1, specialization = $2, updated_at = $3
			WHERE id = $4
		`
		doctor.UpdatedAt = time.Now()
		result, err := tx.ExecContext(ctx, query,
			doctor.DepartmentID,
			doctor.Specialization,
			doctor.UpdatedAt,
			doctor.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update doctor: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

// Delete removes the doctor profile and its backing user row. Appointments
// are guarded at the service layer.
func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var userID uuid.UUID
		if err := tx.GetContext(ctx, &userID, `SELECT user_id FROM doctors WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to get doctor: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete doctor: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("failed to delete doctor user: %w", err)
		}
		return nil
	})
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	query := doctorSelect + ` WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil && !filters.IncludeBlacklisted {
		query += ` AND d.is_blacklisted = FALSE`
	}
	if filters != nil && filters.Search != "" {
		query += fmt.Sprintf(` AND (u.name ILIKE $%d OR d.specialization ILIKE $%d)`, argCount, argCount)
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}

	query += ` ORDER BY u.name ASC`

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) SetBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) error {
	query := `UPDATE doctors SET is_blacklisted = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, blacklisted, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set doctor blacklist: %w", err)
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

func (r *doctorRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM doctors`); err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return count, nil
}

func (r *doctorRepository) CountAppointments(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1`, id); err != nil {
		return 0, fmt.Errorf("failed to count doctor appointments: %w", err)
	}
	return count, nil
}
