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

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{BaseRepository: NewBaseRepository(db)}
}

const patientSelect = `
	SELECT p.id, p.user_id, p.phone, p.address, p.age, p.gender, p.medical_history,
	       p.is_blacklisted, p.created_at, p.updated_at, u.name, u.email
	FROM patients p
	JOIN users u ON u.id = p.user_id
`

func (r *patientRepository) Create(ctx context.Context, user *model.User, patient *model.Patient) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}

		query := `
			INSERT INTO patients (id, user_id, phone, address, age, gender, medical_history, is_blacklisted, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		now := time.Now()
		patient.ID = uuid.New()
		patient.UserID = user.ID
		patient.CreatedAt = now
		patient.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, query,
			patient.ID,
			patient.UserID,
			patient.Phone,
			patient.Address,
			patient.Age,
			patient.Gender,
			patient.MedicalHistory,
			patient.IsBlacklisted,
			patient.CreatedAt,
			patient.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create patient: %w", err)
		}

		patient.Name = user.Name
		patient.Email = user.Email
		return nil
	})
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, patientSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, patientSelect+` WHERE p.user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("failed to get patient by user: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, user *model.User, patient *model.Patient) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateUserTx(ctx, tx, user); err != nil {
			return err
		}

		query := `
			UPDATE patients
			SET phone = $1, address = $2, age = $3, gender = $4, medical_history = $5, updated_at = $6
			WHERE id = $7
		`
		patient.UpdatedAt = time.Now()
		result, err := tx.ExecContext(ctx, query,
			patient.Phone,
			patient.Address,
			patient.Age,
			patient.Gender,
			patient.MedicalHistory,
			patient.UpdatedAt,
			patient.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update patient: %w", err)
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

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var userID uuid.UUID
		if err := tx.GetContext(ctx, &userID, `SELECT user_id FROM patients WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to get patient: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("failed to delete patient user: %w", err)
		}
		return nil
	})
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := patientSelect + ` WHERE 1=1`
	args := []interface{}{}

	if filters != nil && filters.Search != "" {
		query += ` AND (u.name ILIKE $1 OR u.email ILIKE $1 OR p.phone ILIKE $1)`
		args = append(args, "%"+filters.Search+"%")
	}

	query += ` ORDER BY u.name ASC`

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) SetBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) error {
	query := `UPDATE patients SET is_blacklisted = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, blacklisted, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set patient blacklist: %w", err)
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

func (r *patientRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM patients`); err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

func (r *patientRepository) CountAppointments(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM appointments WHERE patient_id = $1`, id); err != nil {
		return 0, fmt.Errorf("failed to count patient appointments: %w", err)
	}
	return count, nil
}
