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

type departmentRepository struct {
	BaseRepository
}

func NewDepartmentRepository(db *sqlx.DB) repository.DepartmentRepository {
	return &departmentRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *departmentRepository) Create(ctx context.Context, department *model.Department) error {
	query := `
		INSERT INTO departments (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	now := time.Now()
	department.ID = uuid.New()
	department.CreatedAt = now
	department.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		department.ID,
		department.Name,
		department.Description,
		department.CreatedAt,
		department.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}
	return nil
}

func (r *departmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var department model.Department
	query := `SELECT id, name, description, created_at, updated_at FROM departments WHERE id = $1`
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &department, nil
}

func (r *departmentRepository) GetByName(ctx context.Context, name string) (*model.Department, error) {
	var department model.Department
	query := `SELECT id, name, description, created_at, updated_at FROM departments WHERE lower(name) = lower($1)`
	if err := r.db.GetContext(ctx, &department, query, name); err != nil {
		return nil, fmt.Errorf("failed to get department by name: %w", err)
	}
	return &department, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]*model.Department, error) {
	var departments []*model.Department
	query := `SELECT id, name, description, created_at, updated_at FROM departments ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
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

func (r *departmentRepository) CountDoctors(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM doctors WHERE department_id = $1`, id); err != nil {
		return 0, fmt.Errorf("failed to count department doctors: %w", err)
	}
	return count, nil
}
