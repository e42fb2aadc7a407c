package department

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/model"
	"github.com/clinicware/clinic-api/internal/repository"
	apperrors "github.com/clinicware/clinic-api/pkg/errors"
)

type Service struct {
	departments repository.DepartmentRepository
	logger      zerolog.Logger
}

func NewService(departments repository.DepartmentRepository, logger zerolog.Logger) *Service {
	return &Service{departments: departments, logger: logger}
}

// Create adds a department. Names are unique case-insensitively.
func (s *Service) Create(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("department name is required")
	}

	if _, err := s.departments.GetByName(ctx, name); err == nil {
		return nil, apperrors.Conflict("department already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check department name: %w", err)
	}

	department := &model.Department{Name: name}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		department.Description = &desc
	}

	if err := s.departments.Create(ctx, department); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("department already exists")
		}
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	s.logger.Info().Str("department_id", department.ID.String()).Str("name", name).Msg("department created")
	return department, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	department, err := s.departments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("department")
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return department, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

// Delete removes a department; refused while doctors are assigned to it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.departments.CountDoctors(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count doctors: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict("department has doctors and cannot be deleted")
	}

	if err := s.departments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	s.logger.Info().Str("department_id", id.String()).Msg("department deleted")
	return nil
}
