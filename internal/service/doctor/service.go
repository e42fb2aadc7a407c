package doctor

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
	"github.com/clinicware/clinic-api/pkg/security"
)

type Service struct {
	doctors     repository.DoctorRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	hasher      security.PasswordHasher
	logger      zerolog.Logger
}

func NewService(
	doctors repository.DoctorRepository,
	users repository.UserRepository,
	departments repository.DepartmentRepository,
	hasher security.PasswordHasher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		doctors:     doctors,
		users:       users,
		departments: departments,
		hasher:      hasher,
		logger:      logger,
	}
}

// Create provisions a doctor account with its backing user. Admin only;
// the handler enforces the role gate.
func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("email is already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if req.DepartmentID != nil {
		if _, err := s.departments.Get(ctx, *req.DepartmentID); err != nil {
			return nil, apperrors.Validation("department does not exist")
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("password does not meet requirements")
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleDoctor,
		IsActive:     true,
	}
	doctor := &model.Doctor{DepartmentID: req.DepartmentID}
	if spec := strings.TrimSpace(req.Specialization); spec != "" {
		doctor.Specialization = &spec
	}

	if err := s.doctors.Create(ctx, user, doctor); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("email is already registered")
		}
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}

	s.logger.Info().Str("doctor_id", doctor.ID.String()).Msg("doctor created")
	doctor.Name = user.Name
	doctor.Email = user.Email
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return doctor, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, doctor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor user: %w", err)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, apperrors.Validation("password does not meet requirements")
		}
		user.PasswordHash = hash
	}
	if req.DepartmentID != nil {
		if _, err := s.departments.Get(ctx, *req.DepartmentID); err != nil {
			return nil, apperrors.Validation("department does not exist")
		}
		doctor.DepartmentID = req.DepartmentID
	}
	if req.Specialization != nil {
		doctor.Specialization = req.Specialization
	}

	if err := s.doctors.Update(ctx, user, doctor); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("email is already registered")
		}
		return nil, fmt.Errorf("failed to update doctor: %w", err)
	}

	doctor.Name = user.Name
	doctor.Email = user.Email
	return doctor, nil
}

// Delete removes the doctor and its user row. Refused while any
// appointment references the doctor; cancel or delete those first.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.doctors.CountAppointments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count appointments: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict("doctor has appointments and cannot be deleted")
	}

	if err := s.doctors.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	s.logger.Info().Str("doctor_id", id.String()).Msg("doctor deleted")
	return nil
}

// List returns doctors matching the filters. Non-admin callers never see
// blacklisted doctors; the handler sets IncludeBlacklisted accordingly.
func (s *Service) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	if filters == nil {
		filters = &model.DoctorFilters{}
	}
	doctors, err := s.doctors.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

// SetBlacklisted blocks or unblocks a doctor. Blacklisted doctors cannot
// log in, are hidden from patients and cannot take new bookings; existing
// appointments are untouched.
func (s *Service) SetBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) (*model.Doctor, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.doctors.SetBlacklisted(ctx, id, blacklisted); err != nil {
		return nil, fmt.Errorf("failed to update blacklist flag: %w", err)
	}
	s.logger.Info().Str("doctor_id", id.String()).Bool("blacklisted", blacklisted).Msg("doctor blacklist updated")
	return s.Get(ctx, id)
}
