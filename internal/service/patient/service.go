package patient

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
	patients repository.PatientRepository
	users    repository.UserRepository
	hasher   security.PasswordHasher
	logger   zerolog.Logger
}

func NewService(patients repository.PatientRepository, users repository.UserRepository, hasher security.PasswordHasher, logger zerolog.Logger) *Service {
	return &Service{patients: patients, users: users, hasher: hasher, logger: logger}
}

// Create provisions a patient account with full profile details. Admin
// only; patients self-register through the auth service instead.
func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("email is already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("password does not meet requirements")
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RolePatient,
		IsActive:     true,
	}
	patient := &model.Patient{
		Phone:          optional(req.Phone),
		Address:        optional(req.Address),
		Age:            req.Age,
		Gender:         optional(req.Gender),
		MedicalHistory: optional(req.MedicalHistory),
	}

	if err := s.patients.Create(ctx, user, patient); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("email is already registered")
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.logger.Info().Str("patient_id", patient.ID.String()).Msg("patient created")
	patient.Name = user.Name
	patient.Email = user.Email
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

// Update edits a patient profile. Admins may edit anyone; a patient only
// themselves.
func (s *Service) Update(ctx context.Context, caller model.Caller, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if !caller.IsAdmin() && !caller.OwnsPatient(id) {
		return nil, apperrors.Forbidden("cannot edit another patient's profile")
	}

	patient, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, patient.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient user: %w", err)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		patient.Phone = req.Phone
	}
	if req.Address != nil {
		patient.Address = req.Address
	}
	if req.Age != nil {
		patient.Age = req.Age
	}
	if req.Gender != nil {
		patient.Gender = req.Gender
	}
	if req.MedicalHistory != nil {
		patient.MedicalHistory = req.MedicalHistory
	}

	if err := s.patients.Update(ctx, user, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	patient.Name = user.Name
	patient.Email = user.Email
	return patient, nil
}

// Delete removes the patient and its user row. Refused while any
// appointment references the patient.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.patients.CountAppointments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count appointments: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict("patient has appointments and cannot be deleted")
	}

	if err := s.patients.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	s.logger.Info().Str("patient_id", id.String()).Msg("patient deleted")
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	if filters == nil {
		filters = &model.PatientFilters{}
	}
	patients, err := s.patients.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// SetBlacklisted blocks or unblocks a patient account.
func (s *Service) SetBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) (*model.Patient, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.patients.SetBlacklisted(ctx, id, blacklisted); err != nil {
		return nil, fmt.Errorf("failed to update blacklist flag: %w", err)
	}
	s.logger.Info().Str("patient_id", id.String()).Bool("blacklisted", blacklisted).Msg("patient blacklist updated")
	return s.Get(ctx, id)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	trimmed := strings.TrimSpace(s)
	return &trimmed
}
