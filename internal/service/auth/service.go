package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/model"
	"github.com/clinicware/clinic-api/internal/repository"
	"github.com/clinicware/clinic-api/pkg/auth"
	apperrors "github.com/clinicware/clinic-api/pkg/errors"
	"github.com/clinicware/clinic-api/pkg/security"
)

type Service struct {
	users    repository.UserRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	hasher   security.PasswordHasher
	tokens   auth.JWTService
	logger   zerolog.Logger
}

func NewService(
	users repository.UserRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	hasher security.PasswordHasher,
	tokens auth.JWTService,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:    users,
		doctors:  doctors,
		patients: patients,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register self-registers a new patient account. Doctors and admins are
// provisioned by an admin, never through this path.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.Patient, error) {
	email := normalizeEmail(req.Email)
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
	patient := &model.Patient{}
	if err := s.patients.Create(ctx, user, patient); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("email is already registered")
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("patient registered")
	patient.Name = user.Name
	patient.Email = user.Email
	return patient, nil
}

// Login authenticates credentials and issues an access token. Invalid
// email and invalid password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return nil, apperrors.Forbidden("account is deactivated")
	}

	profileID, err := s.profileID(ctx, user)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("user logged in")
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		User:        user,
	}, nil
}

// profileID resolves the doctor or patient record for the user and blocks
// blacklisted accounts from logging in at all.
func (s *Service) profileID(ctx context.Context, user *model.User) (*uuid.UUID, error) {
	switch user.Role {
	case model.RoleDoctor:
		doctor, err := s.doctors.GetByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load doctor profile: %w", err)
		}
		if doctor.IsBlacklisted {
			return nil, apperrors.Forbidden("account is blocked")
		}
		return &doctor.ID, nil
	case model.RolePatient:
		patient, err := s.patients.GetByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load patient profile: %w", err)
		}
		if patient.IsBlacklisted {
			return nil, apperrors.Forbidden("account is blocked")
		}
		return &patient.ID, nil
	default:
		return nil, nil
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
