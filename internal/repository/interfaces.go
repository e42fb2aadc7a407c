package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/clinicware/clinic-api/internal/model"
)

// ErrNotFound is returned by Get-style methods when no row matches.
var ErrNotFound = sql.ErrNoRows

// IsUniqueViolation reports whether err is a storage-level unique constraint
// violation. The booking engine relies on this to translate the slot race
// into a recoverable rejection.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type (
	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	// DoctorRepository manages doctor profiles together with their backing
	// user rows; create/update/delete span both tables in one transaction.
	DoctorRepository interface {
		Create(ctx context.Context, user *model.User, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, user *model.User, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
		SetBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) error
		CountAppointments(ctx context.Context, id uuid.UUID) (int, error)
		Count(ctx context.Context) (int, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, user *model.User, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, user *model.User, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
		SetBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) error
		CountAppointments(ctx context.Context, id uuid.UUID) (int, error)
		Count(ctx context.Context) (int, error)
	}

	DepartmentRepository interface {
		Create(ctx context.Context, department *model.Department) error
		Get(ctx context.Context, id uuid.UUID) (*model.Department, error)
		GetByName(ctx context.Context, name string) (*model.Department, error)
		List(ctx context.Context) ([]*model.Department, error)
		Delete(ctx context.Context, id uuid.UUID) error
		CountDoctors(ctx context.Context, id uuid.UUID) (int, error)
	}

	AvailabilityRepository interface {
		Create(ctx context.Context, window *model.AvailabilityWindow) error
		Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityWindow, error)
		Delete(ctx context.Context, id uuid.UUID) error
		ListForDate(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]*model.AvailabilityWindow, error)
		ListBetween(ctx context.Context, doctorID uuid.UUID, from, to model.Date) ([]*model.AvailabilityWindow, error)
		HasOverlap(ctx context.Context, doctorID uuid.UUID, date model.Date, start, end model.TimeOfDay) (bool, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)

		// OccupiedTimes returns slot times claimed by Booked/Completed
		// appointments for (doctor, date).
		OccupiedTimes(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.TimeOfDay, error)
		HasFutureBookedWithDoctor(ctx context.Context, patientID, doctorID uuid.UUID, from model.Date) (bool, error)
		HasBookedAt(ctx context.Context, patientID uuid.UUID, date model.Date, t model.TimeOfDay, excludeID *uuid.UUID) (bool, error)
		CountByStatus(ctx context.Context) (*model.StatusCounts, error)

		// SaveTreatment upserts the appointment's treatment and, when
		// complete is set, flips the appointment to Completed in the same
		// transaction.
		SaveTreatment(ctx context.Context, treatment *model.Treatment, complete bool) error
		GetTreatment(ctx context.Context, appointmentID uuid.UUID) (*model.Treatment, error)
	}
)
