package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/model"
	"github.com/clinicware/clinic-api/internal/notification"
	"github.com/clinicware/clinic-api/internal/repository"
	"github.com/clinicware/clinic-api/internal/service/scheduling"
	apperrors "github.com/clinicware/clinic-api/pkg/errors"
)

// Service is the booking engine: it validates and commits appointments,
// rescheduling, cancellation and status changes. All pre-insert checks are
// advisory; the storage-level unique slot index is the only guard that
// holds under concurrent requests (no application-level locking).
type Service struct {
	appts     repository.AppointmentRepository
	doctors   repository.DoctorRepository
	patients  repository.PatientRepository
	scheduler *scheduling.Service
	notifier  notification.Notifier
	logger    zerolog.Logger
}

func NewService(
	appts repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	scheduler *scheduling.Service,
	notifier notification.Notifier,
	logger zerolog.Logger,
) *Service {
	return &Service{
		appts:     appts,
		doctors:   doctors,
		patients:  patients,
		scheduler: scheduler,
		notifier:  notifier,
		logger:    logger,
	}
}

// Book validates and creates a new Booked appointment for the patient.
// Validation is ordered and fails fast; see each step's rejection kind.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, date model.Date, t model.TimeOfDay) (*model.Appointment, error) {
	// 1. Doctor must exist and not be blacklisted. Unknown and
	// blacklisted doctors are indistinguishable to the caller.
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.DoctorUnavailable()
		}
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	if doctor.IsBlacklisted {
		return nil, apperrors.DoctorUnavailable()
	}

	// 2. The horizon is enforced here, not in the availability index.
	today := model.Today()
	if !scheduling.WithinHorizon(today, date) {
		return nil, apperrors.DateOutOfRange()
	}

	// 3. Requested time must be a currently free slot.
	if err := s.requireFreeSlot(ctx, doctorID, date, t); err != nil {
		return nil, err
	}

	// 4. One active future booking per doctor per patient.
	hasBooking, err := s.appts.HasFutureBookedWithDoctor(ctx, patientID, doctorID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing booking: %w", err)
	}
	if hasBooking {
		return nil, apperrors.DuplicateDoctorBooking()
	}

	// 5. No second appointment at the same instant with any doctor.
	conflict, err := s.appts.HasBookedAt(ctx, patientID, date, t, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check time conflict: %w", err)
	}
	if conflict {
		return nil, apperrors.PatientTimeConflict()
	}

	appt := &model.Appointment{
		PatientID: patientID,
		DoctorID:  &doctorID,
		Date:      date,
		Time:      t,
		Status:    model.AppointmentStatusBooked,
	}
	if err := s.appts.Create(ctx, appt); err != nil {
		// Two requests can pass every check above for the same slot;
		// the unique index picks the winner and the loser lands here.
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.SlotUnavailable()
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("date", date.String()).
		Str("time", t.String()).
		Msg("appointment booked")
	s.notifier.AppointmentBooked(ctx, appt)
	return appt, nil
}

// Reschedule moves an existing Booked appointment to a new slot. Only the
// owning patient may reschedule, only while the current date is still in
// the future, and the new slot passes the same date/slot/conflict checks
// as a fresh booking (minus the per-doctor duplicate rule, since the row
// itself is the booking).
func (s *Service) Reschedule(ctx context.Context, caller model.Caller, apptID uuid.UUID, date model.Date, t model.TimeOfDay) (*model.Appointment, error) {
	appt, err := s.getAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if !caller.OwnsPatient(appt.PatientID) {
		return nil, apperrors.Forbidden("appointment belongs to another patient")
	}
	if appt.Status != model.AppointmentStatusBooked {
		return nil, apperrors.Validation("only booked appointments can be rescheduled")
	}

	today := model.Today()
	if !appt.Date.After(today) {
		return nil, apperrors.Validation("past or same-day appointments cannot be rescheduled")
	}

	if appt.DoctorID == nil {
		return nil, apperrors.DoctorUnavailable()
	}
	doctor, err := s.doctors.Get(ctx, *appt.DoctorID)
	if err != nil || doctor.IsBlacklisted {
		return nil, apperrors.DoctorUnavailable()
	}

	if !scheduling.WithinHorizon(today, date) {
		return nil, apperrors.DateOutOfRange()
	}
	if err := s.requireFreeSlot(ctx, *appt.DoctorID, date, t); err != nil {
		return nil, err
	}

	conflict, err := s.appts.HasBookedAt(ctx, appt.PatientID, date, t, &appt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check time conflict: %w", err)
	}
	if conflict {
		return nil, apperrors.PatientTimeConflict()
	}

	appt.Date = date
	appt.Time = t
	if err := s.appts.Update(ctx, appt); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.SlotUnavailable()
		}
		return nil, fmt.Errorf("failed to reschedule appointment: %w", err)
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("date", date.String()).
		Str("time", t.String()).
		Msg("appointment rescheduled")
	s.notifier.AppointmentRescheduled(ctx, appt)
	return appt, nil
}

// Cancel marks a Booked appointment Cancelled. The row is kept; the
// partial unique index excludes Cancelled rows, so the slot becomes
// bookable again by anyone. Patients may only cancel their own future
// appointments, doctors their own, admins any.
func (s *Service) Cancel(ctx context.Context, caller model.Caller, apptID uuid.UUID) (*model.Appointment, error) {
	appt, err := s.getAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if appt.DoctorID == nil || !caller.OwnsDoctor(*appt.DoctorID) {
			return nil, apperrors.Forbidden("appointment belongs to another doctor")
		}
	case model.RolePatient:
		if !caller.OwnsPatient(appt.PatientID) {
			return nil, apperrors.Forbidden("appointment belongs to another patient")
		}
		if !appt.Date.After(model.Today()) {
			return nil, apperrors.Validation("past or same-day appointments cannot be cancelled")
		}
	default:
		return nil, apperrors.Forbidden("role cannot cancel appointments")
	}

	if appt.Status == model.AppointmentStatusCancelled {
		return appt, nil
	}
	if appt.Status != model.AppointmentStatusBooked {
		return nil, apperrors.IllegalTransition(string(appt.Status), string(model.AppointmentStatusCancelled))
	}

	appt.Status = model.AppointmentStatusCancelled
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.logger.Info().Str("appointment_id", appt.ID.String()).Msg("appointment cancelled")
	s.notifier.AppointmentCancelled(ctx, appt)
	return appt, nil
}

// Delete removes the appointment row entirely, freeing its slot under any
// uniqueness scoping. Admin may delete unconditionally; a patient only
// their own future Booked appointments.
func (s *Service) Delete(ctx context.Context, caller model.Caller, apptID uuid.UUID) error {
	appt, err := s.getAppointment(ctx, apptID)
	if err != nil {
		return err
	}

	switch caller.Role {
	case model.RoleAdmin:
	case model.RolePatient:
		if !caller.OwnsPatient(appt.PatientID) {
			return apperrors.Forbidden("appointment belongs to another patient")
		}
		if appt.Status != model.AppointmentStatusBooked || !appt.Date.After(model.Today()) {
			return apperrors.Forbidden("only future booked appointments can be deleted")
		}
	default:
		return apperrors.Forbidden("role cannot delete appointments")
	}

	if err := s.appts.Delete(ctx, apptID); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

// SetStatus applies the general status-update path. One transition table
// for every role; role and ownership gates are layered on top of it.
// Completed is terminal here — reopening goes through Reopen only.
func (s *Service) SetStatus(ctx context.Context, caller model.Caller, apptID uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("invalid appointment status")
	}

	appt, err := s.getAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if appt.DoctorID == nil || !caller.OwnsDoctor(*appt.DoctorID) {
			return nil, apperrors.Forbidden("appointment belongs to another doctor")
		}
	default:
		return nil, apperrors.Forbidden("role cannot update appointment status")
	}

	if appt.Status == status {
		return appt, nil
	}
	if !model.CanTransition(appt.Status, status) {
		return nil, apperrors.IllegalTransition(string(appt.Status), string(status))
	}

	appt.Status = status
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("status", string(status)).
		Msg("appointment status updated")

	switch status {
	case model.AppointmentStatusCancelled:
		s.notifier.AppointmentCancelled(ctx, appt)
	case model.AppointmentStatusCompleted:
		s.notifier.AppointmentCompleted(ctx, appt)
	}
	return appt, nil
}

// Reopen is the admin-only override that returns a Completed appointment
// to Booked, outside the general transition table.
func (s *Service) Reopen(ctx context.Context, caller model.Caller, apptID uuid.UUID) (*model.Appointment, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can reopen appointments")
	}

	appt, err := s.getAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.Status != model.AppointmentStatusCompleted {
		return nil, apperrors.IllegalTransition(string(appt.Status), string(model.AppointmentStatusBooked))
	}

	appt.Status = model.AppointmentStatusBooked
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to reopen appointment: %w", err)
	}

	s.logger.Info().Str("appointment_id", appt.ID.String()).Msg("appointment reopened")
	return appt, nil
}

// RecordTreatment saves the doctor's treatment for an own appointment and,
// when the appointment is still Booked, completes it in the same storage
// transaction.
func (s *Service) RecordTreatment(ctx context.Context, caller model.Caller, apptID uuid.UUID, req *model.SaveTreatmentRequest) (*model.Treatment, error) {
	appt, err := s.getAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID == nil || !caller.OwnsDoctor(*appt.DoctorID) {
		return nil, apperrors.Forbidden("appointment belongs to another doctor")
	}
	if appt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.Validation("cannot record treatment for a cancelled appointment")
	}

	treatment := &model.Treatment{AppointmentID: appt.ID}
	if existing, err := s.appts.GetTreatment(ctx, apptID); err == nil {
		treatment = existing
	}
	treatment.Diagnosis = optional(req.Diagnosis)
	treatment.Prescription = optional(req.Prescription)
	treatment.Notes = optional(req.Notes)

	complete := appt.Status == model.AppointmentStatusBooked
	if err := s.appts.SaveTreatment(ctx, treatment, complete); err != nil {
		return nil, fmt.Errorf("failed to save treatment: %w", err)
	}

	if complete {
		appt.Status = model.AppointmentStatusCompleted
		s.notifier.AppointmentCompleted(ctx, appt)
	}
	return treatment, nil
}

func (s *Service) GetTreatment(ctx context.Context, caller model.Caller, apptID uuid.UUID) (*model.Treatment, error) {
	appt, err := s.getAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if appt.DoctorID == nil || !caller.OwnsDoctor(*appt.DoctorID) {
			return nil, apperrors.Forbidden("appointment belongs to another doctor")
		}
	case model.RolePatient:
		if !caller.OwnsPatient(appt.PatientID) {
			return nil, apperrors.Forbidden("appointment belongs to another patient")
		}
	}

	treatment, err := s.appts.GetTreatment(ctx, apptID)
	if err != nil {
		return nil, apperrors.NotFound("treatment")
	}
	return treatment, nil
}

// Get returns an appointment the caller is allowed to see.
func (s *Service) Get(ctx context.Context, caller model.Caller, apptID uuid.UUID) (*model.Appointment, error) {
	appt, err := s.getAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if appt.DoctorID == nil || !caller.OwnsDoctor(*appt.DoctorID) {
			return nil, apperrors.Forbidden("appointment belongs to another doctor")
		}
	case model.RolePatient:
		if !caller.OwnsPatient(appt.PatientID) {
			return nil, apperrors.Forbidden("appointment belongs to another patient")
		}
	}
	return appt, nil
}

// List returns appointments scoped to what the caller may see: admins see
// everything, doctors and patients only their own.
func (s *Service) List(ctx context.Context, caller model.Caller, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}

	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		filters.DoctorID = caller.DoctorID
	case model.RolePatient:
		filters.PatientID = caller.PatientID
	default:
		return nil, apperrors.Forbidden("role cannot list appointments")
	}

	appointments, err := s.appts.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Stats returns the admin dashboard aggregates.
func (s *Service) Stats(ctx context.Context, caller model.Caller) (*model.DashboardStats, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can view appointment stats")
	}

	counts, err := s.appts.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}
	doctors, err := s.doctors.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count doctors: %w", err)
	}
	patients, err := s.patients.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}

	return &model.DashboardStats{
		Appointments: *counts,
		Doctors:      doctors,
		Patients:     patients,
	}, nil
}

func (s *Service) requireFreeSlot(ctx context.Context, doctorID uuid.UUID, date model.Date, t model.TimeOfDay) error {
	free, err := s.scheduler.FreeSlots(ctx, doctorID, date)
	if err != nil {
		return fmt.Errorf("failed to compute free slots: %w", err)
	}
	for _, slot := range free {
		if slot == t {
			return nil
		}
	}
	return apperrors.SlotUnavailable()
}

func (s *Service) getAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
