package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/email"
	"github.com/clinicware/clinic-api/internal/model"
	"github.com/clinicware/clinic-api/internal/repository"
	"github.com/clinicware/clinic-api/pkg/messaging"
)

const eventsChannel = "appointments"

// Notifier announces appointment lifecycle changes. Implementations are
// best-effort: a failed notification never fails the booking it announces.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *model.Appointment)
	AppointmentRescheduled(ctx context.Context, appt *model.Appointment)
	AppointmentCancelled(ctx context.Context, appt *model.Appointment)
	AppointmentCompleted(ctx context.Context, appt *model.Appointment)
}

type Service struct {
	patients repository.PatientRepository
	mailer   email.Mailer
	broker   messaging.Broker
	logger   zerolog.Logger
}

func NewService(patients repository.PatientRepository, mailer email.Mailer, broker messaging.Broker, logger zerolog.Logger) *Service {
	return &Service{patients: patients, mailer: mailer, broker: broker, logger: logger}
}

func (s *Service) AppointmentBooked(ctx context.Context, appt *model.Appointment) {
	s.notify(ctx, "appointment.booked", appt,
		"Appointment confirmed",
		fmt.Sprintf("Your appointment on %s at %s is confirmed.", appt.Date, appt.Time))
}

func (s *Service) AppointmentRescheduled(ctx context.Context, appt *model.Appointment) {
	s.notify(ctx, "appointment.rescheduled", appt,
		"Appointment rescheduled",
		fmt.Sprintf("Your appointment has been moved to %s at %s.", appt.Date, appt.Time))
}

func (s *Service) AppointmentCancelled(ctx context.Context, appt *model.Appointment) {
	s.notify(ctx, "appointment.cancelled", appt,
		"Appointment cancelled",
		fmt.Sprintf("Your appointment on %s at %s has been cancelled.", appt.Date, appt.Time))
}

func (s *Service) AppointmentCompleted(ctx context.Context, appt *model.Appointment) {
	s.notify(ctx, "appointment.completed", appt,
		"Appointment completed",
		fmt.Sprintf("Your appointment on %s at %s has been marked completed.", appt.Date, appt.Time))
}

func (s *Service) notify(ctx context.Context, eventType string, appt *model.Appointment, subject, body string) {
	if s.broker != nil {
		event := messaging.Event{Type: eventType, Payload: appt}
		if err := s.broker.Publish(ctx, eventsChannel, event); err != nil {
			s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish appointment event")
		}
	}

	patient, err := s.patients.Get(ctx, appt.PatientID)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", appt.PatientID.String()).Msg("failed to load patient for notification")
		return
	}
	if err := s.mailer.Send(patient.Email, subject, body); err != nil {
		s.logger.Error().Err(err).Str("email", patient.Email).Str("event", eventType).Msg("failed to send notification email")
	}
}

// Noop discards all notifications; used in tests.
type Noop struct{}

func (Noop) AppointmentBooked(context.Context, *model.Appointment)      {}
func (Noop) AppointmentRescheduled(context.Context, *model.Appointment) {}
func (Noop) AppointmentCancelled(context.Context, *model.Appointment)   {}
func (Noop) AppointmentCompleted(context.Context, *model.Appointment)   {}
