package model

import "github.com/google/uuid"

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "Booked"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusBooked, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Occupies reports whether an appointment in this status claims its slot.
// Cancelled appointments release the slot; the partial unique index in the
// schema is scoped the same way.
func (s AppointmentStatus) Occupies() bool {
	return s == AppointmentStatusBooked || s == AppointmentStatusCompleted
}

// CanTransition is the status machine for the general status-update path.
// Completed is terminal here: reopening to Booked exists only as a separate
// admin override operation.
func CanTransition(from, to AppointmentStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case AppointmentStatusBooked:
		return to == AppointmentStatusCompleted || to == AppointmentStatusCancelled
	default:
		return false
	}
}

type Appointment struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID  *uuid.UUID        `db:"doctor_id" json:"doctor_id,omitempty"`
	Date      Date              `db:"appt_date" json:"date"`
	Time      TimeOfDay         `db:"appt_time" json:"time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Notes     *string           `db:"notes" json:"notes,omitempty"`
}

type BookAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	Date     string    `json:"date" binding:"required"`
	Time     string    `json:"time" binding:"required"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type SetStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
}

type AppointmentFilters struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    AppointmentStatus
	FromDate  Date
	ToDate    Date
}

// StatusCounts is the admin dashboard breakdown.
type StatusCounts struct {
	Booked    int `db:"booked" json:"booked"`
	Completed int `db:"completed" json:"completed"`
	Cancelled int `db:"cancelled" json:"cancelled"`
}

func (c StatusCounts) Total() int {
	return c.Booked + c.Completed + c.Cancelled
}

// DashboardStats aggregates the admin dashboard numbers.
type DashboardStats struct {
	Appointments StatusCounts `json:"appointments"`
	Doctors      int          `json:"doctors"`
	Patients     int          `json:"patients"`
}
