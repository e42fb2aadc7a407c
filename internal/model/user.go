package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

type User struct {
	Base
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         Role   `db:"role" json:"role"`
	IsActive     bool   `db:"is_active" json:"is_active"`
}

// Caller is the authenticated identity attached to every request. DoctorID
// and PatientID are set only when the role has the matching profile.
type Caller struct {
	UserID    uuid.UUID
	Role      Role
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

func (c Caller) OwnsDoctor(doctorID uuid.UUID) bool {
	return c.DoctorID != nil && *c.DoctorID == doctorID
}

func (c Caller) OwnsPatient(patientID uuid.UUID) bool {
	return c.PatientID != nil && *c.PatientID == patientID
}
