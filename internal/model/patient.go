package model

import "github.com/google/uuid"

type Patient struct {
	Base
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Address        *string   `db:"address" json:"address,omitempty"`
	Age            *int      `db:"age" json:"age,omitempty"`
	Gender         *string   `db:"gender" json:"gender,omitempty"`
	MedicalHistory *string   `db:"medical_history" json:"medical_history,omitempty"`
	IsBlacklisted  bool      `db:"is_blacklisted" json:"is_blacklisted"`

	// Joined from users; not written back.
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

type CreatePatientRequest struct {
	Name           string `json:"name" binding:"required,max=120"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Phone          string `json:"phone" binding:"max=20"`
	Address        string `json:"address" binding:"max=255"`
	Age            *int   `json:"age" binding:"omitempty,gte=0,lte=150"`
	Gender         string `json:"gender" binding:"max=10"`
	MedicalHistory string `json:"medical_history"`
}

type UpdatePatientRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=120"`
	Phone          *string `json:"phone" binding:"omitempty,max=20"`
	Address        *string `json:"address" binding:"omitempty,max=255"`
	Age            *int    `json:"age" binding:"omitempty,gte=0,lte=150"`
	Gender         *string `json:"gender" binding:"omitempty,max=10"`
	MedicalHistory *string `json:"medical_history"`
}

type PatientFilters struct {
	Search string
}
