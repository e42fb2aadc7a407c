package model

import "github.com/google/uuid"

type Doctor struct {
	Base
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	DepartmentID   *uuid.UUID `db:"department_id" json:"department_id,omitempty"`
	Specialization *string    `db:"specialization" json:"specialization,omitempty"`
	IsBlacklisted  bool       `db:"is_blacklisted" json:"is_blacklisted"`

	// Joined from users; not written back.
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

type Department struct {
	Base
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

type CreateDoctorRequest struct {
	Name           string     `json:"name" binding:"required,max=120"`
	Email          string     `json:"email" binding:"required,email"`
	Password       string     `json:"password" binding:"required,min=8"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	Specialization string     `json:"specialization" binding:"max=120"`
}

type UpdateDoctorRequest struct {
	Name           *string    `json:"name" binding:"omitempty,max=120"`
	Email          *string    `json:"email" binding:"omitempty,email"`
	Password       *string    `json:"password" binding:"omitempty,min=8"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	Specialization *string    `json:"specialization" binding:"omitempty,max=120"`
}

type DoctorFilters struct {
	Search             string
	IncludeBlacklisted bool
}

type CreateDepartmentRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"max=1000"`
}
