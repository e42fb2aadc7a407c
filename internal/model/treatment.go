package model

import "github.com/google/uuid"

// Treatment holds the doctor's record for a completed appointment. At most
// one per appointment; cascade-deleted with it.
type Treatment struct {
	Base
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Diagnosis     *string   `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription  *string   `db:"prescription" json:"prescription,omitempty"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
}

type SaveTreatmentRequest struct {
	Diagnosis    string `json:"diagnosis" binding:"max=5000"`
	Prescription string `json:"prescription" binding:"max=5000"`
	Notes        string `json:"notes" binding:"max=5000"`
}
