package model

import "github.com/google/uuid"

// AvailabilityWindow is a doctor-declared contiguous free interval on one
// date. Windows are created and deleted, never mutated in place.
type AvailabilityWindow struct {
	Base
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date      Date      `db:"avail_date" json:"date"`
	StartTime TimeOfDay `db:"start_time" json:"start_time"`
	EndTime   TimeOfDay `db:"end_time" json:"end_time"`
}

// Overlaps reports whether two windows on the same date share any interval.
// Touching endpoints count as overlap, matching the creation check.
func (w AvailabilityWindow) Overlaps(other AvailabilityWindow) bool {
	if w.Date != other.Date {
		return false
	}
	return w.StartTime <= other.EndTime && w.EndTime >= other.StartTime
}

type CreateWindowRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}
