package scheduling

import (
	"sort"

	"github.com/clinicware/clinic-api/internal/model"
)

const (
	// SlotMinutes is the fixed booking granularity.
	SlotMinutes = 30

	// HorizonDays is how far ahead patients may book, counted from
	// tomorrow inclusive. Same-day booking is never allowed.
	HorizonDays = 7
)

// SlotsForWindows enumerates bookable slot start times from the given
// windows. Each window yields starts at SlotMinutes steps while the whole
// slot still fits (start + SlotMinutes <= end). Overlapping windows may
// produce the same start; duplicates are collapsed. Output is sorted
// ascending.
func SlotsForWindows(windows []*model.AvailabilityWindow) []model.TimeOfDay {
	seen := make(map[model.TimeOfDay]struct{})
	for _, w := range windows {
		for t := w.StartTime; t.AddMinutes(SlotMinutes) <= w.EndTime; t = t.AddMinutes(SlotMinutes) {
			seen[t] = struct{}{}
		}
	}

	slots := make([]model.TimeOfDay, 0, len(seen))
	for t := range seen {
		slots = append(slots, t)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// WithinHorizon reports whether d is a bookable date relative to today:
// strictly after today and at most HorizonDays ahead.
func WithinHorizon(today, d model.Date) bool {
	return d.After(today) && !d.After(today.AddDays(HorizonDays))
}

// BookableDates returns the horizon as explicit dates, tomorrow first.
func BookableDates(today model.Date) []model.Date {
	dates := make([]model.Date, 0, HorizonDays)
	for i := 1; i <= HorizonDays; i++ {
		dates = append(dates, today.AddDays(i))
	}
	return dates
}
