package domain

import (
	"fmt"
	"time"
)

// BusinessHours is the daily availability window [OpenHour, CloseHour) in Location.
// Saturdays and Sundays are never bookable.
type BusinessHours struct {
	OpenHour  int
	CloseHour int
	Location  *time.Location
}

// DefaultBusinessHours returns the 09:00-18:00 window in UTC
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		OpenHour:  DefaultOpenHour,
		CloseHour: DefaultCloseHour,
		Location:  time.UTC,
	}
}

// Validate checks hour bounds
func (h BusinessHours) Validate() error {
	if h.OpenHour < 0 || h.OpenHour > 23 {
		return fmt.Errorf("%w: open hour %d out of range", ErrValidation, h.OpenHour)
	}
	if h.CloseHour < 1 || h.CloseHour > 24 {
		return fmt.Errorf("%w: close hour %d out of range", ErrValidation, h.CloseHour)
	}
	if h.OpenHour >= h.CloseHour {
		return fmt.Errorf("%w: open hour %d must be before close hour %d", ErrValidation, h.OpenHour, h.CloseHour)
	}
	return nil
}

// Loc returns the configured location or UTC
func (h BusinessHours) Loc() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

// Day truncates t to the calendar date in the business location
func (h BusinessHours) Day(t time.Time) time.Time {
	t = t.In(h.Loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, h.Loc())
}

// At returns the wall-clock hour on the calendar date of date.
// Hours are counted on the clock, not as elapsed time, so DST days keep their labels.
func (h BusinessHours) At(date time.Time, hour int) time.Time {
	day := h.Day(date)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

// Window returns [date@OpenHour, date@CloseHour) for the calendar date of date
func (h BusinessHours) Window(date time.Time) Interval {
	return Interval{
		Start: h.At(date, h.OpenHour),
		End:   h.At(date, h.CloseHour),
	}
}

// DaysBetween counts calendar days from one date to another, ignoring DST shifts
func DaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// SlotsPerDay returns how many disjoint slots of durationHours fit into the window
func (h BusinessHours) SlotsPerDay(durationHours int) int {
	durationHours = NormalizeDuration(durationHours)
	return (h.CloseHour - h.OpenHour) / durationHours
}

// IsWeekend reports whether the calendar date of t falls on Saturday or Sunday
func (h BusinessHours) IsWeekend(t time.Time) bool {
	switch t.In(h.Loc()).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// NormalizeDuration clamps a slot duration to the minimum of one hour
func NormalizeDuration(hours int) int {
	if hours < MinSlotDurationHours {
		return MinSlotDurationHours
	}
	return hours
}
