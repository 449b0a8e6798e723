package domain

import "time"

// Slot is a candidate bookable window of one day
type Slot struct {
	Start     time.Time
	End       time.Time
	Label     string // "HH:MM–HH:MM", presentation only
	Available bool
}

// DayAvailability is the slot list of a single calendar date
type DayAvailability struct {
	Date  time.Time
	Slots []Slot
}

// AvailableCount returns how many slots are free
func (d *DayAvailability) AvailableCount() int {
	count := 0
	for _, s := range d.Slots {
		if s.Available {
			count++
		}
	}
	return count
}

// SlotLabel formats the presentation label of a window
func SlotLabel(start, end time.Time) string {
	return start.Format(TimeFormat) + "–" + end.Format(TimeFormat)
}
