package domain

// Business hours defaults
const (
	DefaultOpenHour      = 9
	DefaultCloseHour     = 18
	MinSlotDurationHours = 1
)

// Validation constants
const (
	MaxNoteLength         = 500
	DefaultMaxSummaryDays = 62
	DefaultTimezone       = "America/Sao_Paulo"
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
