package scheduling

import "time"

// CreateBookingRequest запрос на создание бронирования
type CreateBookingRequest struct {
	ClientID  int64
	ServiceID int64
	StartAt   time.Time
	EndAt     time.Time
	Note      *string
}

// MonthSummary полностью занятые даты услуги за период
type MonthSummary struct {
	ServiceID     int64
	ProviderID    int64
	DurationHours int
	StartDate     time.Time
	EndDate       time.Time
	FullyBooked   []time.Time
}
