package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/overlap"
)

// Calculator считает доступность слотов исполнителя по дням и по периодам
type Calculator struct {
	bookingRepo    BookingRepository
	hours          domain.BusinessHours
	maxSummaryDays int
}

// NewCalculator создает калькулятор доступности.
// maxSummaryDays ограничивает длину периода в FullyBookedDates; 0 означает значение по умолчанию.
func NewCalculator(bookingRepo BookingRepository, hours domain.BusinessHours, maxSummaryDays int) *Calculator {
	if maxSummaryDays <= 0 {
		maxSummaryDays = domain.DefaultMaxSummaryDays
	}
	return &Calculator{
		bookingRepo:    bookingRepo,
		hours:          hours,
		maxSummaryDays: maxSummaryDays,
	}
}

// BusinessHours возвращает рабочее окно калькулятора
func (c *Calculator) BusinessHours() domain.BusinessHours {
	return c.hours
}

// DaySlots возвращает слоты дня с флагами доступности.
// Блокирующие бронирования за весь рабочий день читаются одним запросом.
func (c *Calculator) DaySlots(ctx context.Context, providerID int64, durationHours int, date, now time.Time) (*domain.DayAvailability, error) {
	if providerID <= 0 {
		return nil, fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	day := c.hours.Day(date)
	result := &domain.DayAvailability{Date: day, Slots: []domain.Slot{}}

	if !IsBookableDay(day, c.hours, now) {
		return result, nil
	}

	busy, err := c.bookingRepo.ListByProvider(ctx, overlap.BlockingFilter(providerID, c.hours.Window(day), nil))
	if err != nil {
		return nil, fmt.Errorf("%w: DaySlots - list bookings: %v", ErrInternal, err)
	}

	result.Slots = BuildSlots(day, c.hours, durationHours, busy, now)
	return result, nil
}

// FullyBookedDates возвращает рабочие дни периода [startDate, endDate] без единого свободного слота.
// Все блокирующие бронирования периода читаются одним запросом.
func (c *Calculator) FullyBookedDates(ctx context.Context, providerID int64, durationHours int, startDate, endDate, now time.Time) ([]time.Time, error) {
	if providerID <= 0 {
		return nil, fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}
	if startDate.IsZero() || endDate.IsZero() {
		return nil, fmt.Errorf("%w: startDate and endDate are required", ErrInvalidInput)
	}

	first := c.hours.Day(startDate)
	last := c.hours.Day(endDate)

	if first.After(last) {
		return nil, ErrInvalidRange
	}
	if days := domain.DaysBetween(first, last) + 1; days > c.maxSummaryDays {
		return nil, fmt.Errorf("%w: %d days requested, at most %d allowed", ErrRangeTooLong, days, c.maxSummaryDays)
	}

	rangeInterval := domain.Interval{Start: first, End: last.AddDate(0, 0, 1)}

	busy, err := c.bookingRepo.ListByProvider(ctx, overlap.BlockingFilter(providerID, rangeInterval, nil))
	if err != nil {
		return nil, fmt.Errorf("%w: FullyBookedDates - list bookings: %v", ErrInternal, err)
	}

	return FullyBooked(first, last, c.hours, durationHours, busy, now), nil
}
