package scheduling

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityCache "github.com/m04kA/SMC-SchedulingService/internal/infra/cache/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/transition_booking"
)

// CreateBookingUseCase создание бронирования
type CreateBookingUseCase interface {
	Execute(ctx context.Context, req *create_booking.Request) (*domain.Booking, error)
}

// TransitionBookingUseCase переходы жизненного цикла
type TransitionBookingUseCase interface {
	Execute(ctx context.Context, req *transition_booking.Request) (*domain.Booking, error)
}

// AvailabilityCalculator расчет доступности
type AvailabilityCalculator interface {
	DaySlots(ctx context.Context, providerID int64, durationHours int, date, now time.Time) (*domain.DayAvailability, error)
	FullyBookedDates(ctx context.Context, providerID int64, durationHours int, startDate, endDate, now time.Time) ([]time.Time, error)
	BusinessHours() domain.BusinessHours
}

// BookingQueries чтение бронирований
type BookingQueries interface {
	GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error)
	GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error)
	GetProviderCalendar(ctx context.Context, req *models.GetProviderCalendarRequest) (*models.BookingListResponse, error)
}

// CatalogClient интерфейс клиента каталога услуг
type CatalogClient interface {
	GetServiceSlot(ctx context.Context, serviceID int64) (providerID int64, durationHours int, err error)
}

// SummaryCache кэш сводки доступности (опционально)
type SummaryCache interface {
	Get(ctx context.Context, key availabilityCache.SummaryKey) ([]time.Time, int64, bool, error)
	Set(ctx context.Context, key availabilityCache.SummaryKey, version int64, dates []time.Time) error
	Invalidate(ctx context.Context, providerID int64) error
}

// Metrics метрики кэша
type Metrics interface {
	IncCacheResult(result string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
