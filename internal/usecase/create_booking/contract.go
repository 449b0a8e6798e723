package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	LockProvider(ctx context.Context, providerID int64) error
}

// OverlapValidator проверка пересечения с блокирующими бронированиями
type OverlapValidator interface {
	Conflicts(ctx context.Context, providerID int64, interval domain.Interval, excludingID *int64) (bool, error)
}

// CatalogClient интерфейс клиента каталога услуг
type CatalogClient interface {
	GetServiceProvider(ctx context.Context, serviceID int64) (int64, error)
}

// Notifier получатель событий бронирования
type Notifier interface {
	Emit(ctx context.Context, event domain.BookingEvent) error
}

// Metrics доменные метрики
type Metrics interface {
	IncBookingCreated()
	IncBookingConflict()
	IncNotifierFailure()
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
