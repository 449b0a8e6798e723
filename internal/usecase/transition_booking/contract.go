package transition_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateState(ctx context.Context, id int64, from domain.BookingStatus, to domain.State, note *string) error
}

// IdentityClient интерфейс клиента UserService
type IdentityClient interface {
	IsProvider(ctx context.Context, userID int64) (bool, error)
	ResolveParticipants(ctx context.Context, booking *domain.Booking) (domain.Participants, error)
}

// Notifier получатель событий бронирования
type Notifier interface {
	Emit(ctx context.Context, event domain.BookingEvent) error
}

// Metrics доменные метрики
type Metrics interface {
	IncTransition(transition string)
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
