package transition_booking

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/lifecycle"
)

type SchedulingService interface {
	AcceptBooking(ctx context.Context, bookingID, actorID int64, note *string) (*domain.Booking, error)
	RejectBooking(ctx context.Context, bookingID, actorID int64, note *string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID, actorID int64, note *string) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, bookingID int64, actor lifecycle.Actor, note *string) (*domain.Booking, error)
	MarkNoShow(ctx context.Context, bookingID int64, actor lifecycle.Actor, note *string) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
