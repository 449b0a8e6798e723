package transition_booking

import "github.com/m04kA/SMC-SchedulingService/internal/service/lifecycle"

// Request модель запроса на переход бронирования
type Request struct {
	BookingID int64
	Action    lifecycle.Action
	Actor     lifecycle.Actor
	Note      *string // Комментарий к переходу (например, причина отказа)
}
