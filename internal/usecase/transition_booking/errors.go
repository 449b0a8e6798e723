package transition_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("transition_booking: invalid input data")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("transition_booking: booking not found")

	// ErrNotProvider возвращается, когда действие исполнителя выполняет пользователь без роли исполнителя
	ErrNotProvider = errors.New("transition_booking: user is not a provider")

	// ErrStateChanged возвращается, когда статус бронирования изменился конкурентным запросом
	ErrStateChanged = errors.New("transition_booking: booking state changed concurrently")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("transition_booking: internal error")
)
