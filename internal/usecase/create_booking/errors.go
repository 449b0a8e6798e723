package create_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrStartInPast возвращается, когда бронирование начинается в прошлом
	ErrStartInPast = errors.New("create_booking: booking starts in the past")

	// ErrSelfBooking возвращается, когда исполнитель пытается забронировать собственную услугу
	ErrSelfBooking = errors.New("create_booking: provider cannot book own service")

	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrSlotNotAvailable возвращается, когда интервал пересекается с блокирующим бронированием
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
