package overlap

import "errors"

var (
	// ErrInvalidInterval возвращается для пустого или перевернутого интервала
	ErrInvalidInterval = errors.New("overlap: invalid interval")

	// ErrInternal возвращается при ошибках чтения бронирований
	ErrInternal = errors.New("overlap: internal error")
)
