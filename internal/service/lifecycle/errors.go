package lifecycle

import "errors"

var (
	// ErrNotParticipant возвращается, когда действующее лицо не клиент и не исполнитель бронирования
	ErrNotParticipant = errors.New("lifecycle: actor is not a participant of the booking")

	// ErrProviderOnly возвращается, когда действие доступно только исполнителю
	ErrProviderOnly = errors.New("lifecycle: only the provider can perform this action")

	// ErrTerminalState возвращается при попытке перехода из конечного состояния
	ErrTerminalState = errors.New("lifecycle: booking is in a terminal state")

	// ErrUndefinedTransition возвращается, когда переход из текущего состояния не определен
	ErrUndefinedTransition = errors.New("lifecycle: transition is not allowed from current state")

	// ErrUnknownAction возвращается для неизвестного действия
	ErrUnknownAction = errors.New("lifecycle: unknown action")
)
