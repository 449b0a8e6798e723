package lifecycle

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Action переход жизненного цикла бронирования
type Action string

const (
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
	ActionNoShow   Action = "no_show"
)

// Role роль действующего лица относительно конкретного бронирования
type Role string

const (
	RoleNone     Role = "none"
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleSystem   Role = "system"
)

// Actor кто выполняет переход. System используется внешним планировщиком (complete, no_show).
type Actor struct {
	UserID int64
	System bool
}

// SystemActor действующее лицо для фоновых задач
func SystemActor() Actor {
	return Actor{System: true}
}

// RoleIn определяет роль действующего лица в бронировании
func (a Actor) RoleIn(p domain.Participants) Role {
	switch {
	case a.System:
		return RoleSystem
	case a.UserID != 0 && a.UserID == p.ProviderID:
		return RoleProvider
	case a.UserID != 0 && a.UserID == p.ClientID:
		return RoleClient
	default:
		return RoleNone
	}
}

// EventType событие, которое публикуется после успешного перехода
func (a Action) EventType() domain.EventType {
	switch a {
	case ActionAccept:
		return domain.EventBookingAccepted
	case ActionReject:
		return domain.EventBookingRejected
	case ActionCancel:
		return domain.EventBookingCanceled
	case ActionComplete:
		return domain.EventBookingCompleted
	case ActionNoShow:
		return domain.EventBookingNoShow
	default:
		return ""
	}
}

// transitions допустимые переходы: текущий статус -> действие -> роли, которым оно разрешено
var transitions = map[domain.BookingStatus]map[Action][]Role{
	domain.StatusPending: {
		ActionAccept: {RoleProvider},
		ActionReject: {RoleProvider},
		ActionCancel: {RoleClient, RoleProvider},
	},
	domain.StatusConfirmed: {
		ActionCancel:   {RoleClient, RoleProvider},
		ActionComplete: {RoleSystem, RoleProvider},
		ActionNoShow:   {RoleSystem, RoleProvider},
	},
}

// Apply проверяет переход для бронирования и возвращает новое состояние. Бронирование не изменяется.
func Apply(b *domain.Booking, action Action, actor Actor) (domain.State, error) {
	participants := domain.Participants{ClientID: b.ClientID, ProviderID: b.ProviderID}
	return Transition(b.State(), participants, action, actor)
}

// Transition проверяет переход из current от имени actor.
//
// Порядок проверок: участник, роль, конечное состояние, допустимость перехода.
// Повторный запрос к уже завершенному бронированию детерминированно получает ErrTerminalState.
func Transition(current domain.State, participants domain.Participants, action Action, actor Actor) (domain.State, error) {
	allowedRoles, known := allowedFor(action)
	if !known {
		return current, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	role := actor.RoleIn(participants)
	if role == RoleNone {
		return current, fmt.Errorf("%w: user=%d", ErrNotParticipant, actor.UserID)
	}
	if !containsRole(allowedRoles, role) {
		if containsRole(allowedRoles, RoleProvider) && !containsRole(allowedRoles, RoleClient) {
			return current, fmt.Errorf("%w: action=%s role=%s", ErrProviderOnly, action, role)
		}
		return current, fmt.Errorf("%w: action=%s role=%s", ErrNotParticipant, action, role)
	}

	if current.Status.IsTerminal() {
		return current, fmt.Errorf("%w: status=%s action=%s", ErrTerminalState, current.Status, action)
	}

	roles, ok := transitions[current.Status][action]
	if !ok || !containsRole(roles, role) {
		return current, fmt.Errorf("%w: status=%s action=%s", ErrUndefinedTransition, current.Status, action)
	}

	return nextState(action, role), nil
}

// nextState состояние после перехода; атрибуция отмены берется из роли
func nextState(action Action, role Role) domain.State {
	switch action {
	case ActionAccept:
		return domain.Confirmed()
	case ActionReject:
		return domain.Rejected()
	case ActionCancel:
		if role == RoleProvider {
			return domain.Canceled(domain.PartyProfessional)
		}
		return domain.Canceled(domain.PartyClient)
	case ActionComplete:
		return domain.Completed()
	default:
		return domain.NoShow()
	}
}

// allowedFor объединяет роли, которым действие разрешено хотя бы из одного состояния
func allowedFor(action Action) ([]Role, bool) {
	var roles []Role
	known := false
	for _, byAction := range transitions {
		allowed, ok := byAction[action]
		if !ok {
			continue
		}
		known = true
		for _, r := range allowed {
			if !containsRole(roles, r) {
				roles = append(roles, r)
			}
		}
	}
	return roles, known
}

func containsRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
