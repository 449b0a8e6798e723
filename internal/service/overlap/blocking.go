package overlap

import "github.com/m04kA/SMC-SchedulingService/internal/domain"

// IsBlocking решает, занимает ли бронирование в этом состоянии календарь исполнителя.
//
// Блокируют: pending, confirmed, rejected и canceled, если отменил исполнитель.
// Отмена клиентом сразу освобождает время.
func IsBlocking(state domain.State) bool {
	switch state.Status {
	case domain.StatusPending, domain.StatusConfirmed, domain.StatusRejected:
		return true
	case domain.StatusCanceled:
		return state.CanceledByParty() == domain.PartyProfessional
	default:
		return false
	}
}

// BlockingStates то же правило в виде фильтра для хранилища
func BlockingStates() []domain.StateMatch {
	professional := domain.PartyProfessional
	return []domain.StateMatch{
		{Status: domain.StatusPending},
		{Status: domain.StatusConfirmed},
		{Status: domain.StatusRejected},
		{Status: domain.StatusCanceled, CanceledBy: &professional},
	}
}
