package transition_booking

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/service/lifecycle"
	"github.com/m04kA/SMC-SchedulingService/pkg/pgerrors"
)

// UseCase use case для переходов жизненного цикла бронирования
type UseCase struct {
	bookingRepo    BookingRepository
	identityClient IdentityClient
	notifier       Notifier
	metrics        Metrics
	txManager      TransactionManager
	timeProvider   TimeProvider
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	identityClient IdentityClient,
	notifier Notifier,
	metrics Metrics,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:    bookingRepo,
		identityClient: identityClient,
		notifier:       notifier,
		metrics:        metrics,
		txManager:      txManager,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute применяет переход к бронированию.
// Бронирование читается с блокировкой строки, статус обновляется только если он не изменился с момента чтения.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Booking, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("TransitionBooking: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("TransitionBooking: booking=%d, action=%s, actor=%d, system=%t",
		req.BookingID, req.Action, req.Actor.UserID, req.Actor.System)

	var result *domain.Booking

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Текущее состояние (FOR UPDATE внутри транзакции)
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: failed to get booking: %w", ErrInternal, err)
		}

		// 2. Участники бронирования
		participants, err := uc.identityClient.ResolveParticipants(txCtx, booking)
		if err != nil {
			return fmt.Errorf("%w: failed to resolve participants: %v", ErrInternal, err)
		}

		// 3. Подтверждать и отклонять может только пользователь с ролью исполнителя
		if requiresProviderRole(req.Action) && !req.Actor.System {
			isProvider, err := uc.identityClient.IsProvider(txCtx, req.Actor.UserID)
			if err != nil {
				return fmt.Errorf("%w: failed to check provider role: %v", ErrInternal, err)
			}
			if !isProvider {
				return fmt.Errorf("%w: user=%d", ErrNotProvider, req.Actor.UserID)
			}
		}

		// 4. Проверка перехода
		next, err := lifecycle.Transition(booking.State(), participants, req.Action, req.Actor)
		if err != nil {
			return err
		}

		// 5. Compare-and-set по предыдущему статусу
		if err := uc.bookingRepo.UpdateState(txCtx, booking.ID, booking.Status, next, req.Note); err != nil {
			if errors.Is(err, bookingRepo.ErrStateChanged) {
				return ErrStateChanged
			}
			return fmt.Errorf("%w: failed to update state: %w", ErrInternal, err)
		}

		updated, err := uc.bookingRepo.GetByID(txCtx, booking.ID)
		if err != nil {
			return fmt.Errorf("%w: failed to reload booking: %w", ErrInternal, err)
		}

		result = updated
		return nil
	})

	// Конкурентный переход той же строки под SERIALIZABLE: проигравший получает детерминированную ошибку
	if err != nil && pgerrors.IsConcurrencyConflict(err) {
		err = fmt.Errorf("%w: %v", ErrStateChanged, err)
	}
	if err != nil {
		uc.logTransitionError(req, err)
		return nil, err
	}

	uc.metrics.IncTransition(string(req.Action))
	uc.logger.Info("TransitionBooking: booking id=%d is now %s", result.ID, result.State())

	// Событие после фиксации; ошибка доставки только логируется
	event := domain.NewBookingEvent(uuid.NewString(), req.Action.EventType(), result, uc.timeProvider.Now())
	event.ActorID = req.Actor.UserID
	event.Transition = string(req.Action)
	event.Note = req.Note
	if err := uc.notifier.Emit(ctx, event); err != nil {
		uc.metrics.IncNotifierFailure()
		uc.logger.Error("TransitionBooking: failed to emit event for booking id=%d: %v", result.ID, err)
	}

	return result, nil
}

func (uc *UseCase) logTransitionError(req *Request, err error) {
	switch {
	case errors.Is(err, ErrInternal):
		uc.logger.Error("TransitionBooking: booking=%d action=%s failed: %v", req.BookingID, req.Action, err)
	default:
		uc.logger.Warn("TransitionBooking: booking=%d action=%s rejected: %v", req.BookingID, req.Action, err)
	}
}

func requiresProviderRole(action lifecycle.Action) bool {
	return action == lifecycle.ActionAccept || action == lifecycle.ActionReject
}

func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidInput)
	}
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}
	if !req.Actor.System && req.Actor.UserID <= 0 {
		return fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	if req.Action.EventType() == "" {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, req.Action)
	}
	if req.Note != nil && utf8.RuneCountInString(*req.Note) > domain.MaxNoteLength {
		return fmt.Errorf("%w: note is longer than %d characters", ErrInvalidInput, domain.MaxNoteLength)
	}
	return nil
}
