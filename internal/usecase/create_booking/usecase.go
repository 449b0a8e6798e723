package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	catalogClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/pkg/pgerrors"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo   BookingRepository
	validator     OverlapValidator
	catalogClient CatalogClient
	notifier      Notifier
	metrics       Metrics
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	validator OverlapValidator,
	catalogClient CatalogClient,
	notifier Notifier,
	metrics Metrics,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		validator:     validator,
		catalogClient: catalogClient,
		notifier:      notifier,
		metrics:       metrics,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования.
// Проверка пересечения и вставка выполняются в одной сериализуемой транзакции
// под advisory lock исполнителя, поэтому из конкурирующих запросов побеждает один.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Booking, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("CreateBooking: client=%d, service=%d, start=%s, end=%s",
		req.ClientID, req.ServiceID, req.StartAt.Format(time.RFC3339), req.EndAt.Format(time.RFC3339))

	now := uc.timeProvider.Now()
	if err := validateNotInPast(req.StartAt, now); err != nil {
		uc.logger.Warn("CreateBooking: %v", err)
		return nil, err
	}

	// 2. Исполнитель услуги
	providerID, err := uc.catalogClient.GetServiceProvider(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get provider of service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service provider: %v", ErrInternal, err)
	}

	if providerID == req.ClientID {
		uc.logger.Warn("CreateBooking: provider id=%d tried to book own service id=%d", providerID, req.ServiceID)
		return nil, ErrSelfBooking
	}

	interval := domain.Interval{Start: req.StartAt, End: req.EndAt}
	var result *domain.Booking

	// 3. Проверка и вставка в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := uc.bookingRepo.LockProvider(txCtx, providerID); err != nil {
			return fmt.Errorf("%w: failed to lock provider: %w", ErrInternal, err)
		}

		conflict, err := uc.validator.Conflicts(txCtx, providerID, interval, nil)
		if err != nil {
			return fmt.Errorf("%w: failed to check overlap: %w", ErrInternal, err)
		}
		if conflict {
			return ErrSlotNotAvailable
		}

		booking := &domain.Booking{
			ClientID:   req.ClientID,
			ProviderID: providerID,
			ServiceID:  req.ServiceID,
			StartAt:    req.StartAt,
			EndAt:      req.EndAt,
			Note:       req.Note,
		}
		booking.SetState(domain.Pending())

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrOverlap) {
				return ErrSlotNotAvailable
			}
			return fmt.Errorf("%w: failed to create booking: %w", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrSlotNotAvailable) || pgerrors.IsConcurrencyConflict(err) {
			uc.metrics.IncBookingConflict()
			uc.logger.Warn("CreateBooking: slot %s - %s of provider id=%d is not available",
				req.StartAt.Format(time.RFC3339), req.EndAt.Format(time.RFC3339), providerID)
			return nil, ErrSlotNotAvailable
		}
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	uc.metrics.IncBookingCreated()
	uc.logger.Info("CreateBooking: successfully created booking id=%d", result.ID)

	// 4. Событие после фиксации транзакции; ошибка доставки не отменяет бронирование
	event := domain.NewBookingEvent(uuid.NewString(), domain.EventBookingCreated, result, uc.timeProvider.Now())
	event.ActorID = req.ClientID
	if err := uc.notifier.Emit(ctx, event); err != nil {
		uc.metrics.IncNotifierFailure()
		uc.logger.Error("CreateBooking: failed to emit event for booking id=%d: %v", result.ID, err)
	}

	return result, nil
}
