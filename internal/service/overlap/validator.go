package overlap

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Validator проверяет пересечение интервала с блокирующими бронированиями исполнителя
type Validator struct {
	bookingRepo BookingRepository
}

// NewValidator создает новый валидатор
func NewValidator(bookingRepo BookingRepository) *Validator {
	return &Validator{bookingRepo: bookingRepo}
}

// Conflicts возвращает true, если interval пересекается хотя бы с одним блокирующим бронированием.
// excludingID позволяет перепроверить уже сохраненное бронирование без конфликта с самим собой.
// Внутри транзакции найденные строки блокируются репозиторием.
func (v *Validator) Conflicts(ctx context.Context, providerID int64, interval domain.Interval, excludingID *int64) (bool, error) {
	conflict, err := v.FindConflict(ctx, providerID, interval, excludingID)
	if err != nil {
		return false, err
	}
	return conflict != nil, nil
}

// FindConflict возвращает первое пересекающееся блокирующее бронирование или nil
func (v *Validator) FindConflict(ctx context.Context, providerID int64, interval domain.Interval, excludingID *int64) (*domain.Booking, error) {
	if !interval.Valid() {
		return nil, fmt.Errorf("%w: start=%s end=%s", ErrInvalidInterval, interval.Start, interval.End)
	}

	bookings, err := v.bookingRepo.ListByProvider(ctx, BlockingFilter(providerID, interval, excludingID))
	if err != nil {
		return nil, fmt.Errorf("%w: FindConflict - list bookings: %w", ErrInternal, err)
	}

	return FindConflict(bookings, interval, excludingID), nil
}

// BlockingFilter фильтр блокирующих бронирований исполнителя, пересекающихся с interval
func BlockingFilter(providerID int64, interval domain.Interval, excludingID *int64) domain.ProviderBookingsFilter {
	return domain.ProviderBookingsFilter{
		ProviderID: providerID,
		Range:      interval,
		States:     BlockingStates(),
		ExcludeID:  excludingID,
	}
}

// FindConflict ищет среди уже загруженных бронирований первое блокирующее, пересекающееся с interval.
// Правило блокировки применяется повторно, поэтому функция корректна и для нефильтрованного списка.
func FindConflict(bookings []*domain.Booking, interval domain.Interval, excludingID *int64) *domain.Booking {
	for _, b := range bookings {
		if excludingID != nil && b.ID == *excludingID {
			continue
		}
		if !IsBlocking(b.State()) {
			continue
		}
		if b.Interval().Overlaps(interval) {
			return b
		}
	}
	return nil
}
