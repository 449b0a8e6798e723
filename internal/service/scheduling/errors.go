package scheduling

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/lifecycle"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/transition_booking"
)

// errorKinds сопоставление ошибок пакетов с видами ошибок домена
var errorKinds = []struct {
	kind    error
	sources []error
}{
	{
		kind: domain.ErrValidation,
		sources: []error{
			create_booking.ErrInvalidInput,
			create_booking.ErrStartInPast,
			create_booking.ErrSelfBooking,
			transition_booking.ErrInvalidInput,
			lifecycle.ErrUnknownAction,
			availability.ErrInvalidInput,
			availability.ErrInvalidRange,
			availability.ErrRangeTooLong,
			bookings.ErrInvalidInput,
			bookings.ErrInvalidTimeRange,
		},
	},
	{
		kind: domain.ErrConflict,
		sources: []error{
			create_booking.ErrSlotNotAvailable,
		},
	},
	{
		kind: domain.ErrForbidden,
		sources: []error{
			transition_booking.ErrNotProvider,
			lifecycle.ErrNotParticipant,
			lifecycle.ErrProviderOnly,
			bookings.ErrAccessDenied,
		},
	},
	{
		kind: domain.ErrInvalidState,
		sources: []error{
			transition_booking.ErrStateChanged,
			lifecycle.ErrTerminalState,
			lifecycle.ErrUndefinedTransition,
		},
	},
	{
		kind: domain.ErrNotFound,
		sources: []error{
			create_booking.ErrServiceNotFound,
			transition_booking.ErrBookingNotFound,
			bookings.ErrBookingNotFound,
			catalogservice.ErrServiceNotFound,
		},
	},
}

// classify оборачивает ошибку видом домена; внутренние ошибки возвращаются без изменений
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return err
		}
		for _, src := range k.sources {
			if errors.Is(err, src) {
				return fmt.Errorf("%w: %w", k.kind, err)
			}
		}
	}
	return err
}
