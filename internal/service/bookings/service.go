package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// Service сервис чтения бронирований
type Service struct {
	bookingRepo     BookingRepository
	hours           domain.BusinessHours
	maxCalendarDays int
	logger          Logger
}

// NewService создает новый экземпляр сервиса бронирований.
// hours задает часовой пояс календаря, maxCalendarDays ограничивает период календаря исполнителя.
func NewService(
	bookingRepo BookingRepository,
	hours domain.BusinessHours,
	maxCalendarDays int,
	logger Logger,
) *Service {
	if maxCalendarDays <= 0 {
		maxCalendarDays = domain.DefaultMaxSummaryDays
	}
	return &Service{
		bookingRepo:     bookingRepo,
		hours:           hours,
		maxCalendarDays: maxCalendarDays,
		logger:          logger,
	}
}

// GetByID получает бронирование по ID.
// Видеть бронирование могут только его участники.
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if !booking.IsParticipant(userID) {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований пользователя, новые первыми.
// Пользователь видит только свою историю.
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, role=%s, status=%v", req.UserID, req.Role, req.Status)

	if req.UserID <= 0 {
		return nil, fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.RequesterID != req.UserID {
		s.logger.Warn("GetUserBookings: user=%d tried to read history of user=%d", req.RequesterID, req.UserID)
		return nil, ErrAccessDenied
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetUserBookings: invalid filter for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bookings, err := s.bookingRepo.ListByUser(ctx, filter)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// GetProviderCalendar получает все бронирования исполнителя, пересекающиеся с периодом [StartDate, EndDate].
// Доступно только самому исполнителю.
func (s *Service) GetProviderCalendar(ctx context.Context, req *models.GetProviderCalendarRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetProviderCalendar: provider=%d, user=%d, period=%s to %s",
		req.ProviderID, req.UserID, req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat))

	if req.ProviderID <= 0 {
		return nil, fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if req.UserID != req.ProviderID {
		s.logger.Warn("GetProviderCalendar: user=%d is not provider=%d", req.UserID, req.ProviderID)
		return nil, ErrAccessDenied
	}

	start := s.hours.Day(req.StartDate)
	end := s.hours.Day(req.EndDate)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: startDate is after endDate", ErrInvalidTimeRange)
	}
	if days := domain.DaysBetween(start, end) + 1; days > s.maxCalendarDays {
		return nil, fmt.Errorf("%w: period of %d days exceeds %d", ErrInvalidTimeRange, days, s.maxCalendarDays)
	}

	bookings, err := s.bookingRepo.ListByProvider(ctx, domain.ProviderBookingsFilter{
		ProviderID: req.ProviderID,
		Range:      domain.Interval{Start: start, End: end.AddDate(0, 0, 1)},
	})
	if err != nil {
		s.logger.Error("GetProviderCalendar: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: GetProviderCalendar - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetProviderCalendar: fetched %d bookings for provider=%d", len(bookings), req.ProviderID)
	return models.FromDomainBookingList(bookings), nil
}
