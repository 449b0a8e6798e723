package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityCache "github.com/m04kA/SMC-SchedulingService/internal/infra/cache/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/lifecycle"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/transition_booking"
)

// Результаты обращения к кэшу для метрик
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
	cacheSkip  = "skip"
)

// Service фасад планирования: создание и переходы бронирований, доступность, чтение.
// Ошибки возвращаются обернутыми в виды ошибок домена (domain.ErrValidation, domain.ErrConflict и т.д.).
type Service struct {
	createUC     CreateBookingUseCase
	transitionUC TransitionBookingUseCase
	calculator   AvailabilityCalculator
	queries      BookingQueries
	catalog      CatalogClient
	cache        SummaryCache
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает фасад. cache может быть nil: тогда сводка всегда считается заново.
func NewService(
	createUC CreateBookingUseCase,
	transitionUC TransitionBookingUseCase,
	calculator AvailabilityCalculator,
	queries BookingQueries,
	catalog CatalogClient,
	cache SummaryCache,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		createUC:     createUC,
		transitionUC: transitionUC,
		calculator:   calculator,
		queries:      queries,
		catalog:      catalog,
		cache:        cache,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// CreateBooking создает бронирование в статусе pending
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	booking, err := s.createUC.Execute(ctx, &create_booking.Request{
		ClientID:  req.ClientID,
		ServiceID: req.ServiceID,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
		Note:      req.Note,
	})
	if err != nil {
		return nil, classify(err)
	}

	s.invalidate(ctx, booking.ProviderID)
	return booking, nil
}

// AcceptBooking подтверждение исполнителем
func (s *Service) AcceptBooking(ctx context.Context, bookingID, actorID int64, note *string) (*domain.Booking, error) {
	return s.transition(ctx, bookingID, lifecycle.ActionAccept, lifecycle.Actor{UserID: actorID}, note)
}

// RejectBooking отказ исполнителя
func (s *Service) RejectBooking(ctx context.Context, bookingID, actorID int64, note *string) (*domain.Booking, error) {
	return s.transition(ctx, bookingID, lifecycle.ActionReject, lifecycle.Actor{UserID: actorID}, note)
}

// CancelBooking отмена клиентом или исполнителем
func (s *Service) CancelBooking(ctx context.Context, bookingID, actorID int64, note *string) (*domain.Booking, error) {
	return s.transition(ctx, bookingID, lifecycle.ActionCancel, lifecycle.Actor{UserID: actorID}, note)
}

// CompleteBooking завершение подтвержденного бронирования
func (s *Service) CompleteBooking(ctx context.Context, bookingID int64, actor lifecycle.Actor, note *string) (*domain.Booking, error) {
	return s.transition(ctx, bookingID, lifecycle.ActionComplete, actor, note)
}

// MarkNoShow отметка о неявке клиента
func (s *Service) MarkNoShow(ctx context.Context, bookingID int64, actor lifecycle.Actor, note *string) (*domain.Booking, error) {
	return s.transition(ctx, bookingID, lifecycle.ActionNoShow, actor, note)
}

func (s *Service) transition(ctx context.Context, bookingID int64, action lifecycle.Action, actor lifecycle.Actor, note *string) (*domain.Booking, error) {
	booking, err := s.transitionUC.Execute(ctx, &transition_booking.Request{
		BookingID: bookingID,
		Action:    action,
		Actor:     actor,
		Note:      note,
	})
	if err != nil {
		return nil, classify(err)
	}

	s.invalidate(ctx, booking.ProviderID)
	return booking, nil
}

// GetDayAvailability слоты услуги на дату
func (s *Service) GetDayAvailability(ctx context.Context, serviceID int64, date time.Time) (*domain.DayAvailability, error) {
	providerID, duration, err := s.resolveService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	day, err := s.calculator.DaySlots(ctx, providerID, duration, date, s.timeProvider.Now())
	if err != nil {
		s.logger.Warn("GetDayAvailability: service=%d date=%s: %v", serviceID, date.Format(domain.DateFormat), err)
		return nil, classify(err)
	}
	return day, nil
}

// GetMonthAvailabilitySummary полностью занятые даты услуги за период [startDate, endDate]
func (s *Service) GetMonthAvailabilitySummary(ctx context.Context, serviceID int64, startDate, endDate time.Time) (*MonthSummary, error) {
	providerID, duration, err := s.resolveService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	hours := s.calculator.BusinessHours()
	key := availabilityCache.SummaryKey{
		ProviderID:    providerID,
		DurationHours: duration,
		StartDate:     hours.Day(startDate),
		EndDate:       hours.Day(endDate),
	}

	summary := &MonthSummary{
		ServiceID:     serviceID,
		ProviderID:    providerID,
		DurationHours: duration,
		StartDate:     key.StartDate,
		EndDate:       key.EndDate,
	}

	// Период, начинающийся после сегодняшнего дня, не зависит от текущего времени и может быть закэширован
	cacheable := s.cache != nil && key.StartDate.After(hours.Day(now))
	var version int64
	if cacheable {
		var (
			cached []time.Time
			found  bool
		)
		cached, version, found, err = s.cache.Get(ctx, key)
		switch {
		case err != nil:
			// Версия неизвестна, поэтому результат не сохраняем
			cacheable = false
			s.metrics.IncCacheResult(cacheError)
			s.logger.Warn("GetMonthAvailabilitySummary: cache read failed for provider=%d: %v", providerID, err)
		case found:
			s.metrics.IncCacheResult(cacheHit)
			summary.FullyBooked = cached
			return summary, nil
		default:
			s.metrics.IncCacheResult(cacheMiss)
		}
	} else {
		s.metrics.IncCacheResult(cacheSkip)
	}

	dates, err := s.calculator.FullyBookedDates(ctx, providerID, duration, startDate, endDate, now)
	if err != nil {
		s.logger.Warn("GetMonthAvailabilitySummary: service=%d period=%s..%s: %v",
			serviceID, startDate.Format(domain.DateFormat), endDate.Format(domain.DateFormat), err)
		return nil, classify(err)
	}
	summary.FullyBooked = dates

	if cacheable {
		if err := s.cache.Set(ctx, key, version, dates); err != nil {
			s.logger.Warn("GetMonthAvailabilitySummary: cache write failed for provider=%d: %v", providerID, err)
		}
	}

	return summary, nil
}

// GetBooking бронирование для участника
func (s *Service) GetBooking(ctx context.Context, bookingID, userID int64) (*models.BookingResponse, error) {
	booking, err := s.queries.GetByID(ctx, bookingID, userID)
	if err != nil {
		return nil, classify(err)
	}
	return booking, nil
}

// GetUserBookings история бронирований пользователя
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	list, err := s.queries.GetUserBookings(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	return list, nil
}

// GetProviderCalendar бронирования исполнителя за период
func (s *Service) GetProviderCalendar(ctx context.Context, req *models.GetProviderCalendarRequest) (*models.BookingListResponse, error) {
	list, err := s.queries.GetProviderCalendar(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	return list, nil
}

// resolveService находит исполнителя и длительность слота услуги
func (s *Service) resolveService(ctx context.Context, serviceID int64) (int64, int, error) {
	if serviceID <= 0 {
		return 0, 0, fmt.Errorf("%w: serviceID must be positive", domain.ErrValidation)
	}

	providerID, duration, err := s.catalog.GetServiceSlot(ctx, serviceID)
	if err != nil {
		s.logger.Warn("resolveService: service=%d: %v", serviceID, err)
		return 0, 0, classify(err)
	}

	return providerID, domain.NormalizeDuration(duration), nil
}

// invalidate сбрасывает кэш сводок исполнителя; ошибка не влияет на результат записи
func (s *Service) invalidate(ctx context.Context, providerID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, providerID); err != nil {
		s.logger.Warn("invalidate: cache invalidation failed for provider=%d: %v", providerID, err)
	}
}
