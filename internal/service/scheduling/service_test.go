package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityCache "github.com/m04kA/SMC-SchedulingService/internal/infra/cache/availability"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notifier"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/lifecycle"
	"github.com/m04kA/SMC-SchedulingService/internal/service/overlap"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/transition_booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
)

const (
	clientID   int64 = 10
	providerID int64 = 20
	strangerID int64 = 30
	serviceID  int64 = 5
)

type fakeCatalog struct {
	providers map[int64]int64
	durations map[int64]int
	slotCalls int
}

func (c *fakeCatalog) GetServiceProvider(_ context.Context, id int64) (int64, error) {
	p, ok := c.providers[id]
	if !ok {
		return 0, catalogservice.ErrServiceNotFound
	}
	return p, nil
}

func (c *fakeCatalog) GetServiceSlot(_ context.Context, id int64) (int64, int, error) {
	c.slotCalls++
	p, ok := c.providers[id]
	if !ok {
		return 0, 0, catalogservice.ErrServiceNotFound
	}
	return p, c.durations[id], nil
}

type fakeIdentity struct{}

func (fakeIdentity) IsProvider(_ context.Context, userID int64) (bool, error) {
	return userID == providerID || userID == strangerID, nil
}

func (fakeIdentity) ResolveParticipants(_ context.Context, b *domain.Booking) (domain.Participants, error) {
	return domain.Participants{ClientID: b.ClientID, ProviderID: b.ProviderID}, nil
}

type fixedTime struct {
	now time.Time
}

func (f fixedTime) Now() time.Time {
	return f.now
}

// Воскресенье, 1 марта 2026
var testNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc     *Service
	catalog *fakeCatalog
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()

	log := logger.NewNop()
	clock := fixedTime{now: testNow}
	m := metrics.NewWithRegisterer("scheduling", prometheus.NewRegistry())

	repo := bookingRepo.NewMemoryRepository(overlap.IsBlocking)
	txManager := bookingRepo.NewMemoryTxManager(repo)
	catalog := &fakeCatalog{
		providers: map[int64]int64{serviceID: providerID},
		durations: map[int64]int{serviceID: 2},
	}
	events := notifier.NewLogNotifier(log)
	hours := domain.DefaultBusinessHours()

	createUC := create_booking.NewUseCase(repo, overlap.NewValidator(repo), catalog, events, m, txManager, log).
		WithTimeProvider(clock)
	transitionUC := transition_booking.NewUseCase(repo, fakeIdentity{}, events, m, txManager, log).
		WithTimeProvider(clock)

	var cache SummaryCache
	if withCache {
		s, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(s.Close)
		client := redis.NewClient(&redis.Options{Addr: s.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		cache = availabilityCache.NewSummaryCache(client, time.Minute, hours.Loc())
	}

	svc := NewService(
		createUC,
		transitionUC,
		availability.NewCalculator(repo, hours, 31),
		bookings.NewService(repo, hours, 31, log),
		catalog,
		cache,
		m,
		log,
	).WithTimeProvider(clock)

	return &fixture{svc: svc, catalog: catalog, metrics: m}
}

func (f *fixture) book(t *testing.T, day, from, to int) *domain.Booking {
	t.Helper()

	b, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		ClientID:  clientID,
		ServiceID: serviceID,
		StartAt:   at(day, from),
		EndAt:     at(day, to),
	})
	require.NoError(t, err)
	return b
}

func availableLabels(day *domain.DayAvailability) []string {
	var labels []string
	for _, s := range day.Slots {
		if s.Available {
			labels = append(labels, s.Label)
		}
	}
	return labels
}

func TestService_DayAvailabilityScenario(t *testing.T) {
	f := newFixture(t, false)
	f.book(t, 2, 10, 12)

	day, err := f.svc.GetDayAvailability(context.Background(), serviceID, at(2, 0))
	require.NoError(t, err)

	require.Len(t, day.Slots, 4)
	assert.Equal(t, []string{"13:00–15:00", "15:00–17:00"}, availableLabels(day))
	assert.Equal(t, 1, f.catalog.slotCalls)
}

func TestService_CreateBookingErrors(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.book(t, 2, 10, 12)

	_, err := f.svc.CreateBooking(ctx, CreateBookingRequest{ClientID: clientID, ServiceID: serviceID, StartAt: at(2, 11), EndAt: at(2, 13)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.svc.CreateBooking(ctx, CreateBookingRequest{ClientID: clientID, ServiceID: serviceID, StartAt: at(2, 13), EndAt: at(2, 12)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreateBooking(ctx, CreateBookingRequest{ClientID: clientID, ServiceID: 99, StartAt: at(2, 13), EndAt: at(2, 14)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.CreateBooking(ctx, CreateBookingRequest{ClientID: providerID, ServiceID: serviceID, StartAt: at(2, 13), EndAt: at(2, 14)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreateBooking(ctx, CreateBookingRequest{ClientID: clientID, ServiceID: serviceID, StartAt: testNow.Add(-time.Hour), EndAt: testNow})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_TransitionErrorKinds(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	b := f.book(t, 2, 10, 12)

	_, err := f.svc.CancelBooking(ctx, b.ID, strangerID, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.AcceptBooking(ctx, b.ID, clientID, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.CompleteBooking(ctx, b.ID, lifecycle.SystemActor(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.svc.AcceptBooking(ctx, b.ID+100, providerID, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	accepted, err := f.svc.AcceptBooking(ctx, b.ID, providerID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, accepted.Status)

	canceled, err := f.svc.CancelBooking(ctx, b.ID, clientID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PartyClient, canceled.State().CanceledByParty())

	_, err = f.svc.CancelBooking(ctx, b.ID, clientID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.svc.MarkNoShow(ctx, b.ID, lifecycle.Actor{UserID: providerID}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestService_ClientCancelFreesSlot(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	b := f.book(t, 2, 9, 11)
	_, err := f.svc.CancelBooking(ctx, b.ID, clientID, nil)
	require.NoError(t, err)

	day, err := f.svc.GetDayAvailability(ctx, serviceID, at(2, 0))
	require.NoError(t, err)
	assert.Len(t, availableLabels(day), 4)
}

func TestService_ProfessionalCancelKeepsSlotBlocked(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	b := f.book(t, 2, 9, 11)
	_, err := f.svc.CancelBooking(ctx, b.ID, providerID, nil)
	require.NoError(t, err)

	day, err := f.svc.GetDayAvailability(ctx, serviceID, at(2, 0))
	require.NoError(t, err)
	assert.Len(t, availableLabels(day), 3)
}

func TestService_MonthSummary(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	summary, err := f.svc.GetMonthAvailabilitySummary(ctx, serviceID, at(2, 0), at(8, 0))
	require.NoError(t, err)
	assert.Empty(t, summary.FullyBooked)
	assert.Equal(t, providerID, summary.ProviderID)
	assert.Equal(t, 2, summary.DurationHours)

	// Второй запрос читается из кэша
	_, err = f.svc.GetMonthAvailabilitySummary(ctx, serviceID, at(2, 0), at(8, 0))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheRequests.WithLabelValues("scheduling", "hit")))

	// Запись сбрасывает кэш исполнителя
	for _, from := range []int{9, 11, 13, 15} {
		f.book(t, 3, from, from+2)
	}

	summary, err = f.svc.GetMonthAvailabilitySummary(ctx, serviceID, at(2, 0), at(8, 0))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(3, 0)}, summary.FullyBooked)
}

func TestService_MonthSummaryIncludingTodayIsNotCached(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.GetMonthAvailabilitySummary(context.Background(), serviceID, at(1, 0), at(8, 0))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheRequests.WithLabelValues("scheduling", "skip")))
}

func TestService_MonthSummaryErrors(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.GetMonthAvailabilitySummary(ctx, serviceID, at(8, 0), at(2, 0))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.GetMonthAvailabilitySummary(ctx, 99, at(2, 0), at(8, 0))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.GetDayAvailability(ctx, 0, at(2, 0))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Queries(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	b := f.book(t, 2, 10, 12)

	got, err := f.svc.GetBooking(ctx, b.ID, providerID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.GetBooking(ctx, b.ID, strangerID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := f.svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: clientID, RequesterID: clientID})
	require.NoError(t, err)
	assert.Len(t, list.Bookings, 1)

	calendar, err := f.svc.GetProviderCalendar(ctx, &models.GetProviderCalendarRequest{
		ProviderID: providerID, UserID: providerID, StartDate: at(2, 0), EndDate: at(6, 0),
	})
	require.NoError(t, err)
	assert.Len(t, calendar.Bookings, 1)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	internal := errors.New("db down")
	assert.Equal(t, internal, classify(internal))

	already := classify(create_booking.ErrSlotNotAvailable)
	assert.Equal(t, already, classify(already))
	assert.ErrorIs(t, already, domain.ErrConflict)
	assert.ErrorIs(t, already, create_booking.ErrSlotNotAvailable)
}
