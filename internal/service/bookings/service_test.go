package bookings

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/overlap"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const (
	clientID   int64 = 10
	providerID int64 = 20
)

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *bookingRepo.MemoryRepository) {
	t.Helper()

	repo := bookingRepo.NewMemoryRepository(overlap.IsBlocking)
	return NewService(repo, domain.DefaultBusinessHours(), 31, logger.NewNop()), repo
}

func seed(t *testing.T, repo *bookingRepo.MemoryRepository, day, from, to int, state domain.State) *domain.Booking {
	t.Helper()

	b := &domain.Booking{ClientID: clientID, ProviderID: providerID, ServiceID: 1, StartAt: at(day, from), EndAt: at(day, to)}
	b.SetState(state)
	created, err := repo.Create(context.Background(), b)
	require.NoError(t, err)
	return created
}

func TestService_GetByID(t *testing.T) {
	svc, repo := newTestService(t)
	b := seed(t, repo, 2, 10, 12, domain.Canceled(domain.PartyClient))
	ctx := context.Background()

	got, err := svc.GetByID(ctx, b.ID, clientID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "canceled", got.Status)
	require.NotNil(t, got.CanceledBy)
	assert.Equal(t, "client", *got.CanceledBy)

	_, err = svc.GetByID(ctx, b.ID, providerID)
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, b.ID, 999)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.GetByID(ctx, b.ID+1, clientID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_GetUserBookings(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	older := seed(t, repo, 2, 10, 11, domain.Completed())
	newer := seed(t, repo, 3, 10, 11, domain.Pending())

	t.Run("ClientHistoryNewestFirst", func(t *testing.T) {
		got, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: clientID, RequesterID: clientID})
		require.NoError(t, err)
		require.Len(t, got.Bookings, 2)
		assert.Equal(t, newer.ID, got.Bookings[0].ID)
		assert.Equal(t, older.ID, got.Bookings[1].ID)
	})

	t.Run("ProviderRoleWithStatus", func(t *testing.T) {
		got, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{
			UserID:      providerID,
			RequesterID: providerID,
			Role:        "provider",
			Status:      ptr.Ptr("completed"),
		})
		require.NoError(t, err)
		require.Len(t, got.Bookings, 1)
		assert.Equal(t, older.ID, got.Bookings[0].ID)
	})

	t.Run("ProviderHasNoClientHistory", func(t *testing.T) {
		got, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: providerID, RequesterID: providerID})
		require.NoError(t, err)
		assert.Empty(t, got.Bookings)
	})

	t.Run("ForeignHistory", func(t *testing.T) {
		_, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: clientID, RequesterID: providerID})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		_, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: clientID, RequesterID: clientID, Status: ptr.Ptr("archived")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("InvalidRole", func(t *testing.T) {
		_, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: clientID, RequesterID: clientID, Role: "admin"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestService_GetProviderCalendar(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	inRange := seed(t, repo, 2, 10, 11, domain.Confirmed())
	lastDay := seed(t, repo, 6, 17, 18, domain.Canceled(domain.PartyClient))
	seed(t, repo, 9, 10, 11, domain.Pending())

	got, err := svc.GetProviderCalendar(ctx, &models.GetProviderCalendarRequest{
		ProviderID: providerID,
		UserID:     providerID,
		StartDate:  at(2, 0),
		EndDate:    at(6, 0),
	})
	require.NoError(t, err)
	require.Len(t, got.Bookings, 2)
	assert.Equal(t, inRange.ID, got.Bookings[0].ID)
	assert.Equal(t, lastDay.ID, got.Bookings[1].ID)

	_, err = svc.GetProviderCalendar(ctx, &models.GetProviderCalendarRequest{
		ProviderID: providerID, UserID: clientID, StartDate: at(2, 0), EndDate: at(6, 0),
	})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.GetProviderCalendar(ctx, &models.GetProviderCalendarRequest{
		ProviderID: providerID, UserID: providerID, StartDate: at(6, 0), EndDate: at(2, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = svc.GetProviderCalendar(ctx, &models.GetProviderCalendarRequest{
		ProviderID: providerID, UserID: providerID, StartDate: at(1, 0), EndDate: at(1, 0).AddDate(0, 2, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestModels_FromDomainBookingList(t *testing.T) {
	assert.NotNil(t, models.FromDomainBookingList(nil).Bookings)
	assert.Empty(t, models.FromDomainBookingList(nil).Bookings)
}

// Период через перевод часов считается в календарных днях
func TestService_GetProviderCalendarLimitAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	repo := bookingRepo.NewMemoryRepository(overlap.IsBlocking)
	hours := domain.BusinessHours{OpenHour: 9, CloseHour: 18, Location: loc}
	svc := NewService(repo, hours, 31, logger.NewNop())
	ctx := context.Background()

	_, err = svc.GetProviderCalendar(ctx, &models.GetProviderCalendarRequest{
		ProviderID: providerID, UserID: providerID,
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, loc),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, loc),
	})
	assert.NoError(t, err)

	_, err = svc.GetProviderCalendar(ctx, &models.GetProviderCalendarRequest{
		ProviderID: providerID, UserID: providerID,
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, loc),
		EndDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, loc),
	})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}
