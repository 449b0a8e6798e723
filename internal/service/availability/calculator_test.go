package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/overlap"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) ListByProvider(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]*domain.Booking); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCalculator_DaySlotsSingleQuery(t *testing.T) {
	repo := new(mockBookingRepo)
	hours := domain.DefaultBusinessHours()
	calc := NewCalculator(repo, hours, 0)
	ctx := context.Background()

	repo.On("ListByProvider", ctx, overlap.BlockingFilter(1, hours.Window(monday), nil)).
		Return([]*domain.Booking{busy(monday, 10, 12, domain.Pending())}, nil).Once()

	day, err := calc.DaySlots(ctx, 1, 2, on(monday, 15), sundayNoon)

	require.NoError(t, err)
	assert.Equal(t, monday, day.Date)
	assert.Equal(t, 2, day.AvailableCount())
	repo.AssertExpectations(t)
}

func TestCalculator_DaySlotsWeekendSkipsStorage(t *testing.T) {
	repo := new(mockBookingRepo)
	calc := NewCalculator(repo, domain.DefaultBusinessHours(), 0)

	day, err := calc.DaySlots(context.Background(), 1, 1, saturday, sundayNoon)

	require.NoError(t, err)
	assert.Empty(t, day.Slots)
	repo.AssertNotCalled(t, "ListByProvider", mock.Anything, mock.Anything)
}

func TestCalculator_DaySlotsValidation(t *testing.T) {
	calc := NewCalculator(new(mockBookingRepo), domain.DefaultBusinessHours(), 0)

	_, err := calc.DaySlots(context.Background(), 0, 1, monday, sundayNoon)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = calc.DaySlots(context.Background(), 1, 1, time.Time{}, sundayNoon)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculator_DaySlotsRepositoryError(t *testing.T) {
	repo := new(mockBookingRepo)
	calc := NewCalculator(repo, domain.DefaultBusinessHours(), 0)
	repo.On("ListByProvider", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := calc.DaySlots(context.Background(), 1, 1, monday, sundayNoon)

	assert.ErrorIs(t, err, ErrInternal)
}

func TestCalculator_FullyBookedDatesSingleQuery(t *testing.T) {
	repo := new(mockBookingRepo)
	hours := domain.DefaultBusinessHours()
	calc := NewCalculator(repo, hours, 0)
	ctx := context.Background()
	end := monday.AddDate(0, 0, 13)

	expectedRange := domain.Interval{Start: monday, End: end.AddDate(0, 0, 1)}
	repo.On("ListByProvider", ctx, overlap.BlockingFilter(1, expectedRange, nil)).
		Return([]*domain.Booking{
			busy(monday.AddDate(0, 0, 2), 9, 18, domain.Confirmed()),
			busy(monday.AddDate(0, 0, 8), 9, 18, domain.Canceled(domain.PartyProfessional)),
		}, nil).Once()

	dates, err := calc.FullyBookedDates(ctx, 1, 1, monday, end, sundayNoon)

	require.NoError(t, err)
	assert.Equal(t, []time.Time{monday.AddDate(0, 0, 2), monday.AddDate(0, 0, 8)}, dates)
	repo.AssertExpectations(t)
}

func TestCalculator_FullyBookedDatesRangeErrors(t *testing.T) {
	calc := NewCalculator(new(mockBookingRepo), domain.DefaultBusinessHours(), 31)

	_, err := calc.FullyBookedDates(context.Background(), 1, 1, monday, monday.AddDate(0, 0, -1), sundayNoon)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = calc.FullyBookedDates(context.Background(), 1, 1, monday, monday.AddDate(0, 0, 31), sundayNoon)
	assert.ErrorIs(t, err, ErrRangeTooLong)

	_, err = calc.FullyBookedDates(context.Background(), 1, 1, time.Time{}, monday, sundayNoon)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
