package transition_booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/service/lifecycle"
	"github.com/m04kA/SMC-SchedulingService/internal/service/overlap"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/pgerrors"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const (
	clientID   int64 = 10
	providerID int64 = 20
	otherProID int64 = 30
)

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) IsProvider(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdentity) ResolveParticipants(ctx context.Context, booking *domain.Booking) (domain.Participants, error) {
	args := m.Called(ctx, booking)
	if p, ok := args.Get(0).(domain.Participants); ok {
		return p, args.Error(1)
	}
	return domain.Participants{}, args.Error(1)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.BookingEvent
	err    error
}

func (n *recordingNotifier) Emit(_ context.Context, event domain.BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

type fixedTime struct {
	now time.Time
}

func (f fixedTime) Now() time.Time {
	return f.now
}

type fixture struct {
	uc       *UseCase
	repo     *bookingRepo.MemoryRepository
	identity *mockIdentity
	notifier *recordingNotifier
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := bookingRepo.NewMemoryRepository(overlap.IsBlocking)
	identity := &mockIdentity{}
	identity.On("ResolveParticipants", mock.Anything, mock.Anything).
		Return(domain.Participants{ClientID: clientID, ProviderID: providerID}, nil).Maybe()
	identity.On("IsProvider", mock.Anything, providerID).Return(true, nil).Maybe()
	identity.On("IsProvider", mock.Anything, otherProID).Return(true, nil).Maybe()
	identity.On("IsProvider", mock.Anything, clientID).Return(false, nil).Maybe()

	notifier := &recordingNotifier{}
	m := metrics.NewWithRegisterer("scheduling", prometheus.NewRegistry())

	uc := NewUseCase(repo, identity, notifier, m, bookingRepo.NewMemoryTxManager(repo), logger.NewNop()).
		WithTimeProvider(fixedTime{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)})

	return &fixture{uc: uc, repo: repo, identity: identity, notifier: notifier, metrics: m}
}

func (f *fixture) seed(t *testing.T, state domain.State) *domain.Booking {
	t.Helper()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	b := &domain.Booking{
		ClientID:   clientID,
		ProviderID: providerID,
		ServiceID:  5,
		StartAt:    start,
		EndAt:      start.Add(2 * time.Hour),
	}
	b.SetState(state)

	created, err := f.repo.Create(context.Background(), b)
	require.NoError(t, err)
	return created
}

func (f *fixture) reload(t *testing.T, id int64) *domain.Booking {
	t.Helper()

	b, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func TestExecute_Accept(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, domain.Pending())

	got, err := f.uc.Execute(context.Background(), &Request{
		BookingID: b.ID,
		Action:    lifecycle.ActionAccept,
		Actor:     lifecycle.Actor{UserID: providerID},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, domain.StatusConfirmed, f.reload(t, b.ID).Status)

	require.Len(t, f.notifier.events, 1)
	event := f.notifier.events[0]
	assert.Equal(t, domain.EventBookingAccepted, event.Type)
	assert.Equal(t, "accept", event.Transition)
	assert.Equal(t, providerID, event.ActorID)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingTransitions.WithLabelValues("scheduling", "accept")))
}

func TestExecute_RejectWithNote(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, domain.Pending())

	got, err := f.uc.Execute(context.Background(), &Request{
		BookingID: b.ID,
		Action:    lifecycle.ActionReject,
		Actor:     lifecycle.Actor{UserID: providerID},
		Note:      ptr.Ptr("agenda cheia"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Equal(t, domain.PartyProfessional, got.State().CanceledByParty())
	require.NotNil(t, got.Note)
	assert.Equal(t, "agenda cheia", *got.Note)
	assert.Equal(t, "agenda cheia", *f.notifier.events[0].Note)
}

func TestExecute_CancelAttribution(t *testing.T) {
	tests := []struct {
		name  string
		from  domain.State
		actor int64
		want  domain.Party
	}{
		{name: "client cancels pending", from: domain.Pending(), actor: clientID, want: domain.PartyClient},
		{name: "provider cancels pending", from: domain.Pending(), actor: providerID, want: domain.PartyProfessional},
		{name: "client cancels confirmed", from: domain.Confirmed(), actor: clientID, want: domain.PartyClient},
		{name: "provider cancels confirmed", from: domain.Confirmed(), actor: providerID, want: domain.PartyProfessional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.seed(t, tt.from)

			got, err := f.uc.Execute(context.Background(), &Request{
				BookingID: b.ID,
				Action:    lifecycle.ActionCancel,
				Actor:     lifecycle.Actor{UserID: tt.actor},
			})
			require.NoError(t, err)
			assert.Equal(t, domain.StatusCanceled, got.Status)
			assert.Equal(t, tt.want, got.State().CanceledByParty())
		})
	}
}

func TestExecute_SystemCompletes(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, domain.Confirmed())

	got, err := f.uc.Execute(context.Background(), &Request{
		BookingID: b.ID,
		Action:    lifecycle.ActionComplete,
		Actor:     lifecycle.SystemActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	f.identity.AssertNotCalled(t, "IsProvider", mock.Anything, mock.Anything)
}

// Повторная отмена не меняет атрибуцию и не публикует второе событие
func TestExecute_IdempotentCancel(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, domain.Confirmed())
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, &Request{BookingID: b.ID, Action: lifecycle.ActionCancel, Actor: lifecycle.Actor{UserID: clientID}})
	require.NoError(t, err)
	after := f.reload(t, b.ID)

	for _, actor := range []int64{clientID, providerID} {
		_, err = f.uc.Execute(ctx, &Request{BookingID: b.ID, Action: lifecycle.ActionCancel, Actor: lifecycle.Actor{UserID: actor}})
		assert.ErrorIs(t, err, lifecycle.ErrTerminalState)
	}

	assert.Equal(t, after, f.reload(t, b.ID))
	assert.Equal(t, domain.PartyClient, f.reload(t, b.ID).State().CanceledByParty())
	assert.Len(t, f.notifier.events, 1)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.State
		req     func(id int64) *Request
		wantErr error
	}{
		{
			name:    "client accepts",
			from:    domain.Pending(),
			req:     func(id int64) *Request { return &Request{BookingID: id, Action: lifecycle.ActionAccept, Actor: lifecycle.Actor{UserID: clientID}} },
			wantErr: ErrNotProvider,
		},
		{
			name:    "another provider accepts",
			from:    domain.Pending(),
			req:     func(id int64) *Request { return &Request{BookingID: id, Action: lifecycle.ActionAccept, Actor: lifecycle.Actor{UserID: otherProID}} },
			wantErr: lifecycle.ErrNotParticipant,
		},
		{
			name:    "accept confirmed",
			from:    domain.Confirmed(),
			req:     func(id int64) *Request { return &Request{BookingID: id, Action: lifecycle.ActionAccept, Actor: lifecycle.Actor{UserID: providerID}} },
			wantErr: lifecycle.ErrUndefinedTransition,
		},
		{
			name:    "client completes",
			from:    domain.Confirmed(),
			req:     func(id int64) *Request { return &Request{BookingID: id, Action: lifecycle.ActionComplete, Actor: lifecycle.Actor{UserID: clientID}} },
			wantErr: lifecycle.ErrProviderOnly,
		},
		{
			name:    "no-show from terminal",
			from:    domain.Completed(),
			req:     func(id int64) *Request { return &Request{BookingID: id, Action: lifecycle.ActionNoShow, Actor: lifecycle.SystemActor()} },
			wantErr: lifecycle.ErrTerminalState,
		},
		{
			name:    "unknown booking",
			from:    domain.Pending(),
			req:     func(id int64) *Request { return &Request{BookingID: id + 100, Action: lifecycle.ActionCancel, Actor: lifecycle.Actor{UserID: clientID}} },
			wantErr: ErrBookingNotFound,
		},
		{
			name:    "unknown action",
			from:    domain.Pending(),
			req:     func(id int64) *Request { return &Request{BookingID: id, Action: "archive", Actor: lifecycle.Actor{UserID: clientID}} },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "anonymous actor",
			from:    domain.Pending(),
			req:     func(id int64) *Request { return &Request{BookingID: id, Action: lifecycle.ActionCancel} },
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.seed(t, tt.from)
			before := f.reload(t, b.ID)

			_, err := f.uc.Execute(context.Background(), tt.req(b.ID))
			assert.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, before, f.reload(t, b.ID))
			assert.Empty(t, f.notifier.events)
		})
	}
}

func TestExecute_IdentityFailureRollsBack(t *testing.T) {
	repo := bookingRepo.NewMemoryRepository(overlap.IsBlocking)
	identity := &mockIdentity{}
	identity.On("ResolveParticipants", mock.Anything, mock.Anything).
		Return(domain.Participants{ClientID: clientID, ProviderID: providerID}, nil)
	identity.On("IsProvider", mock.Anything, providerID).Return(false, errors.New("timeout"))

	f := &fixture{repo: repo}
	b := f.seed(t, domain.Pending())

	uc := NewUseCase(repo, identity, &recordingNotifier{}, (*metrics.Metrics)(nil), bookingRepo.NewMemoryTxManager(repo), logger.NewNop())

	_, err := uc.Execute(context.Background(), &Request{BookingID: b.ID, Action: lifecycle.ActionAccept, Actor: lifecycle.Actor{UserID: providerID}})
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, domain.StatusPending, f.reload(t, b.ID).Status)
}

// lockFailingRepo имитирует SELECT ... FOR UPDATE, проигравший конкурентному переходу под SERIALIZABLE
type lockFailingRepo struct {
	*bookingRepo.MemoryRepository
}

func (r lockFailingRepo) GetByID(_ context.Context, _ int64) (*domain.Booking, error) {
	return nil, fmt.Errorf("%w: GetByID - scan booking: %v", pgerrors.ErrSerializationFailure, errors.New("pq: could not serialize access"))
}

func TestExecute_SerializationFailureIsStateChanged(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, domain.Confirmed())
	uc := NewUseCase(lockFailingRepo{MemoryRepository: f.repo}, f.identity, f.notifier, f.metrics,
		bookingRepo.NewMemoryTxManager(f.repo), logger.NewNop())

	_, err := uc.Execute(context.Background(), &Request{BookingID: b.ID, Action: lifecycle.ActionCancel, Actor: lifecycle.Actor{UserID: clientID}})

	assert.ErrorIs(t, err, ErrStateChanged)
	assert.NotErrorIs(t, err, ErrInternal)
	assert.Equal(t, domain.StatusConfirmed, f.reload(t, b.ID).Status)
	assert.Empty(t, f.notifier.events)
}

func TestExecute_NotifierFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	b := f.seed(t, domain.Pending())

	got, err := f.uc.Execute(context.Background(), &Request{BookingID: b.ID, Action: lifecycle.ActionCancel, Actor: lifecycle.Actor{UserID: clientID}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, got.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotifierFailures.WithLabelValues("scheduling")))
}

// Конкурирующие отмены клиентом и исполнителем: применяется ровно одна
func TestExecute_ConcurrentCancel(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, domain.Confirmed())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		actor := clientID
		if i%2 == 1 {
			actor = providerID
		}
		wg.Add(1)
		go func(actor int64) {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), &Request{BookingID: b.ID, Action: lifecycle.ActionCancel, Actor: lifecycle.Actor{UserID: actor}})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, lifecycle.ErrTerminalState)
		}(actor)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.notifier.events, 1)
}
