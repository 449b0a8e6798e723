package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ExclusionPredicate решает, участвует ли бронирование в ограничении на пересечение
type ExclusionPredicate func(state domain.State) bool

// MemoryRepository хранилище бронирований в памяти процесса.
// Используется при database.driver = "memory" и в тестах.
type MemoryRepository struct {
	mu        sync.RWMutex
	bookings  map[int64]*domain.Booking
	nextID    int64
	exclusive ExclusionPredicate
	now       func() time.Time
}

// NewMemoryRepository создает пустое хранилище.
// exclusive повторяет EXCLUDE ограничение PostgreSQL; nil отключает проверку.
func NewMemoryRepository(exclusive ExclusionPredicate) *MemoryRepository {
	return &MemoryRepository{
		bookings:  make(map[int64]*domain.Booking),
		exclusive: exclusive,
		now:       time.Now,
	}
}

// Create сохраняет бронирование и назначает ему ID
func (r *MemoryRepository) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.exclusive != nil && r.exclusive(booking.State()) {
		for _, existing := range r.bookings {
			if existing.ProviderID != booking.ProviderID || !r.exclusive(existing.State()) {
				continue
			}
			if existing.Interval().Overlaps(booking.Interval()) {
				return nil, fmt.Errorf("%w: Create - overlaps booking id=%d", ErrOverlap, existing.ID)
			}
		}
	}

	now := r.now()
	r.nextID++
	booking.ID = r.nextID
	booking.CreatedAt = now
	booking.UpdatedAt = now

	r.bookings[booking.ID] = booking.Clone()
	return booking, nil
}

// GetByID возвращает копию бронирования
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return booking.Clone(), nil
}

// ListByProvider возвращает бронирования исполнителя, пересекающиеся с filter.Range
func (r *MemoryRepository) ListByProvider(_ context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Booking, 0)
	for _, b := range r.bookings {
		if b.ProviderID != filter.ProviderID || !b.Interval().Overlaps(filter.Range) {
			continue
		}
		if filter.ExcludeID != nil && b.ID == *filter.ExcludeID {
			continue
		}
		if len(filter.States) > 0 && !matchesAny(filter.States, b.State()) {
			continue
		}
		result = append(result, b.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartAt.Before(result[j].StartAt)
	})
	return result, nil
}

// ListByUser возвращает историю бронирований пользователя, новые первыми
func (r *MemoryRepository) ListByUser(_ context.Context, filter domain.UserBookingsFilter) ([]*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Booking, 0)
	for _, b := range r.bookings {
		owner := b.ClientID
		if filter.Role == domain.RoleProvider {
			owner = b.ProviderID
		}
		if owner != filter.UserID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		result = append(result, b.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartAt.After(result[j].StartAt)
	})
	return result, nil
}

// ListStalePending возвращает ожидающие подтверждения бронирования, которые давно не обновлялись
func (r *MemoryRepository) ListStalePending(_ context.Context, filter domain.StalePendingFilter) ([]*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Booking, 0)
	for _, b := range r.bookings {
		if b.Status != domain.StatusPending {
			continue
		}
		if !b.StartAt.After(filter.StartsAfter) || b.UpdatedAt.After(filter.UpdatedBefore) {
			continue
		}
		result = append(result, b.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartAt.Before(result[j].StartAt)
	})
	if filter.Limit > 0 && uint64(len(result)) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// UpdateState переводит бронирование в новое состояние, только если текущий статус равен from.
// Переход без заметки сохраняет прежнюю.
func (r *MemoryRepository) UpdateState(_ context.Context, id int64, from domain.BookingStatus, to domain.State, note *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok || booking.Status != from {
		return ErrStateChanged
	}

	updated := booking.Clone()
	updated.SetState(to)
	if note != nil {
		updated.Note = note
	}
	updated.UpdatedAt = r.now()
	r.bookings[id] = updated.Clone()
	return nil
}

// LockProvider ничего не делает: MemoryTxManager уже сериализует транзакции
func (r *MemoryRepository) LockProvider(_ context.Context, _ int64) error {
	return nil
}

// SetClock подменяет источник времени для created_at/updated_at
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryRepository) snapshot() (map[int64]*domain.Booking, int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copied := make(map[int64]*domain.Booking, len(r.bookings))
	for id, b := range r.bookings {
		copied[id] = b.Clone()
	}
	return copied, r.nextID
}

func (r *MemoryRepository) restore(bookings map[int64]*domain.Booking, nextID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = bookings
	r.nextID = nextID
}

func matchesAny(states []domain.StateMatch, s domain.State) bool {
	for _, m := range states {
		if m.Matches(s) {
			return true
		}
	}
	return false
}

type memoryTxKey struct{}

// MemoryTxManager выполняет транзакции над MemoryRepository по одной за раз.
// При ошибке изменения откатываются к снимку, сделанному в начале транзакции.
type MemoryTxManager struct {
	mu   sync.Mutex
	repo *MemoryRepository
}

// NewMemoryTxManager создает менеджер транзакций для хранилища в памяти
func NewMemoryTxManager(repo *MemoryRepository) *MemoryTxManager {
	return &MemoryTxManager{repo: repo}
}

func (m *MemoryTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *MemoryTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *MemoryTxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *MemoryTxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bookings, nextID := m.repo.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.repo.restore(bookings, nextID)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, memoryTxKey{}, true)); err != nil {
		m.repo.restore(bookings, nextID)
		return err
	}
	return nil
}
