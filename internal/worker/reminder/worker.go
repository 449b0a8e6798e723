package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ErrSchedule возвращается при некорректном cron выражении
var ErrSchedule = errors.New("reminder: invalid schedule")

// Значения по умолчанию
const (
	DefaultSchedule   = "@every 2h"
	DefaultStaleAfter = 2 * time.Hour
	DefaultBatchSize  = 500
)

// Config параметры воркера
type Config struct {
	Schedule   string        // cron выражение
	StaleAfter time.Duration // бронирование без ответа исполнителя дольше этого срока считается зависшим
	BatchSize  uint64
	Location   *time.Location
}

// Worker напоминает исполнителям о бронированиях, ожидающих подтверждения
type Worker struct {
	cfg          Config
	bookingRepo  BookingRepository
	notifier     Notifier
	timeProvider TimeProvider
	logger       Logger
	cron         *cron.Cron
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time {
	return time.Now()
}

// NewWorker создает воркер
func NewWorker(cfg Config, bookingRepo BookingRepository, notifier Notifier, logger Logger) *Worker {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Worker{
		cfg:          cfg,
		bookingRepo:  bookingRepo,
		notifier:     notifier,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (w *Worker) WithTimeProvider(tp TimeProvider) *Worker {
	w.timeProvider = tp
	return w
}

// Start запускает выполнение по расписанию. Остановка - через Stop или отмену ctx.
func (w *Worker) Start(ctx context.Context) error {
	w.cron = cron.New(cron.WithLocation(w.cfg.Location))

	_, err := w.cron.AddFunc(w.cfg.Schedule, func() {
		if _, err := w.RunOnce(ctx); err != nil {
			w.logger.Error("ReminderWorker: run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrSchedule, w.cfg.Schedule, err)
	}

	w.cron.Start()
	w.logger.Info("ReminderWorker: started with schedule %q, stale after %s", w.cfg.Schedule, w.cfg.StaleAfter)

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}

// Stop останавливает планировщик и ждет завершения текущего запуска
func (w *Worker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}

// RunOnce отправляет напоминания по всем зависшим бронированиям и возвращает их количество.
// Ошибка отправки одного события не прерывает обработку остальных.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	now := w.timeProvider.Now()

	bookings, err := w.bookingRepo.ListStalePending(ctx, domain.StalePendingFilter{
		StartsAfter:   now,
		UpdatedBefore: now.Add(-w.cfg.StaleAfter),
		Limit:         w.cfg.BatchSize,
	})
	if err != nil {
		return 0, fmt.Errorf("list stale pending bookings: %w", err)
	}

	sent := 0
	for _, b := range bookings {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		event := domain.NewBookingEvent(uuid.NewString(), domain.EventBookingConfirmationReminder, b, now)
		if err := w.notifier.Emit(ctx, event); err != nil {
			w.logger.Error("ReminderWorker: failed to emit reminder for booking id=%d: %v", b.ID, err)
			continue
		}
		sent++
	}

	if len(bookings) > 0 {
		w.logger.Info("ReminderWorker: sent %d/%d confirmation reminders", sent, len(bookings))
	}
	return sent, nil
}
