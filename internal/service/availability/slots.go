package availability

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/overlap"
)

// CandidateWindows генерирует непересекающиеся окна длиной durationHours внутри рабочего дня.
// Шаг равен длительности; окно, выходящее за время закрытия, отбрасывается.
//
// Пример для 09:00-18:00 и 2 часов: 09-11, 11-13, 13-15, 15-17 (17-19 не помещается).
func CandidateWindows(date time.Time, hours domain.BusinessHours, durationHours int) []domain.Interval {
	durationHours = domain.NormalizeDuration(durationHours)

	windows := make([]domain.Interval, 0, hours.SlotsPerDay(durationHours))
	for h := hours.OpenHour; h+durationHours <= hours.CloseHour; h += durationHours {
		windows = append(windows, domain.Interval{
			Start: hours.At(date, h),
			End:   hours.At(date, h+durationHours),
		})
	}
	return windows
}

// BuildSlots размечает окна дня доступностью.
//
// Слот недоступен, если пересекается с блокирующим бронированием из busy
// (полуоткрытые интервалы, касание концами не конфликт). Для сегодняшнего дня
// слот доступен, только если начинается строго позже now.
// Для выходных и прошедших дат возвращается пустой список.
func BuildSlots(date time.Time, hours domain.BusinessHours, durationHours int, busy []*domain.Booking, now time.Time) []domain.Slot {
	if !IsBookableDay(date, hours, now) {
		return []domain.Slot{}
	}

	today := isToday(date, hours, now)
	windows := CandidateWindows(date, hours, durationHours)

	slots := make([]domain.Slot, 0, len(windows))
	for _, w := range windows {
		slots = append(slots, domain.Slot{
			Start:     w.Start,
			End:       w.End,
			Label:     domain.SlotLabel(w.Start, w.End),
			Available: isFree(w, busy, today, now),
		})
	}
	return slots
}

// HasAvailableSlot проверяет, есть ли в дне хотя бы один свободный слот.
// Останавливается на первом найденном.
func HasAvailableSlot(date time.Time, hours domain.BusinessHours, durationHours int, busy []*domain.Booking, now time.Time) bool {
	if !IsBookableDay(date, hours, now) {
		return false
	}

	today := isToday(date, hours, now)
	for _, w := range CandidateWindows(date, hours, durationHours) {
		if isFree(w, busy, today, now) {
			return true
		}
	}
	return false
}

// FullyBooked возвращает рабочие дни периода [start, end], в которых не осталось свободных слотов.
// Выходные и прошедшие дни пропускаются.
func FullyBooked(start, end time.Time, hours domain.BusinessHours, durationHours int, busy []*domain.Booking, now time.Time) []time.Time {
	result := make([]time.Time, 0)

	last := hours.Day(end)
	for day := hours.Day(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		if !IsBookableDay(day, hours, now) {
			continue
		}
		if !HasAvailableSlot(day, hours, durationHours, busy, now) {
			result = append(result, day)
		}
	}
	return result
}

// IsBookableDay день не выходной и не раньше сегодняшнего
func IsBookableDay(date time.Time, hours domain.BusinessHours, now time.Time) bool {
	if hours.IsWeekend(date) {
		return false
	}
	return !hours.Day(date).Before(hours.Day(now))
}

func isFree(window domain.Interval, busy []*domain.Booking, today bool, now time.Time) bool {
	if today && !window.Start.After(now) {
		return false
	}
	return overlap.FindConflict(busy, window, nil) == nil
}

func isToday(date time.Time, hours domain.BusinessHours, now time.Time) bool {
	return hours.Day(date).Equal(hours.Day(now))
}
