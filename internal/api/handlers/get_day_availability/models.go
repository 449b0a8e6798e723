package get_day_availability

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// SlotResponse слот дня
type SlotResponse struct {
	StartAt   time.Time `json:"startAt"`
	EndAt     time.Time `json:"endAt"`
	Label     string    `json:"label"` // "HH:MM–HH:MM"
	Available bool      `json:"available"`
}

// DayAvailabilityResponse слоты услуги на дату
type DayAvailabilityResponse struct {
	ServiceID      int64          `json:"serviceId"`
	Date           string         `json:"date"` // YYYY-MM-DD
	AvailableCount int            `json:"availableCount"`
	Slots          []SlotResponse `json:"slots"`
}

// FromDomain конвертирует доступность дня в HTTP ответ
func FromDomain(serviceID int64, day *domain.DayAvailability) *DayAvailabilityResponse {
	resp := &DayAvailabilityResponse{
		ServiceID:      serviceID,
		Date:           day.Date.Format(domain.DateFormat),
		AvailableCount: day.AvailableCount(),
		Slots:          make([]SlotResponse, 0, len(day.Slots)),
	}
	for _, s := range day.Slots {
		resp.Slots = append(resp.Slots, SlotResponse{
			StartAt:   s.Start,
			EndAt:     s.End,
			Label:     s.Label,
			Available: s.Available,
		})
	}
	return resp
}
