package get_availability_summary

import (
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/scheduling"
)

// SummaryResponse полностью занятые даты за период
type SummaryResponse struct {
	ServiceID     int64    `json:"serviceId"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	DurationHours int      `json:"durationHours"`
	FullyBooked   []string `json:"fullyBooked"` // YYYY-MM-DD по возрастанию
}

// FromSummary конвертирует сводку в HTTP ответ
func FromSummary(s *scheduling.MonthSummary) *SummaryResponse {
	resp := &SummaryResponse{
		ServiceID:     s.ServiceID,
		StartDate:     s.StartDate.Format(domain.DateFormat),
		EndDate:       s.EndDate.Format(domain.DateFormat),
		DurationHours: s.DurationHours,
		FullyBooked:   make([]string, 0, len(s.FullyBooked)),
	}
	for _, d := range s.FullyBooked {
		resp.FullyBooked = append(resp.FullyBooked, d.Format(domain.DateFormat))
	}
	return resp
}
