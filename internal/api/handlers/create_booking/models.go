package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/service/scheduling"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ServiceID int64   `json:"serviceId"`
	StartAt   string  `json:"startAt"` // RFC 3339, "2026-03-02T13:00:00-03:00"
	EndAt     string  `json:"endAt"`
	Note      *string `json:"note,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateBookingRequest) ToServiceRequest(clientID int64) (scheduling.CreateBookingRequest, error) {
	startAt, err := time.Parse(time.RFC3339, r.StartAt)
	if err != nil {
		return scheduling.CreateBookingRequest{}, err
	}

	endAt, err := time.Parse(time.RFC3339, r.EndAt)
	if err != nil {
		return scheduling.CreateBookingRequest{}, err
	}

	return scheduling.CreateBookingRequest{
		ClientID:  clientID,
		ServiceID: r.ServiceID,
		StartAt:   startAt,
		EndAt:     endAt,
		Note:      r.Note,
	}, nil
}
