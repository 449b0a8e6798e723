package get_provider_bookings

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(providerID, userID int64, startDateStr, endDateStr string, loc *time.Location) (*models.GetProviderCalendarRequest, error) {
	startDate, err := handlers.ParseDate(startDateStr, loc)
	if err != nil {
		return nil, err
	}

	// Без endDate берется один день
	endDate := startDate
	if endDateStr != "" {
		endDate, err = handlers.ParseDate(endDateStr, loc)
		if err != nil {
			return nil, err
		}
	}

	return &models.GetProviderCalendarRequest{
		ProviderID: providerID,
		UserID:     userID,
		StartDate:  startDate,
		EndDate:    endDate,
	}, nil
}
