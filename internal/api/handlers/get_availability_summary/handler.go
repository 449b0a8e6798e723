package get_availability_summary

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

const (
	msgInvalidServiceID = "некорректный ID услуги"
	msgInvalidPeriod    = "некорректный период, ожидаются startDate и endDate в формате YYYY-MM-DD"
	msgServiceNotFound  = "услуга не найдена"
	msgInvalidParams    = "некорректный период запроса"
)

type Handler struct {
	service SchedulingService
	loc     *time.Location
	logger  Logger
}

func NewHandler(service SchedulingService, loc *time.Location, logger Logger) *Handler {
	return &Handler{
		service: service,
		loc:     loc,
		logger:  logger,
	}
}

// Handle GET /api/v1/services/{serviceId}/availability-summary
// Query params: startDate, endDate (required, YYYY-MM-DD, включительно)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID, err := handlers.ParseID(mux.Vars(r)["serviceId"])
	if err != nil {
		h.logger.Warn("GET /services/{id}/availability-summary - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	query := r.URL.Query()
	startDate, errStart := handlers.ParseDate(query.Get("startDate"), h.loc)
	endDate, errEnd := handlers.ParseDate(query.Get("endDate"), h.loc)
	if errStart != nil || errEnd != nil {
		h.logger.Warn("GET /services/{id}/availability-summary - Invalid period: start=%q, end=%q",
			query.Get("startDate"), query.Get("endDate"))
		handlers.RespondBadRequest(w, msgInvalidPeriod)
		return
	}

	summary, err := h.service.GetMonthAvailabilitySummary(r.Context(), serviceID, startDate, endDate)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("GET /services/{id}/availability-summary - Service not found: service_id=%d", serviceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("GET /services/{id}/availability-summary - Invalid parameters: service_id=%d, error=%v",
				serviceID, err)
			handlers.RespondBadRequest(w, msgInvalidParams)

		default:
			h.logger.Error("GET /services/{id}/availability-summary - Failed to build summary: service_id=%d, error=%v",
				serviceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromSummary(summary)

	h.logger.Info("GET /services/{id}/availability-summary - Summary built successfully: service_id=%d, fully_booked=%d",
		serviceID, len(response.FullyBooked))
	handlers.RespondJSON(w, http.StatusOK, response)
}
