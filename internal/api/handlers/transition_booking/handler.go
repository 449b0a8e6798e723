package transition_booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/lifecycle"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "действие недоступно для пользователя"
	msgInvalidState       = "переход недоступен из текущего статуса бронирования"
	msgInvalidParams      = "некорректные параметры запроса"
)

// Handler обрабатывает один переход жизненного цикла: accept, reject, cancel, complete или no_show
type Handler struct {
	service SchedulingService
	action  lifecycle.Action
	logger  Logger
}

func NewHandler(service SchedulingService, action lifecycle.Action, logger Logger) *Handler {
	return &Handler{
		service: service,
		action:  action,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/{accept|reject|cancel|complete|no-show}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	op := fmt.Sprintf("PATCH /bookings/{id}/%s", h.action)

	bookingID, err := handlers.ParseID(mux.Vars(r)["bookingId"])
	if err != nil {
		h.logger.Warn("%s - Invalid booking ID: %v", op, err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing user ID", op)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req TransitionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("%s - Invalid request body: %v", op, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.apply(r.Context(), bookingID, actorID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("%s - Booking not found: booking_id=%d", op, bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrForbidden):
			h.logger.Warn("%s - Forbidden: booking_id=%d, user_id=%d, error=%v", op, bookingID, actorID, err)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, domain.ErrInvalidState):
			h.logger.Warn("%s - Invalid state: booking_id=%d, error=%v", op, bookingID, err)
			handlers.RespondConflict(w, msgInvalidState)

		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("%s - Invalid parameters: booking_id=%d, error=%v", op, bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidParams)

		default:
			h.logger.Error("%s - Failed to apply transition: booking_id=%d, error=%v", op, bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("%s - Booking updated successfully: booking_id=%d, user_id=%d, status=%s",
		op, bookingID, actorID, booking.Status)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBooking(booking))
}

func (h *Handler) apply(ctx context.Context, bookingID, actorID int64, note *string) (*domain.Booking, error) {
	switch h.action {
	case lifecycle.ActionAccept:
		return h.service.AcceptBooking(ctx, bookingID, actorID, note)
	case lifecycle.ActionReject:
		return h.service.RejectBooking(ctx, bookingID, actorID, note)
	case lifecycle.ActionCancel:
		return h.service.CancelBooking(ctx, bookingID, actorID, note)
	case lifecycle.ActionComplete:
		return h.service.CompleteBooking(ctx, bookingID, lifecycle.Actor{UserID: actorID}, note)
	case lifecycle.ActionNoShow:
		return h.service.MarkNoShow(ctx, bookingID, lifecycle.Actor{UserID: actorID}, note)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrValidation, h.action)
	}
}
