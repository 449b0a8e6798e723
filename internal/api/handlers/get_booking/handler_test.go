package get_booking

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeService struct {
	err error
}

func (f fakeService) GetBooking(_ context.Context, bookingID, userID int64) (*models.BookingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingResponse{ID: bookingID, ClientID: userID, Status: "pending"}, nil
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{name: "ok", path: "/bookings/4", want: http.StatusOK},
		{name: "bad id", path: "/bookings/zero", want: http.StatusBadRequest},
		{name: "not found", path: "/bookings/4", err: fmt.Errorf("%w: x", domain.ErrNotFound), want: http.StatusNotFound},
		{name: "forbidden", path: "/bookings/4", err: fmt.Errorf("%w: x", domain.ErrForbidden), want: http.StatusForbidden},
		{name: "internal", path: "/bookings/4", err: fmt.Errorf("x"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mux.NewRouter()
			r.Use(middleware.Auth)
			r.HandleFunc("/bookings/{bookingId}", NewHandler(fakeService{err: tt.err}, logger.NewNop()).Handle)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(middleware.HeaderUserID, "8")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
