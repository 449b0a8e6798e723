package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidRole возвращается при некорректной роли
	ErrInvalidRole = errors.New("invalid participant role")
)

// Request модели

// GetUserBookingsRequest запрос истории бронирований пользователя
type GetUserBookingsRequest struct {
	UserID      int64   `json:"userId"`           // Чья история
	RequesterID int64   `json:"-"`                // Кто запрашивает (из X-User-ID)
	Role        string  `json:"role"`             // client или provider; по умолчанию client
	Status      *string `json:"status,omitempty"` // Фильтр по статусу (опционально)
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetUserBookingsRequest) ToDomainFilter() (domain.UserBookingsFilter, error) {
	filter := domain.UserBookingsFilter{
		UserID: r.UserID,
		Role:   domain.RoleClient,
	}

	if r.Role != "" {
		role, err := ToDomainRole(r.Role)
		if err != nil {
			return filter, err
		}
		filter.Role = role
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// GetProviderCalendarRequest запрос бронирований исполнителя за период (неделя/месяц в кабинете)
type GetProviderCalendarRequest struct {
	ProviderID int64     `json:"providerId"`
	UserID     int64     `json:"-"` // Кто запрашивает (из X-User-ID)
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"` // Включительно
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"clientId"`
	ProviderID int64     `json:"providerId"`
	ServiceID  int64     `json:"serviceId"`
	StartAt    time.Time `json:"startAt"` // RFC 3339 со смещением
	EndAt      time.Time `json:"endAt"`
	Status     string    `json:"status"`
	CanceledBy *string   `json:"canceledBy,omitempty"` // client или professional
	Note       *string   `json:"note,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:         b.ID,
		ClientID:   b.ClientID,
		ProviderID: b.ProviderID,
		ServiceID:  b.ServiceID,
		StartAt:    b.StartAt,
		EndAt:      b.EndAt,
		Status:     string(b.Status),
		Note:       b.Note,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}

	if b.CanceledBy != nil {
		by := string(*b.CanceledBy)
		resp.CanceledBy = &by
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// ToDomainRole конвертирует строку в domain.ParticipantRole с валидацией
func ToDomainRole(role string) (domain.ParticipantRole, error) {
	switch r := domain.ParticipantRole(role); r {
	case domain.RoleClient, domain.RoleProvider:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}
