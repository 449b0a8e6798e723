package domain

import "time"

// EventType names a booking event published to the notifier
type EventType string

const (
	EventBookingCreated              EventType = "booking.created"
	EventBookingAccepted             EventType = "booking.accepted"
	EventBookingRejected             EventType = "booking.rejected"
	EventBookingCanceled             EventType = "booking.canceled"
	EventBookingCompleted            EventType = "booking.completed"
	EventBookingNoShow               EventType = "booking.no_show"
	EventBookingConfirmationReminder EventType = "booking.confirmation_reminder"
)

// BookingEvent is emitted after a booking changed; delivery is fire-and-forget
type BookingEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	BookingID  int64     `json:"bookingId"`
	ClientID   int64     `json:"clientId"`
	ProviderID int64     `json:"providerId"`
	ServiceID  int64     `json:"serviceId"`
	ActorID    int64     `json:"actorId,omitempty"`
	Transition string    `json:"transition,omitempty"`
	Status     string    `json:"status"`
	CanceledBy string    `json:"canceledBy,omitempty"`
	Note       *string   `json:"note,omitempty"`
	StartAt    time.Time `json:"startAt"`
	EndAt      time.Time `json:"endAt"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewBookingEvent fills the booking fields of an event
func NewBookingEvent(id string, eventType EventType, b *Booking, occurredAt time.Time) BookingEvent {
	return BookingEvent{
		ID:         id,
		Type:       eventType,
		BookingID:  b.ID,
		ClientID:   b.ClientID,
		ProviderID: b.ProviderID,
		ServiceID:  b.ServiceID,
		Status:     string(b.Status),
		CanceledBy: string(b.State().CanceledByParty()),
		Note:       b.Note,
		StartAt:    b.StartAt,
		EndAt:      b.EndAt,
		OccurredAt: occurredAt,
	}
}
