package domain

import "time"

// BookingStatus represents the persisted status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCanceled  BookingStatus = "canceled"
	StatusRejected  BookingStatus = "rejected"
	StatusNoShow    BookingStatus = "no_show"
)

// AllStatuses lists every known status
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
	StatusCanceled,
	StatusRejected,
	StatusNoShow,
}

// Valid reports whether s is a known status
func (s BookingStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no lifecycle transition may leave s
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusRejected, StatusNoShow:
		return true
	default:
		return false
	}
}

// Party identifies which side of a booking performed a cancellation
type Party string

const (
	PartyClient       Party = "client"
	PartyProfessional Party = "professional"
)

// Valid reports whether p is a known party
func (p Party) Valid() bool {
	return p == PartyClient || p == PartyProfessional
}

// State is the tagged booking state: a status plus the cancellation
// attribution that is only meaningful for canceled and rejected bookings.
type State struct {
	Status     BookingStatus
	CanceledBy *Party
}

func Pending() State   { return State{Status: StatusPending} }
func Confirmed() State { return State{Status: StatusConfirmed} }
func Completed() State { return State{Status: StatusCompleted} }
func NoShow() State    { return State{Status: StatusNoShow} }

// Canceled returns the canceled state attributed to by
func Canceled(by Party) State {
	return State{Status: StatusCanceled, CanceledBy: &by}
}

// Rejected returns the rejected state; rejection is always done by the professional
func Rejected() State {
	by := PartyProfessional
	return State{Status: StatusRejected, CanceledBy: &by}
}

// CanceledByParty returns the attribution or an empty Party
func (s State) CanceledByParty() Party {
	if s.CanceledBy == nil {
		return ""
	}
	return *s.CanceledBy
}

// Equal compares two states by value
func (s State) Equal(other State) bool {
	return s.Status == other.Status && s.CanceledByParty() == other.CanceledByParty()
}

func (s State) String() string {
	if s.CanceledBy == nil {
		return string(s.Status)
	}
	return string(s.Status) + "(" + string(*s.CanceledBy) + ")"
}

// StateMatch matches persisted states. A nil CanceledBy matches any attribution.
type StateMatch struct {
	Status     BookingStatus
	CanceledBy *Party
}

// Matches reports whether s satisfies the match
func (m StateMatch) Matches(s State) bool {
	if m.Status != s.Status {
		return false
	}
	if m.CanceledBy == nil {
		return true
	}
	return s.CanceledBy != nil && *s.CanceledBy == *m.CanceledBy
}

// Booking represents a client's reservation of a provider's time
type Booking struct {
	ID         int64
	ClientID   int64
	ProviderID int64
	ServiceID  int64
	StartAt    time.Time
	EndAt      time.Time
	Status     BookingStatus
	CanceledBy *Party
	Note       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// State returns the tagged state of the booking
func (b *Booking) State() State {
	return State{Status: b.Status, CanceledBy: b.CanceledBy}
}

// SetState replaces status and attribution
func (b *Booking) SetState(s State) {
	b.Status = s.Status
	b.CanceledBy = s.CanceledBy
}

// Interval returns the half-open interval occupied by the booking
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartAt, End: b.EndAt}
}

// IsParticipant reports whether userID is the client or the provider of the booking
func (b *Booking) IsParticipant(userID int64) bool {
	return b.ClientID == userID || b.ProviderID == userID
}

// Clone returns a deep copy of the booking
func (b *Booking) Clone() *Booking {
	c := *b
	if b.CanceledBy != nil {
		by := *b.CanceledBy
		c.CanceledBy = &by
	}
	if b.Note != nil {
		note := *b.Note
		c.Note = &note
	}
	return &c
}

// Participants are the two sides of a booking
type Participants struct {
	ClientID   int64
	ProviderID int64
}

// ProviderBookingsFilter selects a provider's bookings intersecting a time range
type ProviderBookingsFilter struct {
	ProviderID int64
	Range      Interval     // bookings with StartAt < Range.End AND EndAt > Range.Start
	States     []StateMatch // empty means any state
	ExcludeID  *int64
}

// ParticipantRole selects which side of the booking a history query is about
type ParticipantRole string

const (
	RoleClient   ParticipantRole = "client"
	RoleProvider ParticipantRole = "provider"
)

// UserBookingsFilter selects bookings of a user for the history view
type UserBookingsFilter struct {
	UserID int64
	Role   ParticipantRole
	Status *BookingStatus
}

// StalePendingFilter selects pending bookings that still wait for the provider's answer
type StalePendingFilter struct {
	StartsAfter   time.Time // only bookings that have not started yet
	UpdatedBefore time.Time // untouched since
	Limit         uint64
}
