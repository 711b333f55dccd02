package domain

import "time"

type Enrollment struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TicketStatus string

const (
	TicketReserved TicketStatus = "RESERVED"
	TicketPaid     TicketStatus = "PAID"
)

type TicketType struct {
	ID            int64
	Name          string
	Price         int
	IsRemote      bool
	IncludesHotel bool
}

type Ticket struct {
	ID           int64
	EnrollmentID int64
	TicketTypeID int64
	Status       TicketStatus
	TicketType   TicketType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// hotelDenial returns why the ticket does not grant hotel access, or "" if it does.
// A reserved ticket, a remote ticket type and a type without hotel all deny equally.
func (t Ticket) hotelDenial() string {
	switch {
	case t.Status == TicketReserved:
		return "ticket not paid"
	case t.TicketType.IsRemote:
		return "ticket type is remote"
	case !t.TicketType.IncludesHotel:
		return "ticket type does not include hotel"
	}
	return ""
}

// GrantsHotel reports whether a ticket entitles its holder to hotel listings.
func (t Ticket) GrantsHotel() bool { return t.hotelDenial() == "" }

type Session struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt time.Time
}
