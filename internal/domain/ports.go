package domain

import (
	"context"
	"time"
)

// Read ports. Implementations return ErrNotFound when the row is absent;
// any other error means the store could not answer.

type EnrollmentRepository interface {
	FindEnrollmentByUserID(ctx context.Context, userID int64) (Enrollment, error)
}

type TicketRepository interface {
	// FindTicketByEnrollmentID returns the enrollment's first ticket with its TicketType embedded.
	FindTicketByEnrollmentID(ctx context.Context, enrollmentID int64) (Ticket, error)
}

type HotelRepository interface {
	ListHotels(ctx context.Context) ([]Hotel, error)
	GetHotel(ctx context.Context, id int64) (HotelWithRooms, error)
}

type SessionRepository interface {
	FindSessionByToken(ctx context.Context, token string) (Session, error)
}

// Store bundles every read port; both SQL backends satisfy it.
type Store interface {
	EnrollmentRepository
	TicketRepository
	HotelRepository
	SessionRepository
	Ping(ctx context.Context) error
	Close() error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
