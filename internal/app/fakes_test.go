package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"drivent/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	mu          sync.Mutex
	enrollments map[int64]domain.Enrollment // by user id
	tickets     map[int64]domain.Ticket     // by enrollment id
	hotels      []domain.Hotel
	rooms       map[int64][]domain.Room

	enrollErr error
	ticketErr error
	hotelErr  error

	// listStarted is signalled when ListHotels begins; with listRelease set the
	// call then blocks until release or until its ctx is done.
	listStarted chan struct{}
	listRelease chan struct{}

	enrollCalls, ticketCalls, listCalls, getCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		enrollments: map[int64]domain.Enrollment{},
		tickets:     map[int64]domain.Ticket{},
		rooms:       map[int64][]domain.Room{},
	}
}

func (f *fakeStore) FindEnrollmentByUserID(ctx context.Context, userID int64) (domain.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollCalls++
	if f.enrollErr != nil {
		return domain.Enrollment{}, f.enrollErr
	}
	e, ok := f.enrollments[userID]
	if !ok {
		return domain.Enrollment{}, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) FindTicketByEnrollmentID(ctx context.Context, enrollmentID int64) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticketCalls++
	if f.ticketErr != nil {
		return domain.Ticket{}, f.ticketErr
	}
	t, ok := f.tickets[enrollmentID]
	if !ok {
		return domain.Ticket{}, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	if f.listStarted != nil {
		select {
		case f.listStarted <- struct{}{}:
		default:
		}
	}
	if f.listRelease != nil {
		select {
		case <-f.listRelease:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.hotelErr != nil {
		return nil, f.hotelErr
	}
	out := make([]domain.Hotel, len(f.hotels))
	copy(out, f.hotels)
	return out, nil
}

func (f *fakeStore) GetHotel(ctx context.Context, id int64) (domain.HotelWithRooms, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.hotelErr != nil {
		return domain.HotelWithRooms{}, f.hotelErr
	}
	for _, h := range f.hotels {
		if h.ID == id {
			rooms := append([]domain.Room{}, f.rooms[id]...)
			return domain.HotelWithRooms{Hotel: h, Rooms: rooms}, nil
		}
	}
	return domain.HotelWithRooms{}, domain.ErrNotFound
}

// seed gives userID an enrollment and, when status is non-empty, a ticket.
func (f *fakeStore) seed(userID int64, status domain.TicketStatus, remote, hotel bool) {
	enrID := userID * 10
	f.enrollments[userID] = domain.Enrollment{ID: enrID, UserID: userID, Name: "attendee"}
	if status == "" {
		return
	}
	f.tickets[enrID] = domain.Ticket{
		ID:           enrID + 1,
		EnrollmentID: enrID,
		TicketTypeID: 7,
		Status:       status,
		TicketType:   domain.TicketType{ID: 7, IsRemote: remote, IncludesHotel: hotel},
	}
}

// corruptEntry stands in for a cached value that fails to decode.
type corruptEntry struct{}

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
	sets  int
	dels  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if _, bad := v.(corruptEntry); bad {
		return false, fmt.Errorf("decode cached %s: %w", key, domain.ErrCacheCorrupt)
	}
	switch d := dst.(type) {
	case *[]domain.Hotel:
		*d = v.([]domain.Hotel)
	case *domain.HotelWithRooms:
		*d = v.(domain.HotelWithRooms)
	default:
		return false, errors.New("unexpected cache type")
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	c.sets++
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels++
	delete(c.store, key)
	return nil
}

var ts = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
