package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivent/internal/app"
	"drivent/internal/domain"
)

func newService(f *fakeStore, c domain.Cache) *app.HotelService {
	return app.NewHotelService(app.NewEligibilityResolver(f, f), f, c, 10*time.Minute)
}

func TestFindHotels_Denials(t *testing.T) {
	cases := []struct {
		name string
		seed func(f *fakeStore)
		want error
	}{
		{"no enrollment", func(f *fakeStore) {}, domain.ErrNotFound},
		{"no ticket", func(f *fakeStore) { f.seed(1, "", false, false) }, domain.ErrNotFound},
		{"reserved", func(f *fakeStore) { f.seed(1, domain.TicketReserved, false, true) }, domain.ErrPaymentRequired},
		{"remote", func(f *fakeStore) { f.seed(1, domain.TicketPaid, true, false) }, domain.ErrPaymentRequired},
		{"no hotel", func(f *fakeStore) { f.seed(1, domain.TicketPaid, false, false) }, domain.ErrPaymentRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeStore()
			f.hotels = []domain.Hotel{{ID: 5, Name: "Resort"}}
			tc.seed(f)
			s := newService(f, nil)

			_, err := s.FindHotels(context.Background(), 1)
			require.ErrorIs(t, err, tc.want)

			_, err = s.FindHotelByID(context.Background(), 1, 5)
			require.ErrorIs(t, err, tc.want)

			assert.Zero(t, f.listCalls, "hotels must not be read when denied")
			assert.Zero(t, f.getCalls)
		})
	}
}

func TestFindHotels_EmptyIsSuccess(t *testing.T) {
	f := newFakeStore()
	f.seed(1, domain.TicketPaid, false, true)
	s := newService(f, nil)

	hs, err := s.FindHotels(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, hs)
	assert.Empty(t, hs)
}

func TestFindHotels_ReturnsAll(t *testing.T) {
	f := newFakeStore()
	f.seed(1, domain.TicketPaid, false, true)
	f.hotels = []domain.Hotel{
		{ID: 1, Name: "A", Image: "a.png", CreatedAt: ts, UpdatedAt: ts},
		{ID: 2, Name: "B", Image: "b.png", CreatedAt: ts, UpdatedAt: ts},
	}
	s := newService(f, nil)

	hs, err := s.FindHotels(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, f.hotels, hs)

	again, err := s.FindHotels(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, hs, again)
}

func TestFindHotelByID(t *testing.T) {
	f := newFakeStore()
	f.seed(1, domain.TicketPaid, false, true)
	f.hotels = []domain.Hotel{{ID: 5, Name: "H", Image: "h.png", CreatedAt: ts, UpdatedAt: ts}}
	s := newService(f, nil)

	h, err := s.FindHotelByID(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), h.ID)
	assert.Equal(t, "H", h.Name)
	require.NotNil(t, h.Rooms)
	assert.Empty(t, h.Rooms)

	f.rooms[5] = []domain.Room{{ID: 1, Name: "101", Capacity: 2, HotelID: 5}}
	h, err = s.FindHotelByID(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Len(t, h.Rooms, 1)

	_, err = s.FindHotelByID(context.Background(), 1, 404)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindHotels_StoreErrorPropagates(t *testing.T) {
	f := newFakeStore()
	f.seed(1, domain.TicketPaid, false, true)
	f.hotelErr = errors.New("db down")
	s := newService(f, nil)

	_, err := s.FindHotels(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestHotelCache_MissThenHit(t *testing.T) {
	f := newFakeStore()
	f.seed(1, domain.TicketPaid, false, true)
	f.hotels = []domain.Hotel{{ID: 5, Name: "Cached"}}
	c := &fakeCache{}
	s := newService(f, c)

	_, err := s.FindHotels(context.Background(), 1)
	require.NoError(t, err)
	_, err = s.FindHotelByID(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, c.sets)

	// mutate the store; second read must come from cache
	f.hotels[0].Name = "SHOULD NOT SEE THIS"

	hs, err := s.FindHotels(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Cached", hs[0].Name)
	h, err := s.FindHotelByID(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "Cached", h.Name)
	assert.Equal(t, 1, f.listCalls)
	assert.Equal(t, 1, f.getCalls)
}

func TestHotelCache_NeverBypassesEligibility(t *testing.T) {
	f := newFakeStore()
	f.seed(1, domain.TicketPaid, false, true)
	f.seed(2, domain.TicketReserved, false, true)
	f.hotels = []domain.Hotel{{ID: 5, Name: "H"}}
	c := &fakeCache{}
	s := newService(f, c)

	_, err := s.FindHotels(context.Background(), 1)
	require.NoError(t, err)

	_, err = s.FindHotels(context.Background(), 2)
	require.ErrorIs(t, err, domain.ErrPaymentRequired)
}

func TestHotelCache_AbsentNotCached(t *testing.T) {
	f := newFakeStore()
	f.seed(1, domain.TicketPaid, false, true)
	c := &fakeCache{}
	s := newService(f, c)

	_, err := s.FindHotelByID(context.Background(), 1, 5)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, c.sets)
}

func TestHotelCache_CorruptEntryEvictedAndReloaded(t *testing.T) {
	f := newFakeStore()
	f.seed(1, domain.TicketPaid, false, true)
	f.hotels = []domain.Hotel{{ID: 5, Name: "Fresh"}}
	c := &fakeCache{store: map[string]any{"hotels:all": corruptEntry{}}}
	s := newService(f, c)

	hs, err := s.FindHotels(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, "Fresh", hs[0].Name)
	assert.Equal(t, 1, c.dels)
	assert.Equal(t, 1, f.listCalls)
	assert.IsType(t, []domain.Hotel{}, c.store["hotels:all"])
}

func TestFindHotels_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	f := newFakeStore()
	f.seed(1, domain.TicketPaid, false, true)
	f.seed(2, domain.TicketPaid, false, true)
	f.hotels = []domain.Hotel{{ID: 5, Name: "Resort"}}
	f.listStarted = make(chan struct{}, 1)
	f.listRelease = make(chan struct{})
	s := newService(f, nil)

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()
	err1 := make(chan error, 1)
	go func() {
		_, err := s.FindHotels(ctx1, 1)
		err1 <- err
	}()
	select {
	case <-f.listStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("first load never reached the store")
	}

	type result struct {
		hotels []domain.Hotel
		err    error
	}
	res2 := make(chan result, 1)
	go func() {
		hs, err := s.FindHotels(context.Background(), 2)
		res2 <- result{hs, err}
	}()
	// user 2 has resolved eligibility and is about to join the in-flight load
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.ticketCalls == 2
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	cancel1()
	select {
	case err := <-err1:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(f.listRelease)
	select {
	case r := <-res2:
		require.NoError(t, r.err)
		require.Len(t, r.hotels, 1)
		assert.Equal(t, "Resort", r.hotels[0].Name)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
}
