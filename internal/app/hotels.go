package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"drivent/internal/domain"
)

const (
	hotelsAllKey = "hotels:all"

	// loadTimeout bounds a shared hotel load once it is detached from its callers.
	loadTimeout = 10 * time.Second
)

func hotelKey(id int64) string { return fmt.Sprintf("hotel:%d", id) }

// Resolver is what HotelService needs from eligibility.
type Resolver interface {
	Resolve(ctx context.Context, userID int64) (domain.Eligibility, error)
	ResolveForHotel(ctx context.Context, userID, hotelID int64) (domain.Eligibility, error)
}

// HotelService gates hotel reads behind eligibility. Only hotel data is cached;
// eligibility is resolved on every call.
type HotelService struct {
	resolver Resolver
	repo     domain.HotelRepository
	cache    domain.Cache
	cacheTTL time.Duration
	loads    singleflight.Group
}

// NewHotelService builds the service. cache may be nil to disable caching.
func NewHotelService(res Resolver, r domain.HotelRepository, c domain.Cache, ttl time.Duration) *HotelService {
	return &HotelService{resolver: res, repo: r, cache: c, cacheTTL: ttl}
}

func (s *HotelService) FindHotels(ctx context.Context, userID int64) ([]domain.Hotel, error) {
	e, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := e.Err(); err != nil {
		return nil, err
	}

	var hs []domain.Hotel
	if s.cacheGet(ctx, hotelsAllKey, &hs) {
		return copyHotels(hs), nil
	}

	v, err := s.load(ctx, hotelsAllKey, func(ctx context.Context) (any, error) {
		hs, err := s.repo.ListHotels(ctx)
		if err != nil {
			return nil, fmt.Errorf("list hotels: %w", err)
		}
		s.cacheSet(ctx, hotelsAllKey, hs)
		return hs, nil
	})
	if err != nil {
		return nil, err
	}
	return copyHotels(v.([]domain.Hotel)), nil
}

func (s *HotelService) FindHotelByID(ctx context.Context, userID, hotelID int64) (domain.HotelWithRooms, error) {
	e, err := s.resolver.ResolveForHotel(ctx, userID, hotelID)
	if err != nil {
		return domain.HotelWithRooms{}, err
	}
	if err := e.Err(); err != nil {
		return domain.HotelWithRooms{}, err
	}

	key := hotelKey(hotelID)
	var h domain.HotelWithRooms
	if s.cacheGet(ctx, key, &h) {
		return copyHotel(h), nil
	}

	v, err := s.load(ctx, key, func(ctx context.Context) (any, error) {
		h, err := s.repo.GetHotel(ctx, hotelID)
		if err != nil {
			// absent hotels are not cached
			return nil, fmt.Errorf("get hotel %d: %w", hotelID, err)
		}
		s.cacheSet(ctx, key, h)
		return h, nil
	})
	if err != nil {
		return domain.HotelWithRooms{}, err
	}
	return copyHotel(v.(domain.HotelWithRooms)), nil
}

// load collapses concurrent loads of key. The shared load runs detached from any
// one caller and bounded by loadTimeout; each caller returns when its own ctx is done.
func (s *HotelService) load(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.loads.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return fn(lctx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *HotelService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err == nil {
		return ok
	}
	log.Warn().Err(err).Str("key", key).Msg("hotel cache read failed")
	if errors.Is(err, domain.ErrCacheCorrupt) {
		if err := s.cache.Del(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("evict corrupt cache entry failed")
		}
	}
	return false
}

func (s *HotelService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, v, s.cacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("hotel cache write failed")
	}
}

// copies keep callers from mutating values shared through singleflight or the cache
func copyHotels(in []domain.Hotel) []domain.Hotel {
	out := make([]domain.Hotel, len(in))
	copy(out, in)
	return out
}

func copyHotel(in domain.HotelWithRooms) domain.HotelWithRooms {
	out := in
	out.Rooms = make([]domain.Room, len(in.Rooms))
	copy(out.Rooms, in.Rooms)
	return out
}
