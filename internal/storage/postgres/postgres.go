package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"drivent/internal/adapters/observability"
	"drivent/internal/domain"
)

const storeName = "postgres"

type Storage struct {
	DB *sql.DB
}

func New(db *sql.DB) *Storage { return &Storage{DB: db} }

func Open(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	return New(db), nil
}

func (s *Storage) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Storage) Close() error { return s.DB.Close() }

func observe(op string, start time.Time, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		err = nil
	}
	observability.ObserveStore(storeName, op, err, time.Since(start))
}

func (s *Storage) FindEnrollmentByUserID(ctx context.Context, userID int64) (e domain.Enrollment, err error) {
	defer func(start time.Time) { observe("find_enrollment", start, err) }(time.Now())

	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM enrollments
		WHERE user_id = $1
		ORDER BY id
		LIMIT 1`

	err = s.DB.QueryRowContext(ctx, query, userID).
		Scan(&e.ID, &e.UserID, &e.Name, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Enrollment{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return e, nil
}

func (s *Storage) FindTicketByEnrollmentID(ctx context.Context, enrollmentID int64) (t domain.Ticket, err error) {
	defer func(start time.Time) { observe("find_ticket", start, err) }(time.Now())

	query := `
		SELECT t.id, t.enrollment_id, t.ticket_type_id, t.status, t.created_at, t.updated_at,
		       tt.id, tt.name, tt.price, tt.is_remote, tt.includes_hotel
		FROM tickets t
		JOIN ticket_types tt ON tt.id = t.ticket_type_id
		WHERE t.enrollment_id = $1
		ORDER BY t.id
		LIMIT 1`

	var status string
	err = s.DB.QueryRowContext(ctx, query, enrollmentID).Scan(
		&t.ID, &t.EnrollmentID, &t.TicketTypeID, &status, &t.CreatedAt, &t.UpdatedAt,
		&t.TicketType.ID, &t.TicketType.Name, &t.TicketType.Price,
		&t.TicketType.IsRemote, &t.TicketType.IncludesHotel,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ticket{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("failed to get ticket: %w", err)
	}
	t.Status = domain.TicketStatus(status)
	return t, nil
}

func (s *Storage) FindSessionByToken(ctx context.Context, token string) (sess domain.Session, err error) {
	defer func(start time.Time) { observe("find_session", start, err) }(time.Now())

	query := `
		SELECT id, user_id, token, created_at
		FROM sessions
		WHERE token = $1
		LIMIT 1`

	err = s.DB.QueryRowContext(ctx, query, token).
		Scan(&sess.ID, &sess.UserID, &sess.Token, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

func (s *Storage) ListHotels(ctx context.Context) (hotels []domain.Hotel, err error) {
	defer func(start time.Time) { observe("list_hotels", start, err) }(time.Now())

	query := `
		SELECT id, name, image, created_at, updated_at
		FROM hotels
		ORDER BY id`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get hotels: %w", err)
	}
	defer rows.Close()

	hotels = []domain.Hotel{}
	for rows.Next() {
		var h domain.Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.Image, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		hotels = append(hotels, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hotels, nil
}

func (s *Storage) GetHotel(ctx context.Context, id int64) (hw domain.HotelWithRooms, err error) {
	defer func(start time.Time) { observe("get_hotel", start, err) }(time.Now())

	hotelQuery := `
		SELECT id, name, image, created_at, updated_at
		FROM hotels
		WHERE id = $1`

	h := &hw.Hotel
	err = s.DB.QueryRowContext(ctx, hotelQuery, id).
		Scan(&h.ID, &h.Name, &h.Image, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HotelWithRooms{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.HotelWithRooms{}, fmt.Errorf("failed to get hotel: %w", err)
	}

	roomsQuery := `
		SELECT id, name, capacity, hotel_id, created_at, updated_at
		FROM rooms
		WHERE hotel_id = $1
		ORDER BY id`

	rows, err := s.DB.QueryContext(ctx, roomsQuery, id)
	if err != nil {
		return domain.HotelWithRooms{}, fmt.Errorf("failed to get rooms: %w", err)
	}
	defer rows.Close()

	hw.Rooms = []domain.Room{}
	for rows.Next() {
		var rm domain.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.HotelID, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return domain.HotelWithRooms{}, fmt.Errorf("failed to scan room: %w", err)
		}
		hw.Rooms = append(hw.Rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return domain.HotelWithRooms{}, fmt.Errorf("rows error: %w", err)
	}
	return hw, nil
}
