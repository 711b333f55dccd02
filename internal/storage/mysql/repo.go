package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"drivent/internal/adapters/observability"
	"drivent/internal/domain"
)

const storeName = "mysql"

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Open connects and pings; dsn must carry parseTime=true.
func Open(ctx context.Context, dsn string) (*Repo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return New(db), nil
}

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *Repo) Close() error { return r.db.Close() }

func observe(op string, start time.Time, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		err = nil
	}
	observability.ObserveStore(storeName, op, err, time.Since(start))
}

func (r *Repo) FindEnrollmentByUserID(ctx context.Context, userID int64) (e domain.Enrollment, err error) {
	defer func(start time.Time) { observe("find_enrollment", start, err) }(time.Now())

	err = r.db.QueryRowContext(ctx, findEnrollmentByUserSQL, userID).
		Scan(&e.ID, &e.UserID, &e.Name, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Enrollment{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("scan enrollment: %w", err)
	}
	return e, nil
}

func (r *Repo) FindTicketByEnrollmentID(ctx context.Context, enrollmentID int64) (t domain.Ticket, err error) {
	defer func(start time.Time) { observe("find_ticket", start, err) }(time.Now())

	var status string
	err = r.db.QueryRowContext(ctx, findTicketByEnrollmentSQL, enrollmentID).Scan(
		&t.ID,
		&t.EnrollmentID,
		&t.TicketTypeID,
		&status,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.TicketType.ID,
		&t.TicketType.Name,
		&t.TicketType.Price,
		&t.TicketType.IsRemote,
		&t.TicketType.IncludesHotel,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ticket{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("scan ticket: %w", err)
	}
	t.Status = domain.TicketStatus(status)
	return t, nil
}

func (r *Repo) FindSessionByToken(ctx context.Context, token string) (s domain.Session, err error) {
	defer func(start time.Time) { observe("find_session", start, err) }(time.Now())

	err = r.db.QueryRowContext(ctx, findSessionByTokenSQL, token).
		Scan(&s.ID, &s.UserID, &s.Token, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("scan session: %w", err)
	}
	return s, nil
}

func (r *Repo) ListHotels(ctx context.Context) (out []domain.Hotel, err error) {
	defer func(start time.Time) { observe("list_hotels", start, err) }(time.Now())

	rows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out = []domain.Hotel{}
	for rows.Next() {
		var h domain.Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.Image, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (hw domain.HotelWithRooms, err error) {
	defer func(start time.Time) { observe("get_hotel", start, err) }(time.Now())

	h := &hw.Hotel
	err = r.db.QueryRowContext(ctx, getHotelSQL, id).
		Scan(&h.ID, &h.Name, &h.Image, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HotelWithRooms{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.HotelWithRooms{}, fmt.Errorf("scan hotel: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, listRoomsSQL, id)
	if err != nil {
		return domain.HotelWithRooms{}, err
	}
	defer rows.Close()

	hw.Rooms = []domain.Room{}
	for rows.Next() {
		var rm domain.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.HotelID, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return domain.HotelWithRooms{}, err
		}
		hw.Rooms = append(hw.Rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return domain.HotelWithRooms{}, err
	}
	return hw, nil
}
