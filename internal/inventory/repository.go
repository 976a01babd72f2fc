package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

type Repository interface {
	// LockRoomType takes the row lock that serializes reservations of one room type.
	LockRoomType(ctx context.Context, roomTypeID string) (*Stock, error)
	GetStock(ctx context.Context, roomTypeID string) (*Stock, error)
	ListOverlapping(ctx context.Context, roomTypeID string, from, to time.Time) ([]Reservation, error)
	GetReservation(ctx context.Context, bookingID string) (*Reservation, error)
	Insert(ctx context.Context, r Reservation) error
	Update(ctx context.Context, r Reservation) error
	Delete(ctx context.Context, bookingID string) (bool, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) stock(ctx context.Context, roomTypeID string, lock bool) (*Stock, error) {
	q := psql.Select("id", "category", "total_stock").
		From("public.room_types").
		Where(squirrel.Eq{"id": roomTypeID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build room type stock query failed: %w", err)
	}

	var s Stock
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&s.RoomTypeID, &s.Category, &s.TotalStock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomTypeNotFound
		}
		return nil, fmt.Errorf("get room type stock failed: %w", err)
	}
	return &s, nil
}

func (r *pgxRepository) LockRoomType(ctx context.Context, roomTypeID string) (*Stock, error) {
	return r.stock(ctx, roomTypeID, true)
}

func (r *pgxRepository) GetStock(ctx context.Context, roomTypeID string) (*Stock, error) {
	return r.stock(ctx, roomTypeID, false)
}

func (r *pgxRepository) ListOverlapping(ctx context.Context, roomTypeID string, from, to time.Time) ([]Reservation, error) {
	query, args, err := psql.Select("booking_id", "room_type_id", "check_in", "check_out", "rooms").
		From("public.room_reservations").
		Where(squirrel.Eq{"room_type_id": roomTypeID}).
		Where(squirrel.Lt{"check_in": to}).
		Where(squirrel.Gt{"check_out": from}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations failed: %w", err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.BookingID, &res.RoomTypeID, &res.CheckIn, &res.CheckOut, &res.Rooms); err != nil {
			return nil, fmt.Errorf("scan reservation failed: %w", err)
		}
		out = append(out, res.normalized())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations failed: %w", err)
	}
	return out, nil
}

func (r *pgxRepository) GetReservation(ctx context.Context, bookingID string) (*Reservation, error) {
	q := psql.Select("booking_id", "room_type_id", "check_in", "check_out", "rooms").
		From("public.room_reservations").
		Where(squirrel.Eq{"booking_id": bookingID})
	if db.HasTx(ctx) {
		q = q.Suffix("FOR UPDATE")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	var res Reservation
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&res.BookingID, &res.RoomTypeID, &res.CheckIn, &res.CheckOut, &res.Rooms,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	res = res.normalized()
	return &res, nil
}

func (r *pgxRepository) Insert(ctx context.Context, res Reservation) error {
	query, args, err := psql.Insert("public.room_reservations").
		Columns("booking_id", "room_type_id", "check_in", "check_out", "rooms").
		Values(res.BookingID, res.RoomTypeID, res.CheckIn, res.CheckOut, res.Rooms).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert reservation query failed: %w", err)
	}

	if _, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyReserved
		}
		return fmt.Errorf("insert reservation failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Update(ctx context.Context, res Reservation) error {
	query, args, err := psql.Update("public.room_reservations").
		Set("room_type_id", res.RoomTypeID).
		Set("check_in", res.CheckIn).
		Set("check_out", res.CheckOut).
		Set("rooms", res.Rooms).
		Where(squirrel.Eq{"booking_id": res.BookingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update reservation failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, bookingID string) (bool, error) {
	query, args, err := psql.Delete("public.room_reservations").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete reservation query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete reservation failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
