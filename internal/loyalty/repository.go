package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

type Repository interface {
	GetByBooking(ctx context.Context, bookingID string) (*Transaction, error)
	// Create returns ErrAlreadyCredited when the booking already has an entry.
	Create(ctx context.Context, t *Transaction) error
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*Transaction, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) GetByBooking(ctx context.Context, bookingID string) (*Transaction, error) {
	query, args, err := psql.Select("id", "user_id", "booking_id", "amount", "points", "status", "created_at").
		From("public.loyalty_transactions").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get loyalty transaction query failed: %w", err)
	}

	var t Transaction
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.UserID, &t.BookingID, &t.Amount, &t.Points, &t.Status, &t.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loyalty transaction failed: %w", err)
	}
	return &t, nil
}

func (r *pgxRepository) Create(ctx context.Context, t *Transaction) error {
	query, args, err := psql.Insert("public.loyalty_transactions").
		Columns("user_id", "booking_id", "amount", "points", "status").
		Values(t.UserID, t.BookingID, t.Amount, t.Points, t.Status).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create loyalty transaction query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&t.ID, &t.CreatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyCredited
		}
		return fmt.Errorf("create loyalty transaction failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*Transaction, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	query, args, err := psql.Select(
		"id", "user_id", "booking_id", "amount", "points", "status", "created_at",
		"count(*) OVER() AS total_count",
	).
		From("public.loyalty_transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list loyalty transactions query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list loyalty transactions failed: %w", err)
	}
	defer rows.Close()

	var items []*Transaction
	var total int
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.BookingID, &t.Amount, &t.Points, &t.Status, &t.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan loyalty transaction failed: %w", err)
		}
		items = append(items, &t)
	}
	return items, total, rows.Err()
}
