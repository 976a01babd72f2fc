package discount

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

type Repository interface {
	ListActiveFestivals(ctx context.Context, at time.Time) ([]Discount, error)
	// GetByCodes locks the matched rows when ctx carries a transaction.
	GetByCodes(ctx context.Context, codes []string) ([]Discount, error)
	CountUserUsage(ctx context.Context, discountID, userID string) (int, error)
	RecordUsage(ctx context.Context, u Usage) error
	// DeleteUsages removes the usages of a booking and returns how many it removed.
	DeleteUsages(ctx context.Context, bookingID string) (int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func selectDiscounts() squirrel.SelectBuilder {
	return psql.Select(
		"id", "COALESCE(code, '')", "name", "kind", "type", "value",
		"starts_at", "ends_at", "min_booking_value", "max_discount", "stackable",
		"usage_limit_per_user", "used_count", "hotel_ids::text[]", "room_type_ids::text[]", "is_active",
	).From("public.discounts")
}

func scanDiscounts(rows pgx.Rows) ([]Discount, error) {
	defer rows.Close()

	var out []Discount
	for rows.Next() {
		var d Discount
		if err := rows.Scan(
			&d.ID, &d.Code, &d.Name, &d.Kind, &d.Type, &d.Value,
			&d.StartsAt, &d.EndsAt, &d.MinBookingValue, &d.MaxDiscount, &d.Stackable,
			&d.UsageLimitPerUser, &d.UsedCount, &d.HotelIDs, &d.RoomTypeIDs, &d.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan discount failed: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discounts failed: %w", err)
	}
	return out, nil
}

func (r *pgxRepository) ListActiveFestivals(ctx context.Context, at time.Time) ([]Discount, error) {
	query, args, err := selectDiscounts().
		Where(squirrel.Eq{"kind": KindFestival, "is_active": true}).
		Where(squirrel.LtOrEq{"starts_at": at}).
		Where(squirrel.Gt{"ends_at": at}).
		OrderBy("value DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list festivals query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list festivals failed: %w", err)
	}
	return scanDiscounts(rows)
}

func (r *pgxRepository) GetByCodes(ctx context.Context, codes []string) ([]Discount, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	q := selectDiscounts().
		Where(squirrel.Eq{"upper(code)": codes}).
		OrderBy("id")
	if db.HasTx(ctx) {
		q = q.Suffix("FOR UPDATE")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get discounts query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get discounts failed: %w", err)
	}
	return scanDiscounts(rows)
}

func (r *pgxRepository) CountUserUsage(ctx context.Context, discountID, userID string) (int, error) {
	query, args, err := psql.Select("count(*)").
		From("public.discount_usages").
		Where(squirrel.Eq{"discount_id": discountID, "user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count usage query failed: %w", err)
	}

	var n int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count usage failed: %w", err)
	}
	return n, nil
}

func (r *pgxRepository) RecordUsage(ctx context.Context, u Usage) error {
	conn := db.Conn(ctx, r.pool)

	query, args, err := psql.Insert("public.discount_usages").
		Columns("discount_id", "user_id", "booking_id", "amount").
		Values(u.DiscountID, u.UserID, u.BookingID, u.Amount).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record usage query failed: %w", err)
	}
	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("record usage failed: %w", err)
	}

	query, args, err = psql.Update("public.discounts").
		Set("used_count", squirrel.Expr("used_count + 1")).
		Where(squirrel.Eq{"id": u.DiscountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build increment usage query failed: %w", err)
	}
	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("increment usage failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) DeleteUsages(ctx context.Context, bookingID string) (int, error) {
	const query = `
		WITH removed AS (
			DELETE FROM public.discount_usages
			WHERE booking_id = $1
			RETURNING discount_id
		)
		UPDATE public.discounts d
		SET used_count = GREATEST(d.used_count - 1, 0)
		FROM removed
		WHERE d.id = removed.discount_id
	`

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, bookingID)
	if err != nil {
		return 0, fmt.Errorf("delete usages failed: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
