package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	// GetForUpdate locks the booking row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// ListExpired returns unpaid bookings whose payment deadline passed before now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"id", "room_type_id", "hotel_id", "user_id",
	"guest_name", "guest_email", "guest_phone",
	"check_in", "check_out", "adults", "children", "rooms",
	"payment_method", "status", "payment_status",
	"base_amount", "discount", "vouchers", "voucher_discount", "total_amount",
	"COALESCE(transfer_reference, '')", "COALESCE(transfer_memo, '')", "payment_expires_at",
	"cancel_reason", "confirmed_at", "canceled_at", "created_at", "updated_at",
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	var discountJSON, vouchersJSON []byte

	dest := []any{
		&b.ID, &b.RoomTypeID, &b.HotelID, &b.UserID,
		&b.GuestName, &b.GuestEmail, &b.GuestPhone,
		&b.CheckIn, &b.CheckOut, &b.Adults, &b.Children, &b.Rooms,
		&b.PaymentMethod, &b.Status, &b.PaymentStatus,
		&b.BaseAmount, &discountJSON, &vouchersJSON, &b.VoucherDiscount, &b.TotalAmount,
		&b.TransferReference, &b.TransferMemo, &b.PaymentExpiresAt,
		&b.CancelReason, &b.ConfirmedAt, &b.CanceledAt, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if len(discountJSON) > 0 && string(discountJSON) != "null" {
		var d discount.Applied
		if err := json.Unmarshal(discountJSON, &d); err != nil {
			return nil, fmt.Errorf("decode discount snapshot of booking %s: %w", b.ID, err)
		}
		b.Discount = &d
	}
	if len(vouchersJSON) > 0 {
		if err := json.Unmarshal(vouchersJSON, &b.Vouchers); err != nil {
			return nil, fmt.Errorf("decode voucher snapshots of booking %s: %w", b.ID, err)
		}
	}
	return &b, nil
}

func encodeSnapshots(b *Booking) (discountJSON, vouchersJSON []byte, err error) {
	if b.Discount != nil {
		if discountJSON, err = json.Marshal(b.Discount); err != nil {
			return nil, nil, fmt.Errorf("encode discount snapshot: %w", err)
		}
	}
	vouchers := b.Vouchers
	if vouchers == nil {
		vouchers = []discount.Applied{}
	}
	if vouchersJSON, err = json.Marshal(vouchers); err != nil {
		return nil, nil, fmt.Errorf("encode voucher snapshots: %w", err)
	}
	return discountJSON, vouchersJSON, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	discountJSON, vouchersJSON, err := encodeSnapshots(b)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("public.bookings").
		Columns(
			"id", "room_type_id", "hotel_id", "user_id",
			"guest_name", "guest_email", "guest_phone",
			"check_in", "check_out", "adults", "children", "rooms",
			"payment_method", "status", "payment_status",
			"base_amount", "discount", "vouchers", "voucher_discount", "total_amount",
			"transfer_reference", "transfer_memo", "payment_expires_at",
		).
		Values(
			b.ID, b.RoomTypeID, b.HotelID, b.UserID,
			b.GuestName, b.GuestEmail, b.GuestPhone,
			b.CheckIn, b.CheckOut, b.Adults, b.Children, b.Rooms,
			b.PaymentMethod, b.Status, b.PaymentStatus,
			b.BaseAmount, discountJSON, vouchersJSON, b.VoucherDiscount, b.TotalAmount,
			nullIfEmpty(b.TransferReference), nullIfEmpty(b.TransferMemo), b.PaymentExpiresAt,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) get(ctx context.Context, id string, lock bool) (*Booking, error) {
	q := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": id})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return r.get(ctx, id, false)
}

func (r *pgxRepository) GetForUpdate(ctx context.Context, id string) (*Booking, error) {
	return r.get(ctx, id, true)
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.bookings").
		Set("room_type_id", b.RoomTypeID).
		Set("check_out", b.CheckOut).
		Set("status", b.Status).
		Set("payment_status", b.PaymentStatus).
		Set("base_amount", b.BaseAmount).
		Set("total_amount", b.TotalAmount).
		Set("cancel_reason", b.CancelReason).
		Set("confirmed_at", b.ConfirmedAt).
		Set("canceled_at", b.CanceledAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	return nil
}

var sortableColumns = map[string]string{
	"check_in":     "check_in",
	"created_at":   "created_at",
	"total_amount": "total_amount",
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := psql.Select(bookingColumns...).
		Column("count(*) OVER() AS total_count").
		From("public.bookings")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.HotelID != "" {
		query = query.Where(squirrel.Eq{"hotel_id": filter.HotelID})
	}
	if filter.RoomTypeID != "" {
		query = query.Where(squirrel.Eq{"room_type_id": filter.RoomTypeID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.CheckInFrom != nil {
		query = query.Where(squirrel.GtOrEq{"check_in": *filter.CheckInFrom})
	}
	if filter.CheckInTo != nil {
		query = query.Where(squirrel.Lt{"check_in": *filter.CheckInTo})
	}

	orderBy, ok := sortableColumns[filter.SortBy]
	if !ok {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "id")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query, args, err := psql.Select("id").
		From("public.bookings").
		Where(squirrel.Eq{"status": StatusPending, "payment_status": PaymentPending}).
		Where(squirrel.NotEq{"payment_expires_at": nil}).
		Where(squirrel.Lt{"payment_expires_at": now}).
		OrderBy("payment_expires_at").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list expired query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expired bookings failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired booking failed: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
