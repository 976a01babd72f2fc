package catalog

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
	GetRoomType(ctx context.Context, id string) (*RoomType, error)
	ListRoomTypes(ctx context.Context, filter Filter) ([]*RoomType, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func selectRoomTypes() squirrel.SelectBuilder {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(
			"rt.id", "rt.hotel_id", "h.name", "rt.name", "rt.category",
			"rt.rate", "rt.total_stock", "rt.max_guests", "rt.created_at",
		).
		From("public.room_types rt").
		Join("public.hotels h ON rt.hotel_id = h.id")
}

func (r *pgxRepository) GetRoomType(ctx context.Context, id string) (*RoomType, error) {
	query, args, err := selectRoomTypes().Where(squirrel.Eq{"rt.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room type query failed: %w", err)
	}

	var rt RoomType
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&rt.ID, &rt.HotelID, &rt.HotelName, &rt.Name, &rt.Category,
		&rt.Rate, &rt.TotalStock, &rt.MaxGuests, &rt.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomTypeNotFound
		}
		return nil, fmt.Errorf("get room type failed: %w", err)
	}
	return &rt, nil
}

func (r *pgxRepository) ListRoomTypes(ctx context.Context, filter Filter) ([]*RoomType, int, error) {
	query := selectRoomTypes().Column("count(*) OVER() AS total_count")

	if filter.HotelID != "" {
		query = query.Where(squirrel.Eq{"rt.hotel_id": filter.HotelID})
	}
	if filter.Category != "" {
		query = query.Where(squirrel.Eq{"rt.category": filter.Category})
	}

	orderDir := "ASC"
	if filter.SortOrder == "DESC" {
		orderDir = "DESC"
	}
	query = query.OrderBy("rt.rate "+orderDir, "rt.id")

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
		return nil, 0, fmt.Errorf("build list room types query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list room types failed: %w", err)
	}
	defer rows.Close()

	var items []*RoomType
	var total int
	for rows.Next() {
		var rt RoomType
		if err := rows.Scan(
			&rt.ID, &rt.HotelID, &rt.HotelName, &rt.Name, &rt.Category,
			&rt.Rate, &rt.TotalStock, &rt.MaxGuests, &rt.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan room type failed: %w", err)
		}
		items = append(items, &rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate room types failed: %w", err)
	}

	return items, total, nil
}
