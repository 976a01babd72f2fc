package payment

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

// EventRepository stores the audit trail of gateway notifications.
type EventRepository interface {
	Record(ctx context.Context, e *Event) error
}

type pgxEventRepository struct {
	pool *pgxpool.Pool
}

func NewPgxEventRepository(pool *pgxpool.Pool) EventRepository {
	return &pgxEventRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxEventRepository) Record(ctx context.Context, e *Event) error {
	query, args, err := psql.Insert("public.payment_events").
		Columns("provider", "order_id", "request_id", "trans_id", "result_code", "amount", "message").
		Values(e.Provider, e.OrderID, e.RequestID, e.TransID, e.ResultCode, e.Amount, e.Message).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build record payment event query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("record payment event failed: %w", err)
	}
	return nil
}
